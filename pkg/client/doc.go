// Package client talks to a JSON:API service.
//
// A Client holds the transport, authentication and optional response
// cache. ResourceClient adds typed CRUD operations for one model type:
//
//	c, err := client.New(&client.Config{
//	  BaseURL:      "https://loyalty.example.com/api",
//	  ClientID:     "my-service",
//	  ClientSecret: secret,
//	  Cache:        client.DefaultCacheConfig(),
//	})
//	rewards := client.NewResourceClient[Reward](c, "/rewards")
//	pages, err := rewards.List(client.NewQueryParams().WithSort("-points"))
//	for reward := range pages.All(ctx) {
//	  fmt.Println(reward.Name)
//	}
//
// Successful GET responses are cached according to a CachingPolicy and
// dropped when a write touches the same collection. Caches can be chained,
// for example a MemoryCache in front of a NATSKVCache shared by several
// processes.
package client
