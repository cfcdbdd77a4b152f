package loyalty_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GuyPaddock/json-service-framework-sub001/internal/testutil"
	"github.com/GuyPaddock/json-service-framework-sub001/pkg/client"
	"github.com/GuyPaddock/json-service-framework-sub001/pkg/jsonapi"
	"github.com/GuyPaddock/json-service-framework-sub001/pkg/loyalty"
)

// seedProgramme stores two members and three rewards:
//
//	members/1 ada@example.com  gold   500 points
//	members/2 bob@example.com  bronze  40 points
//	rewards/3 Coffee           100 points, in stock
//	rewards/4 Headphones       900 points, in stock
//	rewards/5 Retired mug       50 points, unavailable
func seedProgramme(server *testutil.Server) {
	server.Seed(loyalty.TypeMembers, "1", map[string]any{
		"email":         "ada@example.com",
		"displayName":   "Ada",
		"tier":          "gold",
		"pointsBalance": 500,
		"tags":          []string{"founder"},
	})
	server.Seed(loyalty.TypeMembers, "2", map[string]any{
		"email":         "bob@example.com",
		"tier":          "bronze",
		"pointsBalance": 40,
	})
	server.Seed(loyalty.TypeRewards, "3", map[string]any{
		"name":       "Coffee",
		"pointsCost": 100,
		"available":  true,
		"stock":      20,
	})
	server.Seed(loyalty.TypeRewards, "4", map[string]any{
		"name":       "Headphones",
		"pointsCost": 900,
		"available":  true,
		"stock":      2,
	})
	server.Seed(loyalty.TypeRewards, "5", map[string]any{
		"name":       "Retired mug",
		"pointsCost": 50,
		"available":  false,
		"stock":      10,
	})
}

func newLoyaltyClient(t *testing.T, server *testutil.Server, mutate func(*client.Config)) *loyalty.Client {
	t.Helper()

	config := &client.Config{
		BaseURL:  server.URL,
		PageSize: 2,
	}
	if mutate != nil {
		mutate(config)
	}

	c, err := loyalty.New(config)
	require.NoError(t, err)

	t.Cleanup(func() { _ = c.Close() })

	return c
}

func withMemoryCache(config *client.Config) {
	config.Cache = client.DefaultCacheConfig()
}

func id(n int64) jsonapi.Identifier {
	return jsonapi.NewIntIdentifier(n)
}

func shallowMember(t *testing.T, n int64) *loyalty.Member {
	t.Helper()

	member, err := loyalty.NewMemberBuilder().ID(id(n)).BuildShallow()
	require.NoError(t, err)

	return member
}

func shallowReward(t *testing.T, n int64) *loyalty.Reward {
	t.Helper()

	reward, err := loyalty.NewRewardBuilder().ID(id(n)).BuildShallow()
	require.NoError(t, err)

	return reward
}
