// Package loyalty is a typed client for the loyalty programme service:
// members, rewards, redemptions and the points ledger.
//
//	c, err := loyalty.New(&client.Config{BaseURL: url, AccessToken: token})
//	member, err := c.FindMemberByEmail(ctx, "ada@example.com")
//	reward, err := c.Rewards().Get(ctx, rewardID, nil)
//	redemption, err := c.RedeemReward(ctx, member, reward)
package loyalty
