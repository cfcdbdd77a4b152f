package loyalty_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuyPaddock/json-service-framework-sub001/internal/testutil"
	"github.com/GuyPaddock/json-service-framework-sub001/pkg/client"
	"github.com/GuyPaddock/json-service-framework-sub001/pkg/jsonapi"
	"github.com/GuyPaddock/json-service-framework-sub001/pkg/loyalty"
)

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := loyalty.New(nil)
	require.ErrorIs(t, err, client.ErrConfigRequired)

	_, err = loyalty.New(&client.Config{})
	require.ErrorIs(t, err, client.ErrBaseURLRequired)

	config := &client.Config{BaseURL: "loyalty.example.com"}
	c, err := loyalty.New(config)
	require.NoError(t, err)
	assert.Nil(t, config.CachingPolicy, "the caller's config is left untouched")
	assert.Equal(t, "https://loyalty.example.com", c.API().BaseURL())
	assert.Equal(t, loyalty.PathRedemptions, c.Redemptions().Path())
	assert.Equal(t, loyalty.PathTransactions, c.Transactions().Path())
}

func TestDefaultCachingPolicy(t *testing.T) {
	t.Parallel()

	policy := loyalty.DefaultCachingPolicy()
	assert.True(t, policy.ShouldCache(http.MethodGet, "/members/1", http.StatusOK))
	assert.False(t, policy.ShouldCache(http.MethodGet, "/points-transactions", http.StatusOK))
	assert.False(t, policy.ShouldCache(http.MethodGet, "/points-transactions/9", http.StatusOK))
}

func TestClient_LedgerIsNeverCached(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	seedProgramme(server)

	c := newLoyaltyClient(t, server, withMemoryCache)
	ctx := context.Background()

	for range 2 {
		_, err := c.Members().Page(ctx, nil, 1)
		require.NoError(t, err)

		_, err = c.Transactions().Page(ctx, nil, 1)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, server.RequestCount(http.MethodGet, loyalty.PathMembers))
	assert.Equal(t, 2, server.RequestCount(http.MethodGet, loyalty.PathTransactions))
}

func TestClient_ListMembers(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	seedProgramme(server)

	c := newLoyaltyClient(t, server, nil)

	pages, err := c.Members().List(client.NewQueryParams().WithFilter("tier", "gold"))
	require.NoError(t, err)

	members, err := pages.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 1)

	ada := members[0]
	assert.Equal(t, "ada@example.com", ada.Email)
	assert.Equal(t, loyalty.TierGold, ada.Tier)
	assert.Equal(t, int64(500), ada.PointsBalance)
	assert.Equal(t, []string{"founder"}, ada.Tags)
}

func TestClient_FindMemberByEmail(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	seedProgramme(server)

	c := newLoyaltyClient(t, server, nil)
	ctx := context.Background()

	member, err := c.FindMemberByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.True(t, member.ID().Equal(id(2)))

	_, err = c.FindMemberByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, loyalty.ErrMemberNotFound)
}

func TestClient_CreateMember(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	seedProgramme(server)

	c := newLoyaltyClient(t, server, nil)

	member, err := loyalty.NewMemberBuilder().
		Email("cy@example.com").
		Tier(loyalty.TierBronze).
		Build()
	require.NoError(t, err)

	created, err := c.Members().Create(context.Background(), member)
	require.NoError(t, err)

	assert.False(t, member.IsNew(), "the server id is assigned to the submitted member")
	assert.True(t, created.ID().Equal(member.ID()))

	stored, ok := server.Resource(loyalty.TypeMembers, member.ID().String())
	require.True(t, ok)
	assert.JSONEq(t, `"cy@example.com"`, string(stored.Attributes["email"]))
}

func TestClient_RedeemReward(t *testing.T) {
	t.Parallel()

	t.Run("creates a pending redemption", func(t *testing.T) {
		t.Parallel()

		server := testutil.NewServer(t)
		seedProgramme(server)

		c := newLoyaltyClient(t, server, nil)

		redemption, err := c.RedeemReward(context.Background(), shallowMember(t, 1), shallowReward(t, 3))
		require.NoError(t, err)

		assert.False(t, redemption.IsNew())
		assert.Equal(t, int64(100), redemption.PointsSpent)
		assert.Equal(t, loyalty.RedemptionPending, redemption.Status)
		assert.False(t, redemption.RedeemedAt.IsZero())
		assert.True(t, redemption.Member.ID().Equal(id(1)))

		stored, ok := server.Resource(loyalty.TypeRedemptions, redemption.ID().String())
		require.True(t, ok)
		assert.Equal(t, "1", stored.Relationships["member"].Data.ID)
		assert.Equal(t, loyalty.TypeRewards, stored.Relationships["reward"].Data.Type)
		assert.Equal(t, "3", stored.Relationships["reward"].Data.ID)
	})

	t.Run("insufficient points", func(t *testing.T) {
		t.Parallel()

		server := testutil.NewServer(t)
		seedProgramme(server)

		c := newLoyaltyClient(t, server, nil)

		_, err := c.RedeemReward(context.Background(), shallowMember(t, 2), shallowReward(t, 3))
		require.ErrorIs(t, err, loyalty.ErrInsufficientPoints)
		assert.Contains(t, err.Error(), "40 available, 100 required")
		assert.Zero(t, server.RequestCount(http.MethodPost, loyalty.PathRedemptions))
	})

	t.Run("unavailable reward", func(t *testing.T) {
		t.Parallel()

		server := testutil.NewServer(t)
		seedProgramme(server)

		c := newLoyaltyClient(t, server, nil)

		_, err := c.RedeemReward(context.Background(), shallowMember(t, 1), shallowReward(t, 5))
		require.ErrorIs(t, err, loyalty.ErrRewardUnavailable)
	})

	t.Run("unknown reward", func(t *testing.T) {
		t.Parallel()

		server := testutil.NewServer(t)
		seedProgramme(server)

		c := newLoyaltyClient(t, server, nil)

		_, err := c.RedeemReward(context.Background(), shallowMember(t, 1), shallowReward(t, 99))
		require.Error(t, err)
		assert.True(t, jsonapi.IsNotFound(err))
	})

	t.Run("unsaved or missing arguments", func(t *testing.T) {
		t.Parallel()

		c := newLoyaltyClient(t, testutil.NewServer(t), nil)
		ctx := context.Background()

		_, err := c.RedeemReward(ctx, nil, shallowReward(t, 3))
		require.ErrorIs(t, err, jsonapi.ErrNilArgument)

		unsaved, err := loyalty.NewMemberBuilder().Email("new@example.com").Build()
		require.NoError(t, err)

		_, err = c.RedeemReward(ctx, unsaved, shallowReward(t, 3))
		require.ErrorIs(t, err, jsonapi.ErrIdentifierRequired)
	})
}

func TestClient_RedeemRewardBypassesCache(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	seedProgramme(server)

	c := newLoyaltyClient(t, server, withMemoryCache)
	ctx := context.Background()

	_, err := c.Members().Get(ctx, id(1), nil)
	require.NoError(t, err)

	_, err = c.Members().Get(ctx, id(1), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, server.RequestCount(http.MethodGet, "/members/1"))

	_, err = c.RedeemReward(ctx, shallowMember(t, 1), shallowReward(t, 3))
	require.NoError(t, err)
	assert.Equal(t, 2, server.RequestCount(http.MethodGet, "/members/1"), "balance is re-read before redeeming")

	_, err = c.Members().Get(ctx, id(1), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, server.RequestCount(http.MethodGet, "/members/1"), "balance is re-read after redeeming")
}

func TestClient_AwardPoints(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	seedProgramme(server)

	c := newLoyaltyClient(t, server, nil)
	ctx := context.Background()

	tx, err := c.AwardPoints(ctx, shallowMember(t, 2), 75, "birthday bonus")
	require.NoError(t, err)
	assert.Equal(t, loyalty.TransactionEarn, tx.Kind)
	assert.Equal(t, int64(75), tx.Points)

	_, err = c.AwardPoints(ctx, shallowMember(t, 2), 0, "nothing")
	require.ErrorIs(t, err, loyalty.ErrInvalidPoints)

	_, err = c.AwardPoints(ctx, nil, 10, "nobody")
	require.ErrorIs(t, err, jsonapi.ErrNilArgument)

	pages, err := c.MemberTransactions(shallowMember(t, 2), nil)
	require.NoError(t, err)

	ledger, err := pages.Collect(ctx)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, "birthday bonus", ledger[0].Reason)
}

func TestClient_MemberRedemptions(t *testing.T) {
	t.Parallel()

	server := testutil.NewServer(t)
	seedProgramme(server)

	c := newLoyaltyClient(t, server, nil)
	ctx := context.Background()

	for _, reward := range []int64{3, 3} {
		_, err := c.RedeemReward(ctx, shallowMember(t, 1), shallowReward(t, reward))
		require.NoError(t, err)
	}

	server.SeedObject(jsonapi.ResourceObject{
		Type: loyalty.TypeRedemptions,
		ID:   "50",
		Relationships: map[string]jsonapi.Relationship{
			"member": {Data: &jsonapi.ResourceIdentifier{Type: loyalty.TypeMembers, ID: "2"}},
			"reward": {Data: &jsonapi.ResourceIdentifier{Type: loyalty.TypeRewards, ID: "3"}},
		},
	})

	pages, err := c.MemberRedemptions(shallowMember(t, 1), nil)
	require.NoError(t, err)

	redemptions, err := pages.Collect(ctx)
	require.NoError(t, err)
	require.Len(t, redemptions, 2)

	for _, r := range redemptions {
		assert.Equal(t, "1", r.View().MemberID)
	}

	_, err = c.MemberRedemptions(nil, nil)
	require.ErrorIs(t, err, jsonapi.ErrNilArgument)
}
