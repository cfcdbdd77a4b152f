package loyalty_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/GuyPaddock/json-service-framework-sub001/pkg/jsonapi"
	"github.com/GuyPaddock/json-service-framework-sub001/pkg/loyalty"
)

func TestTier_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tier  loyalty.Tier
		valid bool
	}{
		{loyalty.TierBronze, true},
		{loyalty.TierPlatinum, true},
		{loyalty.Tier("diamond"), false},
		{loyalty.Tier(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.valid, tt.tier.Valid())
		})
	}
}

func TestMemberBuilder(t *testing.T) {
	t.Parallel()

	t.Run("builds a new member", func(t *testing.T) {
		t.Parallel()

		joined := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		tags := []string{"beta"}

		member, err := loyalty.NewMemberBuilder().
			Email("ada@example.com").
			DisplayName("Ada").
			Tier(loyalty.TierGold).
			PointsBalance(250).
			JoinedAt(joined).
			Tags(tags...).
			Build()
		require.NoError(t, err)

		assert.True(t, member.IsNew())
		assert.Equal(t, "ada@example.com", member.Email)
		assert.Equal(t, loyalty.TierGold, member.Tier)
		assert.Equal(t, int64(250), member.PointsBalance)
		assert.Equal(t, joined, member.JoinedAt)

		tags[0] = "changed"
		assert.Equal(t, []string{"beta"}, member.Tags, "tags are copied into the model")
	})

	t.Run("email is required", func(t *testing.T) {
		t.Parallel()

		_, err := loyalty.NewMemberBuilder().DisplayName("Nobody").Build()
		require.ErrorIs(t, err, jsonapi.ErrRequiredFieldMissing)
	})

	t.Run("shared builder yields distinct models", func(t *testing.T) {
		t.Parallel()

		builder := loyalty.NewMemberBuilder().Email("twin@example.com").Tags("a")

		first, err := builder.Build()
		require.NoError(t, err)

		second, err := builder.Build()
		require.NoError(t, err)

		first.Tags[0] = "b"
		assert.Equal(t, []string{"a"}, second.Tags)
	})

	t.Run("filter", func(t *testing.T) {
		t.Parallel()

		gold, err := loyalty.NewMemberBuilder().Email("g@example.com").Tier(loyalty.TierGold).Build()
		require.NoError(t, err)

		silver, err := loyalty.NewMemberBuilder().Email("s@example.com").Tier(loyalty.TierSilver).Build()
		require.NoError(t, err)

		criterion, err := loyalty.NewMemberBuilder().Tier(loyalty.TierGold).BuildFilter()
		require.NoError(t, err)

		assert.Equal(t, []*loyalty.Member{gold}, jsonapi.Filter([]*loyalty.Member{gold, silver}, criterion))
	})
}

func TestRedemptionBuilder_RequiresRelationships(t *testing.T) {
	t.Parallel()

	_, err := loyalty.NewRedemptionBuilder().Member(shallowMember(t, 1)).Build()
	require.ErrorIs(t, err, jsonapi.ErrRequiredFieldMissing)

	redemption, err := loyalty.NewRedemptionBuilder().
		Member(shallowMember(t, 1)).
		Reward(shallowReward(t, 3)).
		Status(loyalty.RedemptionPending).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "3", redemption.Reward.ID().String())
}

func TestTransactionBuilder_UnknownFieldIsSticky(t *testing.T) {
	t.Parallel()

	builder := loyalty.NewTransactionBuilder().Points(10)
	builder.Set("Balance", 1)
	builder.Reason("ignored")

	_, err := builder.Build()
	require.ErrorIs(t, err, jsonapi.ErrUnknownField)
}

func TestReward_InStock(t *testing.T) {
	t.Parallel()

	assert.True(t, (&loyalty.Reward{Available: true, Stock: 1}).InStock())
	assert.False(t, (&loyalty.Reward{Available: true}).InStock())
	assert.False(t, (&loyalty.Reward{Stock: 5}).InStock())
}

func TestViews(t *testing.T) {
	t.Parallel()

	member, err := loyalty.NewMemberBuilder().ID(id(7)).Email("v@example.com").Tier(loyalty.TierSilver).Build()
	require.NoError(t, err)

	view := member.View()
	assert.Equal(t, "7", view.ID)

	out, err := json.Marshal(view)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": "7", "email": "v@example.com", "tier": "silver", "points_balance": 0}`, string(out))

	redemption, err := loyalty.NewRedemptionBuilder().
		Member(shallowMember(t, 7)).
		Reward(shallowReward(t, 3)).
		PointsSpent(100).
		Build()
	require.NoError(t, err)

	var decoded map[string]any
	data, err := yaml.Marshal(redemption.View())
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(data, &decoded))

	assert.Equal(t, "7", decoded["member_id"])
	assert.Equal(t, "3", decoded["reward_id"])
	assert.Equal(t, "", decoded["id"])

	tx := &loyalty.PointsTransaction{Points: -5}
	assert.Empty(t, tx.View().MemberID, "a missing relationship has no id")
}
