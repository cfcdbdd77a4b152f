package loyalty

import (
	"time"

	"github.com/GuyPaddock/json-service-framework-sub001/pkg/jsonapi"
)

// Resource types served by the loyalty service.
const (
	TypeMembers      = "members"
	TypeRewards      = "rewards"
	TypeRedemptions  = "redemptions"
	TypeTransactions = "points-transactions"
)

// Collection paths, relative to the service base URL.
const (
	PathMembers      = "/" + TypeMembers
	PathRewards      = "/" + TypeRewards
	PathRedemptions  = "/" + TypeRedemptions
	PathTransactions = "/" + TypeTransactions
)

// Tier is a membership level.
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// Tiers lists every tier from lowest to highest.
func Tiers() []Tier {
	return []Tier{TierBronze, TierSilver, TierGold, TierPlatinum}
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	for _, known := range Tiers() {
		if t == known {
			return true
		}
	}

	return false
}

// RedemptionStatus tracks a redemption through fulfilment.
type RedemptionStatus string

const (
	RedemptionPending   RedemptionStatus = "pending"
	RedemptionFulfilled RedemptionStatus = "fulfilled"
	RedemptionCancelled RedemptionStatus = "cancelled"
)

// TransactionKind classifies a points movement.
type TransactionKind string

const (
	TransactionEarn   TransactionKind = "earn"
	TransactionRedeem TransactionKind = "redeem"
	TransactionAdjust TransactionKind = "adjust"
	TransactionExpire TransactionKind = "expire"
)

// Member is an enrolled loyalty programme member.
type Member struct {
	jsonapi.Entity

	Email         string    `jsonapi:"attr:email,required"`
	DisplayName   string    `jsonapi:"attr:displayName"`
	Tier          Tier      `jsonapi:"attr:tier"`
	PointsBalance int64     `jsonapi:"attr:pointsBalance"`
	JoinedAt      time.Time `jsonapi:"attr:joinedAt"`
	Tags          []string  `jsonapi:"attr:tags"`
}

// ResourceType implements jsonapi.ResourceTyper.
func (*Member) ResourceType() string { return TypeMembers }

// Reward is an item members can spend points on.
type Reward struct {
	jsonapi.Entity

	Name        string `jsonapi:"attr:name,required"`
	Description string `jsonapi:"attr:description"`
	PointsCost  int64  `jsonapi:"attr:pointsCost,required"`
	Available   bool   `jsonapi:"attr:available"`
	Stock       int    `jsonapi:"attr:stock"`
}

// ResourceType implements jsonapi.ResourceTyper.
func (*Reward) ResourceType() string { return TypeRewards }

// InStock reports whether the reward can currently be redeemed.
func (r *Reward) InStock() bool {
	return r.Available && r.Stock > 0
}

// Redemption records a member exchanging points for a reward.
type Redemption struct {
	jsonapi.Entity

	Member      *Member          `jsonapi:"rel:member,required"`
	Reward      *Reward          `jsonapi:"rel:reward,required"`
	PointsSpent int64            `jsonapi:"attr:pointsSpent"`
	Status      RedemptionStatus `jsonapi:"attr:status"`
	RedeemedAt  time.Time        `jsonapi:"attr:redeemedAt"`
}

// ResourceType implements jsonapi.ResourceTyper.
func (*Redemption) ResourceType() string { return TypeRedemptions }

// PointsTransaction is one entry in a member's points ledger. Points is
// negative for debits.
type PointsTransaction struct {
	jsonapi.Entity

	Member    *Member         `jsonapi:"rel:member,required"`
	Points    int64           `jsonapi:"attr:points,required"`
	Kind      TransactionKind `jsonapi:"attr:kind"`
	Reason    string          `jsonapi:"attr:reason"`
	CreatedAt time.Time       `jsonapi:"attr:createdAt"`
}

// ResourceType implements jsonapi.ResourceTyper.
func (*PointsTransaction) ResourceType() string { return TypeTransactions }
