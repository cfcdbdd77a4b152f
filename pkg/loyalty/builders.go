package loyalty

import (
	"time"

	"github.com/GuyPaddock/json-service-framework-sub001/pkg/jsonapi"
)

// MemberBuilder builds Member values and filters.
type MemberBuilder struct {
	*jsonapi.Builder[Member, *Member]
}

// NewMemberBuilder creates a MemberBuilder.
func NewMemberBuilder(opts ...jsonapi.BuilderOption) *MemberBuilder {
	return &MemberBuilder{jsonapi.NewBuilder[Member](opts...)}
}

func (b *MemberBuilder) ID(id jsonapi.Identifier) *MemberBuilder {
	b.WithID(id)

	return b
}

func (b *MemberBuilder) Email(email string) *MemberBuilder {
	b.Set("Email", email)

	return b
}

func (b *MemberBuilder) DisplayName(name string) *MemberBuilder {
	b.Set("DisplayName", name)

	return b
}

func (b *MemberBuilder) Tier(tier Tier) *MemberBuilder {
	b.Set("Tier", tier)

	return b
}

func (b *MemberBuilder) PointsBalance(points int64) *MemberBuilder {
	b.Set("PointsBalance", points)

	return b
}

func (b *MemberBuilder) JoinedAt(at time.Time) *MemberBuilder {
	b.Set("JoinedAt", at)

	return b
}

// Tags sets the member tags. The slice is copied on Build.
func (b *MemberBuilder) Tags(tags ...string) *MemberBuilder {
	b.Set("Tags", tags)

	return b
}

// RewardBuilder builds Reward values and filters.
type RewardBuilder struct {
	*jsonapi.Builder[Reward, *Reward]
}

// NewRewardBuilder creates a RewardBuilder.
func NewRewardBuilder(opts ...jsonapi.BuilderOption) *RewardBuilder {
	return &RewardBuilder{jsonapi.NewBuilder[Reward](opts...)}
}

func (b *RewardBuilder) ID(id jsonapi.Identifier) *RewardBuilder {
	b.WithID(id)

	return b
}

func (b *RewardBuilder) Name(name string) *RewardBuilder {
	b.Set("Name", name)

	return b
}

func (b *RewardBuilder) Description(description string) *RewardBuilder {
	b.Set("Description", description)

	return b
}

func (b *RewardBuilder) PointsCost(points int64) *RewardBuilder {
	b.Set("PointsCost", points)

	return b
}

func (b *RewardBuilder) Available(available bool) *RewardBuilder {
	b.Set("Available", available)

	return b
}

func (b *RewardBuilder) Stock(stock int) *RewardBuilder {
	b.Set("Stock", stock)

	return b
}

// RedemptionBuilder builds Redemption values and filters.
type RedemptionBuilder struct {
	*jsonapi.Builder[Redemption, *Redemption]
}

// NewRedemptionBuilder creates a RedemptionBuilder.
func NewRedemptionBuilder(opts ...jsonapi.BuilderOption) *RedemptionBuilder {
	return &RedemptionBuilder{jsonapi.NewBuilder[Redemption](opts...)}
}

func (b *RedemptionBuilder) ID(id jsonapi.Identifier) *RedemptionBuilder {
	b.WithID(id)

	return b
}

func (b *RedemptionBuilder) Member(member *Member) *RedemptionBuilder {
	b.Set("Member", member)

	return b
}

func (b *RedemptionBuilder) Reward(reward *Reward) *RedemptionBuilder {
	b.Set("Reward", reward)

	return b
}

func (b *RedemptionBuilder) PointsSpent(points int64) *RedemptionBuilder {
	b.Set("PointsSpent", points)

	return b
}

func (b *RedemptionBuilder) Status(status RedemptionStatus) *RedemptionBuilder {
	b.Set("Status", status)

	return b
}

func (b *RedemptionBuilder) RedeemedAt(at time.Time) *RedemptionBuilder {
	b.Set("RedeemedAt", at)

	return b
}

// TransactionBuilder builds PointsTransaction values and filters.
type TransactionBuilder struct {
	*jsonapi.Builder[PointsTransaction, *PointsTransaction]
}

// NewTransactionBuilder creates a TransactionBuilder.
func NewTransactionBuilder(opts ...jsonapi.BuilderOption) *TransactionBuilder {
	return &TransactionBuilder{jsonapi.NewBuilder[PointsTransaction](opts...)}
}

func (b *TransactionBuilder) ID(id jsonapi.Identifier) *TransactionBuilder {
	b.WithID(id)

	return b
}

func (b *TransactionBuilder) Member(member *Member) *TransactionBuilder {
	b.Set("Member", member)

	return b
}

func (b *TransactionBuilder) Points(points int64) *TransactionBuilder {
	b.Set("Points", points)

	return b
}

func (b *TransactionBuilder) Kind(kind TransactionKind) *TransactionBuilder {
	b.Set("Kind", kind)

	return b
}

func (b *TransactionBuilder) Reason(reason string) *TransactionBuilder {
	b.Set("Reason", reason)

	return b
}

func (b *TransactionBuilder) CreatedAt(at time.Time) *TransactionBuilder {
	b.Set("CreatedAt", at)

	return b
}
