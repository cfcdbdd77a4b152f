package loyalty

import (
	"time"

	"github.com/GuyPaddock/json-service-framework-sub001/pkg/jsonapi"
)

// MemberView is the serialisable form of a Member used for output.
type MemberView struct {
	ID            string    `json:"id"                     yaml:"id"`
	Email         string    `json:"email"                  yaml:"email"`
	DisplayName   string    `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Tier          Tier      `json:"tier,omitempty"         yaml:"tier,omitempty"`
	PointsBalance int64     `json:"points_balance"         yaml:"points_balance"`
	JoinedAt      time.Time `json:"joined_at,omitzero"     yaml:"joined_at,omitempty"`
	Tags          []string  `json:"tags,omitempty"         yaml:"tags,omitempty"`
}

// View returns the output form of m.
func (m *Member) View() MemberView {
	return MemberView{
		ID:            m.ID().String(),
		Email:         m.Email,
		DisplayName:   m.DisplayName,
		Tier:          m.Tier,
		PointsBalance: m.PointsBalance,
		JoinedAt:      m.JoinedAt,
		Tags:          m.Tags,
	}
}

// RewardView is the serialisable form of a Reward used for output.
type RewardView struct {
	ID          string `json:"id"                    yaml:"id"`
	Name        string `json:"name"                  yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	PointsCost  int64  `json:"points_cost"           yaml:"points_cost"`
	Available   bool   `json:"available"             yaml:"available"`
	Stock       int    `json:"stock"                 yaml:"stock"`
}

// View returns the output form of r.
func (r *Reward) View() RewardView {
	return RewardView{
		ID:          r.ID().String(),
		Name:        r.Name,
		Description: r.Description,
		PointsCost:  r.PointsCost,
		Available:   r.Available,
		Stock:       r.Stock,
	}
}

// RedemptionView is the serialisable form of a Redemption used for output.
type RedemptionView struct {
	ID          string           `json:"id"                  yaml:"id"`
	MemberID    string           `json:"member_id"           yaml:"member_id"`
	RewardID    string           `json:"reward_id"           yaml:"reward_id"`
	PointsSpent int64            `json:"points_spent"        yaml:"points_spent"`
	Status      RedemptionStatus `json:"status"              yaml:"status"`
	RedeemedAt  time.Time        `json:"redeemed_at,omitzero" yaml:"redeemed_at,omitempty"`
}

// View returns the output form of r.
func (r *Redemption) View() RedemptionView {
	return RedemptionView{
		ID:          r.ID().String(),
		MemberID:    relatedID(r.Member),
		RewardID:    relatedID(r.Reward),
		PointsSpent: r.PointsSpent,
		Status:      r.Status,
		RedeemedAt:  r.RedeemedAt,
	}
}

// TransactionView is the serialisable form of a PointsTransaction used for
// output.
type TransactionView struct {
	ID        string          `json:"id"                 yaml:"id"`
	MemberID  string          `json:"member_id"          yaml:"member_id"`
	Points    int64           `json:"points"             yaml:"points"`
	Kind      TransactionKind `json:"kind"               yaml:"kind"`
	Reason    string          `json:"reason,omitempty"   yaml:"reason,omitempty"`
	CreatedAt time.Time       `json:"created_at,omitzero" yaml:"created_at,omitempty"`
}

// View returns the output form of t.
func (t *PointsTransaction) View() TransactionView {
	return TransactionView{
		ID:        t.ID().String(),
		MemberID:  relatedID(t.Member),
		Points:    t.Points,
		Kind:      t.Kind,
		Reason:    t.Reason,
		CreatedAt: t.CreatedAt,
	}
}

func relatedID[M any, P jsonapi.ModelPtr[M]](model P) string {
	if model == nil {
		return ""
	}

	return model.ID().String()
}
