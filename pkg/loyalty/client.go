package loyalty

import (
	"context"
	"fmt"
	"time"

	"github.com/GuyPaddock/json-service-framework-sub001/pkg/client"
	"github.com/GuyPaddock/json-service-framework-sub001/pkg/jsonapi"
)

// Client is a typed client for the loyalty service.
type Client struct {
	api          *client.Client
	members      *client.ResourceClient[Member, *Member]
	rewards      *client.ResourceClient[Reward, *Reward]
	redemptions  *client.ResourceClient[Redemption, *Redemption]
	transactions *client.ResourceClient[PointsTransaction, *PointsTransaction]
	now          func() time.Time
}

// DefaultCachingPolicy caches GET responses except the points ledger,
// which changes with every earn and redeem.
func DefaultCachingPolicy() *client.CachingPolicy {
	policy := client.DefaultCachingPolicy()
	policy.ExcludePaths = []string{PathTransactions}

	return policy
}

// New creates a loyalty client. A nil CachingPolicy in config selects
// DefaultCachingPolicy; config itself is not modified.
func New(config *client.Config) (*Client, error) {
	if config == nil {
		return nil, client.ErrConfigRequired
	}

	cfg := *config
	if cfg.CachingPolicy == nil {
		cfg.CachingPolicy = DefaultCachingPolicy()
	}

	api, err := client.New(&cfg)
	if err != nil {
		return nil, err
	}

	return NewFromClient(api), nil
}

// NewFromClient wraps an existing service client.
func NewFromClient(api *client.Client) *Client {
	return &Client{
		api:          api,
		members:      client.NewResourceClient[Member](api, PathMembers),
		rewards:      client.NewResourceClient[Reward](api, PathRewards),
		redemptions:  client.NewResourceClient[Redemption](api, PathRedemptions),
		transactions: client.NewResourceClient[PointsTransaction](api, PathTransactions),
		now:          time.Now,
	}
}

// API returns the underlying service client.
func (c *Client) API() *client.Client {
	return c.api
}

// Close releases the response cache.
func (c *Client) Close() error {
	return c.api.Close()
}

func (c *Client) Members() *client.ResourceClient[Member, *Member] {
	return c.members
}

func (c *Client) Rewards() *client.ResourceClient[Reward, *Reward] {
	return c.rewards
}

func (c *Client) Redemptions() *client.ResourceClient[Redemption, *Redemption] {
	return c.redemptions
}

func (c *Client) Transactions() *client.ResourceClient[PointsTransaction, *PointsTransaction] {
	return c.transactions
}

// FindMemberByEmail looks a member up with a server-side filter.
func (c *Client) FindMemberByEmail(ctx context.Context, email string) (*Member, error) {
	params := client.NewQueryParams().WithFilter("email", email).WithPageSize(1)

	page, err := c.members.Page(ctx, params, 1)
	if err != nil {
		return nil, err
	}

	if len(page.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, email)
	}

	return page.Items[0], nil
}

// MemberRedemptions lists the redemptions of member.
func (c *Client) MemberRedemptions(member *Member, params *client.QueryParams) (*jsonapi.PagedCollection[*Redemption], error) {
	params, err := forMember(member, params)
	if err != nil {
		return nil, err
	}

	return c.redemptions.List(params)
}

// MemberTransactions lists the ledger entries of member.
func (c *Client) MemberTransactions(member *Member, params *client.QueryParams) (*jsonapi.PagedCollection[*PointsTransaction], error) {
	params, err := forMember(member, params)
	if err != nil {
		return nil, err
	}

	return c.transactions.List(params)
}

// RedeemReward spends the member's points on reward. The current member
// balance and reward stock are read from the service, bypassing the
// response cache, before the redemption is created.
func (c *Client) RedeemReward(ctx context.Context, member *Member, reward *Reward) (*Redemption, error) {
	if member == nil || reward == nil {
		return nil, fmt.Errorf("redeem reward: %w", jsonapi.ErrNilArgument)
	}

	err := requirePersisted(member, reward)
	if err != nil {
		return nil, err
	}

	c.forget(ctx, PathMembers+"/"+member.ID().String(), PathRewards+"/"+reward.ID().String())

	current, err := c.rewards.Get(ctx, reward.ID(), nil)
	if err != nil {
		return nil, err
	}

	if !current.InStock() {
		return nil, fmt.Errorf("%w: %s", ErrRewardUnavailable, current.Name)
	}

	holder, err := c.members.Get(ctx, member.ID(), nil)
	if err != nil {
		return nil, err
	}

	if holder.PointsBalance < current.PointsCost {
		return nil, fmt.Errorf("%w: %d available, %d required",
			ErrInsufficientPoints, holder.PointsBalance, current.PointsCost)
	}

	redemption, err := NewRedemptionBuilder().
		Member(member).
		Reward(reward).
		PointsSpent(current.PointsCost).
		Status(RedemptionPending).
		RedeemedAt(c.now().UTC()).
		Build()
	if err != nil {
		return nil, err
	}

	created, err := c.redemptions.Create(ctx, redemption)
	if err != nil {
		return nil, err
	}

	c.forget(ctx, PathMembers, PathRewards)

	c.api.Logger().Info("Reward redeemed", map[string]interface{}{
		"member": member.ID().String(),
		"reward": reward.ID().String(),
		"points": current.PointsCost,
	})

	return created, nil
}

// AwardPoints credits points to member.
func (c *Client) AwardPoints(ctx context.Context, member *Member, points int64, reason string) (*PointsTransaction, error) {
	if member == nil {
		return nil, fmt.Errorf("award points: %w", jsonapi.ErrNilArgument)
	}

	if points <= 0 {
		return nil, ErrInvalidPoints
	}

	err := requirePersisted(member)
	if err != nil {
		return nil, err
	}

	tx, err := NewTransactionBuilder().
		Member(member).
		Points(points).
		Kind(TransactionEarn).
		Reason(reason).
		CreatedAt(c.now().UTC()).
		Build()
	if err != nil {
		return nil, err
	}

	created, err := c.transactions.Create(ctx, tx)
	if err != nil {
		return nil, err
	}

	c.forget(ctx, PathMembers)

	return created, nil
}

// forget drops cached responses whose balances or stock the service
// changes as a side effect of a write.
func (c *Client) forget(ctx context.Context, paths ...string) {
	cache := c.api.CacheManager()
	if cache == nil {
		return
	}

	for _, path := range paths {
		_, err := cache.InvalidatePath(ctx, path)
		if err != nil {
			c.api.Logger().Warn("Failed to invalidate cached responses", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}
	}
}

func forMember(member *Member, params *client.QueryParams) (*client.QueryParams, error) {
	if member == nil {
		return nil, fmt.Errorf("member: %w", jsonapi.ErrNilArgument)
	}

	err := requirePersisted(member)
	if err != nil {
		return nil, err
	}

	return params.Clone().WithFilter("member", member.ID().String()), nil
}

func requirePersisted(models ...jsonapi.Model) error {
	for _, model := range models {
		if model.IsNew() {
			return jsonapi.ErrIdentifierRequired
		}
	}

	return nil
}
