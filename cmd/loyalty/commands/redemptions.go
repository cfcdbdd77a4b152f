package commands

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/GuyPaddock/json-service-framework-sub001/pkg/client"
	"github.com/GuyPaddock/json-service-framework-sub001/pkg/jsonapi"
	"github.com/GuyPaddock/json-service-framework-sub001/pkg/loyalty"
)

// NewRedemptionsCommand creates the redemptions command group.
func NewRedemptionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "redemptions",
		Aliases: []string{"redemption"},
		Short:   "Manage reward redemptions",
		Long:    "List redemptions and redeem rewards on behalf of members",
	}

	cmd.AddCommand(newRedemptionsListCommand())
	cmd.AddCommand(newRedeemCommand())

	return cmd
}

func newRedemptionsListCommand() *cobra.Command {
	var (
		memberID string
		status   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List redemptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			params := client.NewQueryParams()
			if status != "" {
				params.WithFilter("status", status)
			}

			var pages *jsonapi.PagedCollection[*loyalty.Redemption]

			if memberID != "" {
				member, err := shallowMember(memberID)
				if err != nil {
					return err
				}

				pages, err = c.MemberRedemptions(member, params)
				if err != nil {
					return err
				}
			} else {
				pages, err = c.Redemptions().List(params)
				if err != nil {
					return err
				}
			}

			redemptions, err := pages.Collect(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list redemptions: %w", err)
			}

			views := make([]loyalty.RedemptionView, 0, len(redemptions))
			for _, r := range redemptions {
				views = append(views, r.View())
			}

			return renderList(cmd, views, "No redemptions found", func(table *tablewriter.Table) error {
				table.Header("ID", "Member", "Reward", "Points", "Status", "Redeemed")

				for _, r := range views {
					err := table.Append(r.ID, r.MemberID, r.RewardID, strconv.FormatInt(r.PointsSpent, 10),
						string(r.Status), formatTime(r.RedeemedAt))
					if err != nil {
						return err
					}
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&memberID, "member", "", "only redemptions of this member")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (pending, fulfilled, cancelled)")

	return cmd
}

func newRedeemCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "redeem MEMBER_ID REWARD_ID",
		Short: "Redeem a reward for a member",
		Long:  "Spend a member's points on a reward after checking balance and stock",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			member, err := shallowMember(args[0])
			if err != nil {
				return err
			}

			rewardID, err := parseID(args[1])
			if err != nil {
				return err
			}

			reward, err := loyalty.NewRewardBuilder().ID(rewardID).BuildShallow()
			if err != nil {
				return err
			}

			c, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			redemption, err := c.RedeemReward(cmd.Context(), member, reward)
			if err != nil {
				return fmt.Errorf("failed to redeem reward: %w", err)
			}

			r := redemption.View()

			return render(cmd, r, func(table *tablewriter.Table) error {
				table.Header("Property", "Value")

				return table.Bulk([][]string{
					{"ID", r.ID},
					{"Member", r.MemberID},
					{"Reward", r.RewardID},
					{"Points", strconv.FormatInt(r.PointsSpent, 10)},
					{"Status", string(r.Status)},
				})
			})
		},
	}
}

func shallowMember(value string) (*loyalty.Member, error) {
	id, err := parseID(value)
	if err != nil {
		return nil, err
	}

	return loyalty.NewMemberBuilder().ID(id).BuildShallow()
}
