package commands

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/GuyPaddock/json-service-framework-sub001/pkg/client"
	"github.com/GuyPaddock/json-service-framework-sub001/pkg/loyalty"
)

// NewRewardsCommand creates the rewards command group.
func NewRewardsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rewards",
		Aliases: []string{"reward", "r"},
		Short:   "Browse the reward catalogue",
		Long:    "List and inspect rewards members can redeem points for",
	}

	cmd.AddCommand(newRewardsListCommand())
	cmd.AddCommand(newRewardsGetCommand())

	return cmd
}

func newRewardsListCommand() *cobra.Command {
	var (
		available bool
		maxCost   int64
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rewards",
		Long:  "List rewards, optionally only those available or within a points budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			params := client.NewQueryParams()
			if available {
				params.WithFilter("available", "true")
			}

			pages, err := c.Rewards().List(params)
			if err != nil {
				return err
			}

			views := make([]loyalty.RewardView, 0)

			for reward := range pages.All(cmd.Context()) {
				if maxCost > 0 && reward.PointsCost > maxCost {
					continue
				}

				views = append(views, reward.View())
			}

			return renderList(cmd, views, "No rewards found", func(table *tablewriter.Table) error {
				table.Header("ID", "Name", "Cost", "Available", "Stock")

				for _, r := range views {
					err := table.Append(r.ID, r.Name, strconv.FormatInt(r.PointsCost, 10),
						strconv.FormatBool(r.Available), strconv.Itoa(r.Stock))
					if err != nil {
						return err
					}
				}

				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&available, "available", false, "only rewards that can be redeemed")
	cmd.Flags().Int64Var(&maxCost, "max-cost", 0, "only rewards costing at most this many points")

	return cmd
}

func newRewardsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get REWARD_ID",
		Short: "Get reward details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			c, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			reward, err := c.Rewards().Get(cmd.Context(), id, nil)
			if err != nil {
				return fmt.Errorf("failed to get reward: %w", err)
			}

			r := reward.View()

			return render(cmd, r, func(table *tablewriter.Table) error {
				table.Header("Property", "Value")

				return table.Bulk([][]string{
					{"ID", r.ID},
					{"Name", r.Name},
					{"Description", r.Description},
					{"Cost", strconv.FormatInt(r.PointsCost, 10)},
					{"Available", strconv.FormatBool(r.Available)},
					{"Stock", strconv.Itoa(r.Stock)},
				})
			})
		},
	}
}
