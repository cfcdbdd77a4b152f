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

// NewTransactionsCommand creates the transactions command group.
func NewTransactionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx", "ledger"},
		Short:   "Inspect the points ledger",
		Long:    "List points transactions and award points to members",
	}

	cmd.AddCommand(newTransactionsListCommand())
	cmd.AddCommand(newAwardCommand())

	return cmd
}

func newTransactionsListCommand() *cobra.Command {
	var (
		memberID string
		kind     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List points transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			params := client.NewQueryParams().WithSort("-createdAt")
			if kind != "" {
				params.WithFilter("kind", kind)
			}

			var pages *jsonapi.PagedCollection[*loyalty.PointsTransaction]

			if memberID != "" {
				member, err := shallowMember(memberID)
				if err != nil {
					return err
				}

				pages, err = c.MemberTransactions(member, params)
				if err != nil {
					return err
				}
			} else {
				pages, err = c.Transactions().List(params)
				if err != nil {
					return err
				}
			}

			ledger, err := pages.Collect(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			views := make([]loyalty.TransactionView, 0, len(ledger))
			for _, tx := range ledger {
				views = append(views, tx.View())
			}

			return renderList(cmd, views, "No transactions found", func(table *tablewriter.Table) error {
				table.Header("ID", "Member", "Points", "Kind", "Reason", "Created")

				for _, tx := range views {
					err := table.Append(tx.ID, tx.MemberID, strconv.FormatInt(tx.Points, 10),
						string(tx.Kind), tx.Reason, formatTime(tx.CreatedAt))
					if err != nil {
						return err
					}
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&memberID, "member", "", "only transactions of this member")
	cmd.Flags().StringVar(&kind, "kind", "", "filter by kind (earn, redeem, adjust, expire)")

	return cmd
}

func newAwardCommand() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "award MEMBER_ID POINTS",
		Short: "Award points to a member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			member, err := shallowMember(args[0])
			if err != nil {
				return err
			}

			points, err := parsePositive(args[1])
			if err != nil {
				return err
			}

			c, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			tx, err := c.AwardPoints(cmd.Context(), member, int64(points), reason)
			if err != nil {
				return fmt.Errorf("failed to award points: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Awarded %d points to member %s (transaction %s)\n",
				tx.Points, args[0], tx.ID())

			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded in the ledger")

	return cmd
}
