package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/GuyPaddock/json-service-framework-sub001/internal/constants"
	"github.com/GuyPaddock/json-service-framework-sub001/pkg/client"
	"github.com/GuyPaddock/json-service-framework-sub001/pkg/jsonapi"
	"github.com/GuyPaddock/json-service-framework-sub001/pkg/loyalty"
)

// NewMembersCommand creates the members command group.
func NewMembersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "members",
		Aliases: []string{"member", "m"},
		Short:   "Manage loyalty members",
		Long:    "List, inspect and enrol loyalty programme members",
	}

	cmd.AddCommand(newMembersListCommand())
	cmd.AddCommand(newMembersGetCommand())
	cmd.AddCommand(newMembersCreateCommand())

	return cmd
}

func newMembersListCommand() *cobra.Command {
	var (
		tier  string
		email string
		sort  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List members",
		Long:  "List members, optionally filtered by tier or email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			params := client.NewQueryParams()

			if tier != "" {
				if !loyalty.Tier(tier).Valid() {
					return fmt.Errorf("%w: %s", ErrUnknownTier, tier)
				}

				params.WithFilter("tier", tier)
			}

			if email != "" {
				params.WithFilter("email", email)
			}

			if sort != "" {
				params.WithSort(sort)
			}

			pages, err := c.Members().List(params)
			if err != nil {
				return err
			}

			members, err := pages.Collect(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list members: %w", err)
			}

			views := make([]loyalty.MemberView, 0, len(members))
			for _, member := range members {
				views = append(views, member.View())
			}

			return renderList(cmd, views, "No members found", func(table *tablewriter.Table) error {
				table.Header("ID", "Email", "Name", "Tier", "Points", "Joined")

				for _, m := range views {
					err := table.Append(m.ID, m.Email, m.DisplayName, title(string(m.Tier)),
						strconv.FormatInt(m.PointsBalance, 10), formatTime(m.JoinedAt))
					if err != nil {
						return err
					}
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&tier, "tier", "", "filter by tier (bronze, silver, gold, platinum)")
	cmd.Flags().StringVar(&email, "email", "", "filter by email")
	cmd.Flags().StringVar(&sort, "sort", "", "sort fields, e.g. -pointsBalance")

	return cmd
}

func newMembersGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get MEMBER_ID",
		Short: "Get member details",
		Long:  "Display a member and their points balance",
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

			member, err := c.Members().Get(cmd.Context(), id, nil)
			if err != nil {
				return fmt.Errorf("failed to get member: %w", err)
			}

			return renderMember(cmd, member.View())
		},
	}
}

func newMembersCreateCommand() *cobra.Command {
	var (
		email string
		name  string
		tier  string
		tags  []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Enrol a member",
		Long:  "Enrol a new member in the loyalty programme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return constants.ErrEmailRequired
			}

			if !loyalty.Tier(tier).Valid() {
				return fmt.Errorf("%w: %s", ErrUnknownTier, tier)
			}

			member, err := loyalty.NewMemberBuilder().
				Email(email).
				DisplayName(name).
				Tier(loyalty.Tier(tier)).
				JoinedAt(time.Now().UTC().Truncate(time.Second)).
				Tags(tags...).
				Build()
			if err != nil {
				return err
			}

			c, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			created, err := c.Members().Create(cmd.Context(), member)
			if err != nil {
				return fmt.Errorf("failed to create member: %w", err)
			}

			return renderMember(cmd, created.View())
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "member email (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&tier, "tier", string(loyalty.TierBronze), "initial tier")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag to attach (repeatable)")

	return cmd
}

func renderMember(cmd *cobra.Command, m loyalty.MemberView) error {
	return render(cmd, m, func(table *tablewriter.Table) error {
		table.Header("Property", "Value")

		return table.Bulk([][]string{
			{"ID", m.ID},
			{"Email", m.Email},
			{"Name", m.DisplayName},
			{"Tier", title(string(m.Tier))},
			{"Points", strconv.FormatInt(m.PointsBalance, 10)},
			{"Joined", formatTime(m.JoinedAt)},
		})
	})
}

func parseID(value string) (jsonapi.Identifier, error) {
	if value == "" {
		return nil, constants.ErrIDRequired
	}

	return jsonapi.ParseIdentifier(value)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Local().Format(timeLayout)
}
