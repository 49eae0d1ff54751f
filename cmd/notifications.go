package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"social-explore-client/internal/notifications"

	"github.com/spf13/cobra"
)

func newNotificationsCommand() *cobra.Command {
	list := func(cmd *cobra.Command, _ []string) error {
		a, err := openAuthenticated(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Shutdown()

		ctx := cmd.Context()
		if err := a.Notifications.RefreshCount(ctx); err != nil {
			return err
		}
		if err := a.Notifications.Open(ctx); err != nil {
			return err
		}
		state := a.Notifications.Snapshot()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d unread, %d pending requests\n", state.Count, state.Pending)
		if len(state.Notifications) == 0 {
			return nil
		}
		now := time.Now()
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tMESSAGE\tWHEN")
		for _, n := range state.Notifications {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", n.ID, n.Type, n.Message, notifications.Age(n.CreatedAt, now))
		}
		return w.Flush()
	}

	c := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "List and acknowledge notifications",
		RunE:    list,
	}

	c.AddCommand(
		&cobra.Command{Use: "list", Short: "List notifications", RunE: list},
		&cobra.Command{
			Use:   "read <notification-id>",
			Short: "Mark one notification as read",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0], "notification id")
				if err != nil {
					return err
				}
				a, err := openAuthenticated(cmd.Context())
				if err != nil {
					return err
				}
				defer a.Shutdown()

				ctx := cmd.Context()
				if err := a.Notifications.Open(ctx); err != nil {
					return err
				}
				for _, n := range a.Notifications.Snapshot().Notifications {
					if n.ID != id {
						continue
					}
					if err := a.Notifications.MarkRead(ctx, n); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Marked as read, %d unread left\n", a.Notifications.Count())
					return nil
				}
				return fmt.Errorf("no unread notification #%d", id)
			},
		},
		&cobra.Command{
			Use:   "read-all",
			Short: "Mark every notification as read",
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := openAuthenticated(cmd.Context())
				if err != nil {
					return err
				}
				defer a.Shutdown()

				ctx := cmd.Context()
				if err := a.Notifications.Open(ctx); err != nil {
					return err
				}
				total := len(a.Notifications.Snapshot().Notifications)
				failed, err := a.Notifications.MarkAllRead(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %d of %d notifications as read\n", total-failed, total)
				return nil
			},
		},
	)
	return c
}
