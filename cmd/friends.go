package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"social-explore-client/internal/models"
	"social-explore-client/internal/workflows"

	"github.com/spf13/cobra"
)

// withFriends opens the friends view on tab and runs fn against it
func withFriends(cmd *cobra.Command, tab workflows.Tab, fn func(ctx context.Context, f *workflows.FriendsList) error) error {
	a, err := openAuthenticated(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Shutdown()

	ctx := cmd.Context()
	if tab == workflows.TabSearch {
		a.Map.Init(ctx)
	}
	friends, err := a.OpenFriends(ctx, tab)
	if err != nil {
		return err
	}
	defer a.CloseFriends()
	return fn(ctx, friends)
}

func newFriendsCommand() *cobra.Command {
	list := func(cmd *cobra.Command, _ []string) error {
		return withFriends(cmd, workflows.TabFriends, func(_ context.Context, f *workflows.FriendsList) error {
			friends := f.Friends()
			out := cmd.OutOrStdout()
			if len(friends) == 0 {
				fmt.Fprintln(out, "No friends yet")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tINTERESTS")
			for _, u := range friends {
				fmt.Fprintf(w, "%d\t%s\t%s\n", u.ID, u.Name, strings.Join(u.Interests, ", "))
			}
			return w.Flush()
		})
	}

	c := &cobra.Command{
		Use:   "friends",
		Short: "List friends and manage friend requests",
		RunE:  list,
	}

	c.AddCommand(
		&cobra.Command{Use: "list", Short: "List friends", RunE: list},
		&cobra.Command{
			Use:   "requests",
			Short: "Show received and sent friend requests",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withFriends(cmd, workflows.TabReceived, func(_ context.Context, f *workflows.FriendsList) error {
					out := cmd.OutOrStdout()
					fmt.Fprintln(out, "Received:")
					printRequests(out, f.Received(), func(r models.FriendRequest) string {
						return valueOr(r.FromUserName, fmt.Sprintf("user %d", r.FromUserID))
					})
					fmt.Fprintln(out, "Sent:")
					printRequests(out, f.Sent(), func(r models.FriendRequest) string {
						return valueOr(r.ToUserName, fmt.Sprintf("user %d", r.ToUserID))
					})
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "search",
			Short: "Find people near you",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withFriends(cmd, workflows.TabSearch, func(ctx context.Context, f *workflows.FriendsList) error {
					results := f.Results()
					if len(results) == 0 {
						var err error
						if results, err = f.Search(ctx); err != nil {
							return err
						}
					}
					w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "ID\tNAME\tDISTANCE\tSTATUS\tINTERESTS")
					for _, u := range results {
						distance := "-"
						if u.DistanceKm != nil {
							distance = fmt.Sprintf("%.1f km", *u.DistanceKm)
						}
						fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Name, distance,
							f.Relationship(u.ID), strings.Join(u.Interests, ", "))
					}
					return w.Flush()
				})
			},
		},
		friendActionCommand("add <user-id>", "Send a friend request", "user id",
			(*workflows.FriendsList).SendRequest, "Friend request sent"),
		friendActionCommand("accept <request-id>", "Accept a friend request", "request id",
			(*workflows.FriendsList).Accept, "Friend request accepted"),
		friendActionCommand("reject <request-id>", "Reject a friend request", "request id",
			(*workflows.FriendsList).Reject, "Friend request rejected"),
		friendActionCommand("remove <user-id>", "Remove a friend", "user id",
			(*workflows.FriendsList).Remove, "Friend removed"),
	)
	return c
}

func friendActionCommand(use, short, what string, action func(*workflows.FriendsList, context.Context, int64) error, done string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], what)
			if err != nil {
				return err
			}
			return withFriends(cmd, workflows.TabFriends, func(ctx context.Context, f *workflows.FriendsList) error {
				if err := action(f, ctx, id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), done)
				return nil
			})
		},
	}
}

func printRequests(out io.Writer, requests []models.FriendRequest, who func(models.FriendRequest) string) {
	if len(requests) == 0 {
		fmt.Fprintln(out, "  none")
		return
	}
	for _, r := range requests {
		fmt.Fprintf(out, "  #%d %s (%s)\n", r.ID, who(r), r.CreatedAt.Local().Format("02.01.2006"))
	}
}
