package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"social-explore-client/internal/app"
	"social-explore-client/internal/feed"
	"social-explore-client/internal/geo"
	"social-explore-client/internal/models"
	"social-explore-client/internal/workflows"

	"github.com/spf13/cobra"
)

func newNearbyCommand() *cobra.Command {
	var category, radius string
	c := &cobra.Command{
		Use:   "nearby",
		Short: "List activities around you",
		RunE: func(cmd *cobra.Command, _ []string) error {
			center, err := coordinateFlags(cmd)
			if err != nil {
				return err
			}
			cat := models.Category(category)
			if cat != "" && !cat.Valid() {
				return fmt.Errorf("unknown category %q", category)
			}

			a, err := openAuthenticated(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Shutdown()

			ctx := cmd.Context()
			// no center yet, so this only stores the filters
			if _, err := a.Feed.SetFilters(ctx, feed.Filters{Category: cat, MaxDistance: radius}); err != nil {
				return err
			}

			var activities []models.Activity
			if center == nil {
				// resolving the location refreshes the feed
				loc, err := locate(ctx, a)
				if err != nil {
					return err
				}
				center = &loc
				activities = a.Feed.Activities()
			} else if activities, err = a.Feed.SetCenter(ctx, *center); err != nil {
				return err
			}
			q, _ := a.Feed.Query()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d activities within %.1f km\n", len(activities), q.RadiusKm)
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tSTARTS\tDISTANCE\tPEOPLE")
			for _, act := range activities {
				people := fmt.Sprintf("%d", act.ParticipantsCount)
				if act.MaxPeople != nil {
					people = fmt.Sprintf("%d/%d", act.ParticipantsCount, *act.MaxPeople)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.1f km\t%s\n",
					act.ID, act.Title, act.Category,
					act.StartTime.Local().Format("02.01 15:04"),
					geo.DistanceKm(*center, act.Location()), people)
			}
			return w.Flush()
		},
	}
	c.Flags().StringVar(&category, "category", "", "sport, food, games, volunteer or other")
	c.Flags().StringVar(&radius, "radius", "", "search radius in km")
	addCoordinateFlags(c, "search center")
	return c
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <activity-id>",
		Short: "Show an activity with its requests and chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "activity id")
			if err != nil {
				return err
			}
			a, err := openAuthenticated(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Shutdown()

			details, err := openDetails(cmd, a, id)
			if err != nil {
				return err
			}
			defer details.Close()

			act := details.Activity()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "#%d %s [%s]\n", act.ID, act.Title, act.Category)
			fmt.Fprintf(out, "by %s, starts %s\n", valueOr(act.CreatorName, "unknown"), act.StartTime.Local().Format(time.DateTime))
			if act.EndTime != nil {
				fmt.Fprintf(out, "ends %s\n", act.EndTime.Local().Format(time.DateTime))
			}
			if d := valueOr(act.Description, ""); d != "" {
				fmt.Fprintln(out, d)
			}
			if p := details.Participation(); p != nil {
				fmt.Fprintf(out, "your request: %s\n", p.Status)
			}
			if details.IsCreator() {
				fmt.Fprintln(out, "\nRequests:")
				for _, r := range details.Requests() {
					fmt.Fprintf(out, "  #%d %s %s\n", r.ID, valueOr(r.UserName, fmt.Sprintf("user %d", r.UserID)), r.Status)
				}
			}
			if details.CanChat() {
				if err := details.LoadMessages(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(out, "\nChat:")
				for _, m := range details.Messages() {
					fmt.Fprintf(out, "  [%s] %s: %s\n", m.CreatedAt.Local().Format("15:04"),
						valueOr(m.SenderName, fmt.Sprintf("user %d", m.SenderID)), m.Text)
				}
			}
			return nil
		},
	}
}

func newCreateActivityCommand() *cobra.Command {
	var draft workflows.ActivityDraft
	var category string
	var private bool
	c := &cobra.Command{
		Use:   "create-activity",
		Short: "Create an activity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc, err := coordinateFlags(cmd)
			if err != nil {
				return err
			}
			a, err := openAuthenticated(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Shutdown()

			ctx := cmd.Context()
			if loc == nil {
				a.Map.Init(ctx)
			}
			a.OpenActivityForm()
			if loc != nil {
				if err := a.Map.HandleClick(ctx, *loc); err != nil {
					return err
				}
			}

			draft.Category = models.Category(category)
			draft.IsPublic = !private
			a.ActivityForm.SetDraft(draft)

			act, err := a.ActivityForm.Submit(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created activity #%d %q\n", act.ID, act.Title)
			return nil
		},
	}
	c.Flags().StringVar(&draft.Title, "title", "", "title")
	c.Flags().StringVar(&draft.Description, "description", "", "description")
	c.Flags().StringVar(&category, "category", string(models.CategorySport), "sport, food, games, volunteer or other")
	c.Flags().StringVar(&draft.StartTime, "start", "", "start, e.g. 2026-05-10T18:00")
	c.Flags().StringVar(&draft.EndTime, "end", "", "optional end")
	c.Flags().StringVar(&draft.MaxPeople, "max-people", "", "optional participant limit")
	c.Flags().BoolVar(&private, "private", false, "hide the activity from public listings")
	addCoordinateFlags(c, "activity; defaults to your location")
	return c
}

func newDeleteActivityCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-activity <activity-id>",
		Short: "Delete an activity you created",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "activity id")
			if err != nil {
				return err
			}
			a, err := openAuthenticated(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Shutdown()

			details, err := openDetails(cmd, a, id)
			if err != nil {
				return err
			}
			if !details.IsCreator() {
				details.Close()
				return fmt.Errorf("activity #%d was created by someone else", id)
			}
			if err := details.Delete(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted activity #%d\n", id)
			return nil
		},
	}
}

func newJoinCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "join <activity-id>",
		Short: "Ask to join an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "activity id")
			if err != nil {
				return err
			}
			a, err := openAuthenticated(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Shutdown()

			details, err := openDetails(cmd, a, id)
			if err != nil {
				return err
			}
			defer details.Close()

			if err := details.Join(cmd.Context()); err != nil {
				return err
			}
			status := "requested"
			if p := details.Participation(); p != nil {
				status = string(p.Status)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Joined activity #%d: %s\n", id, status)
			return nil
		},
	}
}

func newMessageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "message <activity-id> <text>...",
		Short: "Post to an activity chat",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "activity id")
			if err != nil {
				return err
			}
			a, err := openAuthenticated(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Shutdown()

			details, err := openDetails(cmd, a, id)
			if err != nil {
				return err
			}
			defer details.Close()

			if !details.CanChat() {
				return fmt.Errorf("only the creator and accepted participants can chat")
			}
			if err := details.SendMessage(cmd.Context(), strings.Join(args[1:], " ")); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent (%d messages in chat)\n", len(details.Messages()))
			return nil
		},
	}
}

func newParticipationCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "participation",
		Short: "Answer requests to join your activities",
	}
	answers := []struct {
		verb   string
		status models.ParticipationStatus
	}{
		{"accept", models.ParticipationAccepted},
		{"reject", models.ParticipationRejected},
	}
	for _, answer := range answers {
		verb, status := answer.verb, answer.status
		c.AddCommand(&cobra.Command{
			Use:   verb + " <activity-id> <participation-id>",
			Short: "Mark a participation request as " + string(status),
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				activityID, err := parseID(args[0], "activity id")
				if err != nil {
					return err
				}
				participationID, err := parseID(args[1], "participation id")
				if err != nil {
					return err
				}
				a, err := openAuthenticated(cmd.Context())
				if err != nil {
					return err
				}
				defer a.Shutdown()

				details, err := openDetails(cmd, a, activityID)
				if err != nil {
					return err
				}
				defer details.Close()

				if err := details.UpdateParticipation(cmd.Context(), participationID, status); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Request #%d %s\n", participationID, status)
				return nil
			},
		})
	}
	return c
}

func newRouteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "route <activity-id>",
		Short: "Show the way from your location to an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "activity id")
			if err != nil {
				return err
			}
			a, err := openAuthenticated(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Shutdown()

			out := cmd.OutOrStdout()
			a.OnNotice = func(msg string) { fmt.Fprintln(out, msg) }

			ctx := cmd.Context()
			if _, err := locate(ctx, a); err != nil {
				return err
			}
			act, err := a.Activities.Get(ctx, id)
			if err != nil {
				return err
			}
			info, err := a.Map.ShowRoute(ctx, act)
			if err != nil {
				return err
			}

			route := info.Route
			fmt.Fprintf(out, "To %q: %.2f km", act.Title, route.DistanceKm)
			if route.TravelMinutes != nil {
				fmt.Fprintf(out, ", about %d min", *route.TravelMinutes)
			}
			fmt.Fprintln(out)
			for i, step := range route.Directions {
				fmt.Fprintf(out, "%2d. %s (%.2f km)\n", i+1, step.Text, step.LengthKm)
			}
			return nil
		},
	}
}

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show community and personal statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openAuthenticated(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Shutdown()

			if err := a.OpenDashboard(cmd.Context()); err != nil {
				return err
			}
			g, p := a.Dashboard.General(), a.Dashboard.Personal()
			if g == nil || p == nil {
				return fmt.Errorf("%s", a.Dashboard.Error())
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Community: %d activities, %d users, %d participations\n",
				g.TotalActivities, g.TotalUsers, g.TotalParticipations)
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, c := range g.Categories {
				fmt.Fprintf(w, "  %s\t%d\n", c.Name, c.Count)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "You: %d created, %d accepted, %d pending, %d new friends in 3 months\n",
				p.CreatedActivities, p.AcceptedParticipations, p.PendingParticipations, p.NewFriendsLast3Months)
			for _, top := range p.TopActivities {
				fmt.Fprintf(out, "  %s\n", top.Title)
			}
			return nil
		},
	}
}

// openDetails selects an activity and returns its loaded details view
func openDetails(cmd *cobra.Command, a *app.App, id int64) (*workflows.ActivityDetails, error) {
	return a.OpenActivity(cmd.Context(), id)
}
