package cmd

import (
	"fmt"
	"strings"

	"social-explore-client/internal/session"
	"social-explore-client/internal/workflows"

	"github.com/spf13/cobra"
)

func newLoginCommand() *cobra.Command {
	var email, password string
	c := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Shutdown()

			sess, err := a.Session.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", sess.DisplayName, sess.Email)
			return nil
		},
	}
	c.Flags().StringVar(&email, "email", "", "account email")
	c.Flags().StringVar(&password, "password", "", "account password")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("password")
	return c
}

func newRegisterCommand() *cobra.Command {
	var r session.Registration
	c := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Shutdown()

			sess, err := workflows.NewRegistrationForm(a.Session).Submit(cmd.Context(), r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", sess.DisplayName)
			return nil
		},
	}
	c.Flags().StringVar(&r.Name, "name", "", "display name")
	c.Flags().StringVar(&r.Email, "email", "", "account email")
	c.Flags().StringVar(&r.Password, "password", "", "password, at least 6 characters")
	c.Flags().StringVar(&r.ConfirmPassword, "confirm", "", "password again")
	return c
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Shutdown()

			a.Session.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openAuthenticated(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Shutdown()

			user, err := a.Session.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s> (id %d)\n", user.Name, user.Email, user.ID)
			fmt.Fprintf(out, "bio:        %s\n", valueOr(user.Bio, "-"))
			fmt.Fprintf(out, "interests:  %s\n", strings.Join(user.Interests, ", "))
			fmt.Fprintf(out, "radius:     %d km\n", user.VisibilityRadiusKm)
			if home, ok := user.HomeLocation(); ok {
				fmt.Fprintf(out, "location:   %.5f, %.5f\n", home.Latitude, home.Longitude)
			}
			fmt.Fprintf(out, "activities: %d created, %d joined, %d friends\n",
				user.CreatedActivitiesCount, user.ParticipationsCount, user.FriendsCount)
			return nil
		},
	}
}

func newProfileCommand() *cobra.Command {
	var (
		name, bio string
		add, drop []string
		radius    int
	)
	c := &cobra.Command{
		Use:   "profile",
		Short: "Update the profile",
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

			editor := a.Profile
			if err := a.OpenProfile(cmd.Context()); err != nil {
				return err
			}
			if cmd.Flags().Changed("name") {
				editor.SetName(name)
			}
			if cmd.Flags().Changed("bio") {
				editor.SetBio(bio)
			}
			if cmd.Flags().Changed("radius") {
				editor.SetRadius(radius)
			}
			for _, interest := range add {
				editor.AddInterest(interest)
			}
			for _, interest := range drop {
				editor.RemoveInterest(interest)
			}
			if loc != nil {
				if err := a.Map.HandleClick(cmd.Context(), *loc); err != nil {
					return err
				}
			}

			if err := editor.Save(cmd.Context()); err != nil {
				return err
			}
			form := editor.Form()
			fmt.Fprintf(cmd.OutOrStdout(), "Profile saved: %s, %d km, interests [%s]\n",
				form.Name, form.VisibilityRadiusKm, strings.Join(form.Interests, ", "))
			return nil
		},
	}
	c.Flags().StringVar(&name, "name", "", "display name")
	c.Flags().StringVar(&bio, "bio", "", "short bio")
	c.Flags().StringSliceVar(&add, "add-interest", nil, "interest to add (repeatable)")
	c.Flags().StringSliceVar(&drop, "remove-interest", nil, "interest to remove (repeatable)")
	c.Flags().IntVar(&radius, "radius", 0, "visibility radius in km")
	addCoordinateFlags(c, "home location")
	return c
}
