package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"social-explore-client/internal/app"
	"social-explore-client/internal/apperr"
	"social-explore-client/internal/config"
	"social-explore-client/internal/models"
	"social-explore-client/internal/session"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configPath    string
	sessionPolicy string
	policyFlagSet bool
	logLevel      string
)

// Run executes the CLI and exits non-zero on failure
func Run() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "socialexplore",
		Short:         "Command line client for SocialExplore",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			policyFlagSet = cmd.Flags().Changed("session-policy")
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the YAML configuration file")
	root.PersistentFlags().StringVar(&sessionPolicy, "session-policy", "",
		"what to do with a stored session on start: restore or discard (default restore, or session.startup_policy)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newLoginCommand(),
		newRegisterCommand(),
		newLogoutCommand(),
		newWhoamiCommand(),
		newProfileCommand(),
		newNearbyCommand(),
		newShowCommand(),
		newCreateActivityCommand(),
		newDeleteActivityCommand(),
		newJoinCommand(),
		newMessageCommand(),
		newParticipationCommand(),
		newRouteCommand(),
		newNotificationsCommand(),
		newFriendsCommand(),
		newStatsCommand(),
		newWatchCommand(),
	)

	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return fmt.Errorf("%w\n\n%s", err, c.UsageString())
	})
	wrapErrors(root)
	return root
}

// wrapErrors prints the user message of any error returned by a command
func wrapErrors(c *cobra.Command) {
	if run := c.RunE; run != nil {
		c.RunE = func(cmd *cobra.Command, args []string) error {
			err := run(cmd, args)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", apperr.UserMessage(err, err.Error()))
			}
			return err
		}
	}
	for _, child := range c.Commands() {
		wrapErrors(child)
	}
}

// cliDefaults restores the stored session unless the config file or the
// environment says otherwise, since every command runs in a new process
func cliDefaults(c *config.Config) {
	c.Session.StartupPolicy = config.PolicyRestore
}

// loadConfig reads the configuration and sets up the logger. An explicit
// --session-policy wins over the file and the environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath, cliDefaults)
	if err != nil {
		setupLogger("info")
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	setupLogger(cfg.Log.Level)

	if policyFlagSet {
		cfg.Session.StartupPolicy = sessionPolicy
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openApp builds the client and restores the session without starting any
// background work. The caller must Shutdown the returned app.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := app.New(cfg, session.NewFileTokenStore(cfg.Session.TokenFile))
	if err := a.Session.Init(ctx); err != nil {
		a.Shutdown()
		return nil, err
	}
	return a, nil
}

// openAuthenticated is openApp for commands that need a signed-in user
func openAuthenticated(ctx context.Context) (*app.App, error) {
	a, err := openApp(ctx)
	if err != nil {
		return nil, err
	}
	if !a.Session.Authenticated() {
		a.Shutdown()
		return nil, &apperr.AuthError{Detail: "Not logged in. Run \"socialexplore login\" first.", Err: apperr.ErrNotAuthenticated}
	}
	return a, nil
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.NewValidation(what, fmt.Sprintf("invalid %s %q", what, raw))
	}
	return id, nil
}

// coordinateFlags reads --lat/--lng. Both or neither must be set.
func coordinateFlags(c *cobra.Command) (*models.Coordinate, error) {
	latSet, lngSet := c.Flags().Changed("lat"), c.Flags().Changed("lng")
	if !latSet && !lngSet {
		return nil, nil
	}
	if latSet != lngSet {
		return nil, apperr.NewValidation("location", "--lat and --lng must be given together")
	}
	lat, _ := c.Flags().GetFloat64("lat")
	lng, _ := c.Flags().GetFloat64("lng")
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, apperr.NewValidation("location", "coordinates out of range")
	}
	return &models.Coordinate{Latitude: lat, Longitude: lng}, nil
}

func addCoordinateFlags(c *cobra.Command, what string) {
	c.Flags().Float64("lat", 0, "latitude of the "+what)
	c.Flags().Float64("lng", 0, "longitude of the "+what)
}

// locate resolves the user's location through the map surface
func locate(ctx context.Context, a *app.App) (models.Coordinate, error) {
	a.Map.Init(ctx)
	loc, ok := a.Map.UserLocation()
	if !ok {
		return models.Coordinate{}, errors.New("no location: set map.device_location, save a profile location or pass --lat/--lng")
	}
	return loc, nil
}

func valueOr(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}
