package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"social-explore-client/internal/app"
	"social-explore-client/internal/models"
	"social-explore-client/internal/notifications"
	"social-explore-client/internal/observability"
	"social-explore-client/internal/session"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stay signed in and follow notifications until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a := app.New(cfg, session.NewFileTokenStore(cfg.Session.TokenFile))
			out := cmd.OutOrStdout()
			a.OnNotice = func(msg string) { fmt.Fprintln(out, msg) }

			var last atomic.Int64
			last.Store(-1)
			a.Notifications.OnChange(func(s notifications.State) {
				if last.Swap(int64(s.Count)) == int64(s.Count) {
					return
				}
				fmt.Fprintf(out, "[%s] %d unread notifications, %d pending requests\n",
					time.Now().Format("15:04:05"), s.Count, s.Pending)
			})
			a.Session.Subscribe(func(sess *models.Session) {
				if sess == nil {
					log.Warn().Msg("Session ended, notifications paused")
				}
			})

			if err := a.Start(cmd.Context()); err != nil {
				a.Shutdown()
				return err
			}
			if !a.Session.Authenticated() {
				a.Shutdown()
				return fmt.Errorf("not logged in: run \"socialexplore login\" first")
			}

			var srv *http.Server
			if cfg.Metrics.Addr != "" {
				srv = newMetricsServer(cfg.Metrics.Addr)
				go func() {
					log.Info().Str("addr", cfg.Metrics.Addr).Msg("Starting metrics server")
					if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						log.Error().Err(err).Msg("Metrics server failed")
					}
				}()
			}

			// Wait for interrupt signal for graceful shutdown
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-quit:
			case <-cmd.Context().Done():
			}
			signal.Stop(quit)

			log.Info().Msg("Shutting down client...")
			a.Shutdown()

			if srv != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				if err := srv.Shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Metrics server forced to shutdown")
				}
			}
			return nil
		},
	}
}

func newMetricsServer(addr string) *http.Server {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Handle("/metrics", observability.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
