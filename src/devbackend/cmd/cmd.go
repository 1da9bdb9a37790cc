package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"git.blogfront.dev/blogfront/src/config"
	"git.blogfront.dev/blogfront/src/devbackend"
	"git.blogfront.dev/blogfront/src/logging"
	"git.blogfront.dev/blogfront/src/website"
	"github.com/spf13/cobra"
)

func init() {
	devBackendCommand := &cobra.Command{
		Use:   "devbackend",
		Short: "Run an in-memory blog backend seeded with sample articles",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.Config.DevBackend

			store := devbackend.NewStore()
			store.Seed(cfg.Articles, cfg.Token)

			server := http.Server{
				Addr:    cfg.Addr,
				Handler: devbackend.NewRouter(store),
			}

			signals := make(chan os.Signal, 1)
			signal.Notify(signals, os.Interrupt)
			go func() {
				<-signals
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(ctx); err != nil {
					logging.Warn().Err(err).Msg("Dev backend did not shut down gracefully")
				}
			}()

			logging.Info().
				Str("addr", cfg.Addr).
				Int("articles", cfg.Articles).
				Str("admin token", cfg.Token).
				Str("reader token", "reader-"+cfg.Token).
				Msg("Serving the dev backend")
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				logging.Error().Err(err).Msg("Dev backend shut down unexpectedly")
			}
		},
	}

	website.WebsiteCommand.AddCommand(devBackendCommand)
}
