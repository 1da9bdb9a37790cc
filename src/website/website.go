package website

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"git.blogfront.dev/blogfront/src/backend"
	"git.blogfront.dev/blogfront/src/blogurl"
	"git.blogfront.dev/blogfront/src/config"
	"git.blogfront.dev/blogfront/src/diagram"
	"git.blogfront.dev/blogfront/src/jobs"
	"git.blogfront.dev/blogfront/src/logging"
	"git.blogfront.dev/blogfront/src/siteconfig"
	"git.blogfront.dev/blogfront/src/templates"
	"github.com/spf13/cobra"
)

var configPath string

var WebsiteCommand = &cobra.Command{
	Use:   "blogfront",
	Short: "Run the blog front-end",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(configPath); err != nil {
			return err
		}
		logging.Init()
		blogurl.SetGlobalBaseUrl(config.Config.BaseUrl)
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		defer logging.LogPanics(nil)
		logging.Info().Msg("Hello, blogfront!")

		templates.Init()

		var wg sync.WaitGroup

		client := backend.NewFromConfig()
		flags := siteconfig.NewHolder()
		refresher, err := siteconfig.RunRefresher(flags, client.As(""), config.Config.ClientConfig.RefreshSchedule)
		if err != nil {
			panic(err)
		}
		diagrams, diagramJob := startDiagrams()

		// Start background jobs
		wg.Add(1)
		backgroundJobs := jobs.Jobs{
			refresher,
			diagramJob,
		}

		liveCtx, cancelLive := context.WithCancel(context.Background())

		// Create HTTP server
		wg.Add(1)
		server := http.Server{
			Addr: config.Config.Addr,
			Handler: NewWebsiteRoutes(&Services{
				Client:   client,
				Flags:    flags,
				Diagrams: diagrams,
				LiveCtx:  liveCtx,
			}),
		}
		// Shutdown does not wait for hijacked connections.
		server.RegisterOnShutdown(cancelLive)
		go func() {
			logging.Info().Str("addr", config.Config.Addr).Str("backend", config.Config.Backend.BaseUrl).Msg("Serving the website")
			serverErr := server.ListenAndServe()
			if !errors.Is(serverErr, http.ErrServerClosed) {
				logging.Error().Err(serverErr).Msg("Server shut down unexpectedly")
			}
			// The wg.Done() happens in the shutdown logic below.
		}()

		// Wait for SIGINT in the background and trigger graceful shutdown
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt)
		go func() {
			<-signals // First SIGINT (start shutdown)
			logging.Info().Msg("Shutting down the website")

			const timeout = 10 * time.Second

			go func() {
				logging.Info().Msg("Shutting down background jobs...")
				unfinished := backgroundJobs.CancelAndWait(timeout)
				if len(unfinished) == 0 {
					logging.Info().Msg("Background jobs closed gracefully")
				} else {
					logging.Warn().Strs("Unfinished", unfinished).Msg("Background jobs did not finish by the deadline")
				}
				wg.Done()
			}()

			// Gracefully shut down the HTTP server
			go func() {
				timeoutCtx, cancel := context.WithTimeout(context.Background(), timeout)
				defer cancel()
				err := server.Shutdown(timeoutCtx)
				if err != nil {
					logging.Warn().Err(err).Msg("Server did not shut down gracefully")
				}
				wg.Done()
			}()

			<-signals // Second SIGINT (force quit)
			logging.Warn().Strs("Unfinished background jobs", backgroundJobs.ListUnfinished()).Msg("Forcibly killed the website")
			os.Exit(1)
		}()

		// Wait for all of the above to finish, then exit
		wg.Wait()
	},
}

// startDiagrams sets up server-side diagram rendering if it is configured.
// The returned job owns the cache and closes it on shutdown.
func startDiagrams() (*diagram.Pass, *jobs.Job) {
	cfg := config.Config.Diagram
	if cfg.Renderer == "" {
		return diagram.NewPass(nil), jobs.Noop()
	}

	var renderer diagram.Renderer = diagram.NewMermaidCLI(cfg.MmdcPath, cfg.Timeout)
	if cfg.CachePath == "" {
		return diagram.NewPass(renderer), jobs.Noop()
	}

	cache, err := diagram.OpenCache(cfg.CachePath, renderer)
	if err != nil {
		logging.Error().Err(err).Msg("Diagram cache is unavailable; rendering every diagram")
		return diagram.NewPass(renderer), jobs.Noop()
	}

	job := jobs.Go("diagram cache", func(ctx context.Context) error {
		if n, err := cache.Len(ctx); err == nil {
			logging.ExtractLogger(ctx).Info().Int("diagrams", n).Str("path", cfg.CachePath).Msg("Opened diagram cache")
		}
		<-ctx.Done()
		return cache.Close()
	})
	return diagram.NewPass(cache), job
}

var configCommand = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := config.Config.YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	WebsiteCommand.PersistentFlags().StringVar(&configPath, "config", "blogfront.yaml", "path to the YAML config file")
	WebsiteCommand.AddCommand(configCommand)
}
