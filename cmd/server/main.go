package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guohuiyuan/music-stream/api"
	"github.com/guohuiyuan/music-stream/config"
	"github.com/guohuiyuan/music-stream/feed"
	"github.com/guohuiyuan/music-stream/instances"
	"github.com/guohuiyuan/music-stream/invidious"
	"github.com/guohuiyuan/music-stream/key"
	"github.com/guohuiyuan/music-stream/lastfm"
	"github.com/guohuiyuan/music-stream/log"
	"github.com/guohuiyuan/music-stream/piped"
	"github.com/guohuiyuan/music-stream/proxy"
	"github.com/guohuiyuan/music-stream/recommend"
	"github.com/guohuiyuan/music-stream/saavn"
	"github.com/guohuiyuan/music-stream/stream"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var rootCmd = &cobra.Command{
	Use:           "music-stream",
	Short:         "Resolve playable audio streams for a track from a catalog and proxy networks",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		v := config.New(afero.NewOsFs())
		lo.Must0(v.BindPFlag(key.ServerPort, cmd.Flags().Lookup("port")))
		lo.Must0(v.BindPFlag(key.LogsLevel, cmd.Flags().Lookup("log-level")))

		if path := lo.Must(cmd.Flags().GetString("config")); path != "" {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("read config %s: %w", path, err)
			}
		}
		cfg, err := config.FromViper(v)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.Flags().StringP("config", "c", "", "Path to a yaml, toml or json config file")
	rootCmd.Flags().IntP("port", "p", 0, "Port to listen on")
	rootCmd.Flags().StringP("log-level", "l", "", "Log level (debug, info, warn, error)")
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	log.Setup(cfg.Logs.Level, cfg.Logs.JSON)

	registry := instances.New(
		instances.WithSource(cfg.Instances.Source),
		instances.WithRefreshInterval(cfg.Instances.Refresh),
		instances.WithFetchTimeout(cfg.Instances.Timeout),
	)
	catalog := saavn.New(saavn.WithBaseURL(cfg.Saavn.BaseURL), saavn.WithTimeout(cfg.Saavn.Timeout))
	orchestrator := stream.New(
		catalog,
		proxy.New(piped.New(nil), registry, proxy.WithProbeTimeout(cfg.Proxy.Timeout)),
		proxy.New(invidious.New(nil), registry, proxy.WithProbeTimeout(cfg.Proxy.Timeout)),
	)

	directory := invidious.NewDirectory(nil, registry, cfg.Proxy.Timeout)

	store, err := feed.Open(cfg.Feed.Database)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Seed(ctx, cfg.Feed.Sessions); err != nil {
		return err
	}

	handlers := &api.Handlers{
		Stream:        orchestrator,
		Catalog:       catalog,
		Feeds:         feed.NewAggregator(directory, cfg.Feed.Concurrency),
		Subscriptions: store,
		Registry:      registry,
	}
	if cfg.Lastfm.APIKey != "" {
		handlers.Recommend = recommend.New(lastfm.New(cfg.Lastfm.APIKey, cfg.Lastfm.BaseURL, nil), directory)
	} else {
		logrus.Warn("[server] lastfm.api_key not set, /api/similar disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(handlers, api.Options{
		Origins:   cfg.Server.Origins,
		RateLimit: cfg.Server.RateLimit,
		Burst:     cfg.Server.Burst,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("[server] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logrus.Info("[server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
