package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/uniyx/unibot/pkg/bot"
	"github.com/uniyx/unibot/pkg/cache"
	"github.com/uniyx/unibot/pkg/cogs/basic"
	"github.com/uniyx/unibot/pkg/cogs/faceit"
	"github.com/uniyx/unibot/pkg/cogs/lastfm"
	"github.com/uniyx/unibot/pkg/cogs/portfolio"
	"github.com/uniyx/unibot/pkg/cogs/status"
	"github.com/uniyx/unibot/pkg/cogs/tweets"
	"github.com/uniyx/unibot/pkg/cogs/uptime"
	"github.com/uniyx/unibot/pkg/config"
	"github.com/uniyx/unibot/pkg/health"
	"github.com/uniyx/unibot/pkg/metrics"
	"github.com/uniyx/unibot/pkg/version"
)

const quoteCacheTTL = 10 * time.Minute

var rootCmd = &cobra.Command{
	Use:   "unibot",
	Short: "Slash-command Discord bot with a health endpoint",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		level, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			level = log.InfoLevel
		}
		log.SetLevel(level)

		if err := cfg.ValidateBot(); err != nil {
			log.Fatalf("%v", err)
		}

		started := time.Now()

		state := health.NewState(cfg.InstanceTag)
		healthSrv := health.NewServer(state, cfg.HealthPort)
		go func() {
			if err := healthSrv.Start(); err != nil {
				log.WithError(err).Error("Health server failed")
			}
		}()
		defer healthSrv.Close()

		m := metrics.New()

		store := newCache(cfg)
		if closer, ok := store.(io.Closer); ok {
			defer closer.Close()
		}
		quoter := portfolio.NewCachedQuoter(portfolio.NewYahooClient(), store, quoteCacheTTL)

		loaders := []struct {
			name  string
			build func() (bot.Module, error)
		}{
			{"cogs.basic", func() (bot.Module, error) { return basic.New(), nil }},
			{"cogs.tweets", func() (bot.Module, error) { return tweets.New(cfg) }},
			{"cogs.portfolio", func() (bot.Module, error) { return portfolio.NewWithQuoter(cfg, quoter), nil }},
			{"cogs.faceit", func() (bot.Module, error) { return faceit.NewWithCache(cfg, store), nil }},
			{"cogs.status", func() (bot.Module, error) { return status.New(cfg, started), nil }},
			{"cogs.lastfm", func() (bot.Module, error) { return lastfm.New(cfg) }},
			{"cogs.uptime", func() (bot.Module, error) { return uptime.New(started), nil }},
		}

		var modules []bot.Module
		for _, l := range loaders {
			mod, err := l.build()
			if err != nil {
				log.WithError(err).Errorf("Failed to load extension: %s", l.name)
				continue
			}
			modules = append(modules, mod)
			log.Infof("Loaded extension: %s", l.name)
		}

		b, err := bot.New(cfg, modules, state, m)
		if err != nil {
			log.Fatalf("Failed to build bot: %v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ver := version.Resolve()
		log.WithFields(log.Fields{
			"version":  ver.Version,
			"commit":   ver.ShortCommit,
			"instance": cfg.InstanceTag,
		}).Info("Starting unibot")

		if err := b.Run(ctx); err != nil {
			log.Fatalf("Bot stopped with error: %v", err)
		}
		log.Info("unibot stopped")
	},
}

// healthcheckCmd probes the local health endpoint. The container
// health check runs this instead of shipping curl in the image.
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Probe the local health endpoint",
	Run: func(cmd *cobra.Command, args []string) {
		port := 6969
		if cfg, err := config.Load(); err == nil {
			port = cfg.HealthPort
		}

		client := &http.Client{Timeout: 4 * time.Second}
		resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%d/health", port))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "health returned %d\n", resp.StatusCode)
			os.Exit(1)
		}
	},
}

// newCache prefers Redis when configured so multiple instances share
// API lookups, and falls back to process memory.
func newCache(cfg *config.Config) cache.Cache {
	if cfg.RedisAddr == "" {
		return cache.NewMemory()
	}
	r, err := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, using in-memory cache")
		return cache.NewMemory()
	}
	log.WithField("addr", cfg.RedisAddr).Info("Using Redis cache")
	return r
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Failed to execute command: %v", err)
	}
}
