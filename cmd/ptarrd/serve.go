// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ptarr/ptarr/internal/buildinfo"
	"github.com/ptarr/ptarr/internal/config"
	"github.com/ptarr/ptarr/internal/downloaddriver"
	"github.com/ptarr/ptarr/internal/gapreconciler"
	"github.com/ptarr/ptarr/internal/libraryprobe"
	"github.com/ptarr/ptarr/internal/logging"
	"github.com/ptarr/ptarr/internal/mediaresolver"
	"github.com/ptarr/ptarr/internal/message"
	"github.com/ptarr/ptarr/internal/metrics"
	"github.com/ptarr/ptarr/internal/planner"
	"github.com/ptarr/ptarr/internal/rssingest"
	"github.com/ptarr/ptarr/internal/scheduler"
	"github.com/ptarr/ptarr/internal/seedingreaper"
	"github.com/ptarr/ptarr/internal/statsreporter"
	"github.com/ptarr/ptarr/internal/store"
	"github.com/ptarr/ptarr/internal/subtitles"
	"github.com/ptarr/ptarr/internal/titleparse"
	"github.com/ptarr/ptarr/internal/torrentclient"
	"github.com/ptarr/ptarr/internal/torrentclient/qbittorrent"
	"github.com/ptarr/ptarr/internal/torrentclient/transmission"
	"github.com/ptarr/ptarr/internal/transferworker"
)

func runServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ptarr daemon: RSS ingest, gap reconciliation, planning, and driving",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to ptarr.toml (defaults to ./ptarr.toml)")
	return cmd
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		Path:       cfg.Log.Path,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	defer log.Close()
	log.Info().Str("version", buildinfo.Version).Str("client", cfg.PT.Client).Msg("[PT] starting ptarrd")

	db, err := store.Open(cfg.PT.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	sites := store.NewSiteStore(db.Conn())
	movies := store.NewMovieStore(db.Conn())
	tvs := store.NewTVStore(db.Conn())
	history := store.NewTorrentStore(db.Conn())
	rssRules := store.NewRSSRuleStore(db.Conn())

	client, err := buildTorrentClient(ctx, cfg, log.Tagged("CLIENT"))
	if err != nil {
		return err
	}

	parser := titleparse.NewParser()
	resolver := mediaresolver.New(parser, nil)
	probe := libraryprobe.New(cfg.PT.LibraryDir, parser)
	sink := message.NewLogSink(log.Tagged("NOTIFY"))

	subProvider, err := subtitles.New(subtitles.Config{
		Server:   cfg.PT.Subtitle.Server,
		Endpoint: cfg.PT.Subtitle.Endpoint,
		APIKey:   cfg.PT.Subtitle.APIKey,
		Username: cfg.PT.Subtitle.Username,
		Password: cfg.PT.Subtitle.Password,
	}, log.Tagged(logging.TagSub))
	if err != nil {
		return err
	}
	_ = subtitles.NewDispatcher(subProvider, log.Tagged(logging.TagSub))

	notes, err := rssRules.ListNotes(ctx)
	if err != nil {
		return err
	}

	ingester := rssingest.New(log.Tagged(logging.TagRSS), notes)
	reconciler := gapreconciler.New(resolver, probe, log.Tagged(logging.TagGap))
	plan := planner.New()
	driver := downloaddriver.New(client, parser, sink, log.Tagged(logging.TagDriver), cfg.PT.Tag, nil)
	transfer := transferworker.New(client, transferworker.LogTransferer{Log: log.Tagged(logging.TagTransfer)}, log.Tagged(logging.TagTransfer), cfg.PT.MonitorOnly, cfg.PT.Tag)
	reaper := seedingreaper.New(client, log.Tagged(logging.TagReaper), seedingDuration(cfg.PT.SeedingTimeDays), cfg.PT.Tag)
	reporter := statsreporter.New(client, log.Tagged(logging.TagStats), cfg.PT.Tag)

	svc := scheduler.New(scheduler.Config{
		Log:        log.Tagged("SCHEDULER"),
		Sites:      sites,
		Movies:     movies,
		TVs:        tvs,
		History:    history,
		Ingester:   ingester,
		Reconciler: reconciler,
		Planner:    plan,
		Driver:     driver,
		Transfer:   transfer,
		Reaper:     reaper,
		Reporter:   reporter,
		Metrics:    buildMetrics(cfg, log.Tagged("METRICS")),

		RSSInterval:      minutes(cfg.PT.RSSIntervalMinutes),
		TransferInterval: minutes(cfg.PT.TransferIntervalMinutes),
		ReapInterval:     minutes(cfg.PT.ReapIntervalMinutes),
		RetryInterval:    minutes(cfg.PT.RetryIntervalMinutes),
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc.Run(ctx)
	log.Info().Msg("[PT] shutdown complete")
	return nil
}

func buildTorrentClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (torrentclient.Client, error) {
	switch cfg.PT.Client {
	case "transmission":
		return transmission.New(ctx, transmission.Config{
			Host:     cfg.PT.Transmission.Host,
			Port:     cfg.PT.Transmission.Port,
			Username: cfg.PT.Transmission.Username,
			Password: cfg.PT.Transmission.Password,
		}, log)
	default:
		return qbittorrent.New(ctx, qbittorrent.Config{
			Host:     cfg.PT.QBittorrent.Host,
			Username: cfg.PT.QBittorrent.Username,
			Password: cfg.PT.QBittorrent.Password,
		}, log)
	}
}

func seedingDuration(days float64) time.Duration {
	if days <= 0 {
		return 0
	}
	return time.Duration(days * float64(24*time.Hour))
}

func minutes(n int) time.Duration {
	if n <= 0 {
		n = 1
	}
	return time.Duration(n) * time.Minute
}

func buildMetrics(cfg *config.Config, log zerolog.Logger) *metrics.Collector {
	if !cfg.Metrics.Enabled {
		return nil
	}
	registry := prometheus.NewRegistry()
	collector := metrics.New(registry)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		data, _ := buildinfo.JSON()
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn().Err(err).Msg("[METRICS] server failed")
		}
	}()

	return collector
}
