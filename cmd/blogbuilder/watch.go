package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/devserver"
	derrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/render"
	"git.home.luguber.info/inful/blogbuilder/internal/watch"
)

const shutdownTimeout = 5 * time.Second

// runWatch builds once, serves the output and rebuilds on change until ctx is
// cancelled. Build failures are logged and never end the loop.
func runWatch(ctx context.Context, cli *CLI, cfg *config.Config, logger *slog.Logger, stderr io.Writer) int {
	adapter := derrors.NewCLIErrorAdapter(cli.Debug, logger)

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var metricsHandler http.Handler
	if cli.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewPrometheusRecorder(reg)
		metricsHandler = metrics.HTTPHandler(reg)
	}

	status := watch.NewStatus()
	build := rebuildFunc(cfg, logger, recorder)

	err := build(ctx)
	status.Record(err)
	if err != nil {
		logger.Warn("Initial build failed; serving previous output if any", logfields.Error(err))
	}

	w, err := watch.New(watch.Options{
		Paths:    watchPaths(cfg),
		Build:    build,
		Status:   status,
		Logger:   logger,
		Recorder: recorder,
	})
	if err != nil {
		return adapter.Report(stderr, err)
	}

	srv := devserver.New(devserver.Options{
		Host:    cli.Host,
		Port:    cli.Port,
		Root:    cfg.Build.OutputDir,
		Metrics: metricsHandler,
		Status:  status,
		Logger:  logger,
	})
	if err := srv.Start(ctx); err != nil {
		return adapter.Report(stderr, err)
	}

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	<-ctx.Done()
	logger.Info("Shutting down preview server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("Preview server shutdown error", logfields.Error(err))
	}
	if err := <-done; err != nil {
		logger.Warn("Watcher stopped with error", logfields.Error(err))
	}
	return 0
}

// rebuildFunc builds with the configuration loaded at startup. A change to the
// config file triggers a rebuild but is not parsed again.
func rebuildFunc(cfg *config.Config, logger *slog.Logger, recorder metrics.Recorder) watch.BuildFunc {
	return func(ctx context.Context) error {
		_, err := render.NewBuilder(cfg, render.WithLogger(logger), render.WithRecorder(recorder)).Build(ctx)
		return err
	}
}

// watchPaths lists the inputs a rebuild depends on. The assets directory is
// optional and only watched when present.
func watchPaths(cfg *config.Config) []string {
	paths := []string{cfg.Path, cfg.Build.PostsDir, cfg.Build.TemplatesDir}
	if st, err := os.Stat(cfg.Build.AssetsDir); err == nil && st.IsDir() {
		paths = append(paths, cfg.Build.AssetsDir)
	}
	return paths
}
