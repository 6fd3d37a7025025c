package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"runtime"
	"syscall"
	"time"

	"github.com/thushan/relay/internal/adapter/proxy"
	"github.com/thushan/relay/internal/adapter/stats"
	"github.com/thushan/relay/internal/app"
	"github.com/thushan/relay/internal/config"
	"github.com/thushan/relay/internal/env"
	"github.com/thushan/relay/internal/logger"
	"github.com/thushan/relay/internal/shutdown"
	"github.com/thushan/relay/internal/version"
	"github.com/thushan/relay/pkg/container"
	"github.com/thushan/relay/pkg/format"
	"github.com/thushan/relay/pkg/nerdstats"
)

func main() {
	startTime := time.Now()
	vlog := log.New(log.Writer(), "", 0)
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.PrintVersionInfo(true, vlog)
		os.Exit(0)
	}
	version.PrintVersionInfo(false, vlog)

	containerRuntime := container.Detect()

	lcfg := buildLoggerConfig(containerRuntime)
	logInstance, styledLogger, cleanup, err := logger.NewWithTheme(lcfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	slog.SetDefault(logInstance)

	styledLogger.Info("Initialising", "version", version.Version, "pid", os.Getpid())
	if containerRuntime != container.RuntimeNone {
		styledLogger.Info("Running in a container", "runtime", containerRuntime)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.FatalWithLogger(logInstance, "Error starting server", "error", err)
	}
	if cfg.Filename != "" {
		styledLogger.Info("Loaded configuration", "file", cfg.Filename)
	}

	coordinator := shutdown.New(styledLogger, shutdown.WithTimeout(cfg.Server.ShutdownTimeout))

	collector := stats.NewCollector(styledLogger)
	forwarder := proxy.NewService(coordinator.Context(), &proxy.Configuration{
		Timeout:   cfg.Proxy.Timeout,
		UserAgent: cfg.Proxy.UserAgent + "/" + version.Version,
	}, styledLogger)

	var opts []app.Option
	if lcfg.FileOutput {
		opts = append(opts, app.WithAccessLog(logInstance))
	}

	application, err := app.New(cfg, styledLogger, forwarder, collector, opts...)
	if err != nil {
		logger.FatalWithLogger(logInstance, "Error starting server", "error", err)
	}

	// bind before anything is registered so a taken port exits 1 with no teardown
	if err := application.Start(context.Background()); err != nil {
		logger.FatalWithLogger(logInstance, "Error starting server", "error", err)
	}

	mustRegister(logInstance, coordinator.OnShutdown("http-server", application.Stop))
	mustRegister(logInstance, coordinator.OnShutdown("route-stats", func(context.Context) error {
		reportRouteStats(styledLogger, collector)
		return nil
	}))
	if cfg.Engineering.ShowNerdStats {
		mustRegister(logInstance, coordinator.OnShutdown("process-stats", func(context.Context) error {
			reportProcessStats(styledLogger, startTime)
			return nil
		}))
	}

	notifier := shutdown.NewSignalNotifier()
	defer notifier.Stop()
	coordinator.Register(notifier, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-coordinator.Done():
	case err := <-application.Errors():
		logger.FatalWithLogger(logInstance, "Server stopped unexpectedly", "error", err)
	}
}

func mustRegister(base *slog.Logger, err error) {
	if err != nil {
		logger.FatalWithLogger(base, "Error starting server", "error", err)
	}
}

func reportRouteStats(styledLogger logger.StyledLogger, collector *stats.Collector) {
	proxyStats := collector.GetProxyStats()
	if proxyStats.TotalRequests == 0 && proxyStats.RejectedRequests == 0 {
		return
	}

	styledLogger.InfoWithCount("Proxied requests", int(proxyStats.TotalRequests),
		"successful", proxyStats.SuccessfulRequests,
		"failed", proxyStats.FailedRequests,
		"rejected", proxyStats.RejectedRequests,
		"avg_latency", format.Latency(proxyStats.AverageLatency))

	for _, rs := range collector.SortedRouteStats() {
		styledLogger.InfoWithRoute("Route stats", rs.Route,
			"requests", rs.TotalRequests,
			"success_rate", format.Percentage(rs.SuccessRate),
			"traffic", format.Bytes(rs.TotalBytes),
			"max_latency", format.Latency(rs.MaxLatency))
	}
}

func reportProcessStats(styledLogger logger.StyledLogger, startTime time.Time) {
	runtime.GC()

	stats := nerdstats.Snapshot(startTime)

	styledLogger.Info("Process Memory Stats", stats.MemoryFields()...)

	styledLogger.Info("Process Allocation Stats",
		"total_mallocs", stats.Mallocs,
		"total_frees", stats.Frees,
		"net_objects", int64(stats.Mallocs)-int64(stats.Frees))

	if stats.NumGC > 0 {
		styledLogger.Info("Garbage Collection Stats",
			"num_gc_cycles", stats.NumGC,
			"last_gc", stats.LastGC.Format(time.RFC3339),
			"total_gc_time", format.Duration(stats.TotalGCTime),
			"avg_gc_pause", stats.AverageGCPause(),
			"gc_cpu_fraction", fmt.Sprintf("%.4f%%", stats.GCCPUFraction*100))
	}

	if buildInfo := stats.BuildSettings(); len(buildInfo) > 0 {
		var buildArgs []any
		for key, value := range buildInfo {
			buildArgs = append(buildArgs, key, value)
		}
		styledLogger.Debug("Build Info", buildArgs...)
	}

	styledLogger.Info("Process Health Summary",
		"memory_pressure", stats.MemoryPressure(),
		"goroutines", stats.NumGoroutines,
		"goroutine_status", stats.GoroutineHealth(),
		"uptime", format.Duration(stats.Uptime),
		"go_version", stats.GoVersion,
		"gomaxprocs", stats.GOMAXPROCS)
}

// buildLoggerConfig reads logger settings from the environment. Containers log
// to stdout only unless file output is asked for explicitly.
func buildLoggerConfig(containerRuntime string) *logger.Config {
	return &logger.Config{
		Level:      env.GetEnvOrDefault("RELAY_LOG_LEVEL", "info"),
		FileOutput: env.GetEnvBoolOrDefault("RELAY_FILE_OUTPUT", containerRuntime == container.RuntimeNone),
		LogDir:     env.GetEnvOrDefault("RELAY_LOG_DIR", "./logs"),
		MaxSize:    env.GetEnvIntOrDefault("RELAY_MAX_SIZE", 100),
		MaxBackups: env.GetEnvIntOrDefault("RELAY_MAX_BACKUPS", 5),
		MaxAge:     env.GetEnvIntOrDefault("RELAY_MAX_AGE", 30),
		Theme:      env.GetEnvOrDefault("RELAY_THEME", "default"),
	}
}
