// Command amyepw generates AMY (actual meteorological year) EPW files for a
// set of weather stations and years. Raw NOAA ISD-Lite observations are
// completed into gap-free hourly series and substituted into each station's
// TMY3 template.
//
// Usage:
//
//	amyepw -years 2017,2018 -stations 725300,724940
//
// Source files are cached between runs; see internal/config for the
// environment variables controlling directories, thresholds, and downloads.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/couchcryptid/amy-epw-etl/internal/adapter/epw"
	"github.com/couchcryptid/amy-epw-etl/internal/adapter/noaa"
	"github.com/couchcryptid/amy-epw-etl/internal/adapter/ops"
	"github.com/couchcryptid/amy-epw-etl/internal/config"
	"github.com/couchcryptid/amy-epw-etl/internal/observability"
	"github.com/couchcryptid/amy-epw-etl/internal/pipeline"
)

func main() {
	years := flag.String("years", "", "comma-separated years to generate, e.g. 2017,2018")
	stations := flag.String("stations", "", "comma-separated WMO station indexes, e.g. 725300,724940")
	flag.Parse()

	yearList, err := parseIntList(*years)
	if err != nil || len(yearList) == 0 {
		flag.Usage()
		slog.Error("invalid -years flag", "value", *years, "error", err)
		os.Exit(2)
	}
	stationList, err := parseIntList(*stations)
	if err != nil || len(stationList) == 0 {
		flag.Usage()
		slog.Error("invalid -stations flag", "value", *stations, "error", err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	for _, dir := range []string{cfg.ISDLiteDir, cfg.TMYDir, cfg.CatalogDir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create data directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}

	catalog := noaa.NewCatalogCache(cfg.CatalogDir, cfg.HTTPTimeout, logger)
	isdLite := noaa.NewClient(cfg.ISDLiteDir, cfg.AllowDownloads, catalog, cfg.HTTPTimeout, logger, metrics)
	tmy := epw.NewFetcher(cfg.TMYDir, cfg.AllowDownloads, cfg.HTTPTimeout, logger, metrics)

	generator := pipeline.NewGenerator(isdLite, tmy, cfg.OutputDir, pipeline.Options{
		MaxInterpolate:            cfg.MaxInterpolate,
		MaxImpute:                 cfg.MaxImpute,
		MaxMissingRows:            cfg.MaxMissingRows,
		MaxConsecutiveMissingRows: cfg.MaxConsecutiveMissingRows,
	}, logger, metrics)
	batch := pipeline.NewBatch(generator, cfg.OutputDir, cfg.Concurrency, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *ops.Server
	if cfg.OpsAddr != "" {
		srv = ops.NewServer(cfg.OpsAddr, batch, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("ops server error", "error", err)
			}
		}()
	}

	failures, err := batch.Run(ctx, yearList, stationList)
	if err != nil {
		logger.Error("batch run failed", "error", err)
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Error("ops server shutdown error", "error", shutdownErr)
		}
	}

	switch {
	case err != nil:
		os.Exit(1)
	case len(failures) > 0:
		// Generated what it could; the skipped units are in the error report.
		logger.Warn("some station-years were not generated", "failed", len(failures))
	}
}

func parseIntList(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", part)
		}
		out = append(out, v)
	}
	return out, nil
}
