package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/gocarina/gocsv"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/amy-epw-etl/internal/observability"
)

// FileCreator generates the AMY EPW file for one station-year.
type FileCreator interface {
	CreateFile(ctx context.Context, wmoIndex, year int) (string, error)
}

// UnitError is one failed (year, station) combination, as recorded in the
// batch error report.
type UnitError struct {
	Year     int    `csv:"year"`
	WMOIndex int    `csv:"wmo_index"`
	Error    string `csv:"error"`
}

// ErrorReportName is the file the batch writes into the output directory when
// any unit failed.
const ErrorReportName = "errors.csv"

// Batch drives generation for every (year, station) combination with bounded
// parallelism. Unit failures are collected, not fatal: core failures are
// deterministic, so a failed unit is reported once and never retried.
type Batch struct {
	creator     FileCreator
	outputDir   string
	concurrency int
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
}

// NewBatch creates a batch driver running up to concurrency units at once.
func NewBatch(creator FileCreator, outputDir string, concurrency int, logger *slog.Logger, metrics *observability.Metrics) *Batch {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Batch{
		creator:     creator,
		outputDir:   outputDir,
		concurrency: concurrency,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once the batch has completed at least one unit,
// or an error describing why the service is not yet ready.
func (b *Batch) CheckReadiness(_ context.Context) error {
	if !b.ready.Load() {
		return errors.New("no station-years generated yet")
	}
	return nil
}

// Run generates an AMY EPW file for every combination of the given years and
// WMO indexes. It returns the per-unit failures, which have also been written
// to the error report; the returned error covers only the run's own plumbing.
func (b *Batch) Run(ctx context.Context, years, wmoIndexes []int) ([]UnitError, error) {
	b.logger.Info("batch starting",
		"years", len(years), "stations", len(wmoIndexes), "concurrency", b.concurrency)
	b.metrics.BatchRunning.Set(1)
	defer b.metrics.BatchRunning.Set(0)

	var (
		mu       sync.Mutex
		failures []UnitError
	)

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(b.concurrency)
	for _, year := range years {
		for _, wmoIndex := range wmoIndexes {
			year, wmoIndex := year, wmoIndex
			group.Go(func() error {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if _, err := b.creator.CreateFile(ctx, wmoIndex, year); err != nil {
					b.logger.Warn("station-year failed",
						"wmo_index", wmoIndex, "year", year, "error", err)
					b.metrics.UnitFailures.Inc()
					mu.Lock()
					failures = append(failures, UnitError{Year: year, WMOIndex: wmoIndex, Error: err.Error()})
					mu.Unlock()
					return nil
				}
				b.ready.Store(true)
				return nil
			})
		}
	}
	if err := group.Wait(); err != nil {
		return failures, err
	}

	sort.Slice(failures, func(i, j int) bool {
		if failures[i].Year != failures[j].Year {
			return failures[i].Year < failures[j].Year
		}
		return failures[i].WMOIndex < failures[j].WMOIndex
	})

	if len(failures) > 0 {
		if err := b.writeErrorReport(failures); err != nil {
			return failures, err
		}
		b.logger.Warn("batch finished with failures",
			"failed", len(failures), "report", filepath.Join(b.outputDir, ErrorReportName))
	} else {
		b.logger.Info("batch finished", "units", len(years)*len(wmoIndexes))
	}
	return failures, nil
}

func (b *Batch) writeErrorReport(failures []UnitError) error {
	if err := os.MkdirAll(b.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(b.outputDir, ErrorReportName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create error report: %w", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&failures, f); err != nil {
		return fmt.Errorf("write error report: %w", err)
	}
	return nil
}
