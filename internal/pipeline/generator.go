// Package pipeline orchestrates AMY EPW generation: raw ISD-Lite observations
// for a station-year are completed into a gap-free hourly series and
// substituted into the station's TMY template.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/amy-epw-etl/internal/adapter/epw"
	"github.com/couchcryptid/amy-epw-etl/internal/domain"
	"github.com/couchcryptid/amy-epw-etl/internal/observability"
)

// ISDLiteSource provides raw observations for one station-year.
type ISDLiteSource interface {
	Observations(ctx context.Context, wmoIndex, year int) ([]domain.Observation, error)
}

// TMYSource provides the TMY EPW template for a station.
type TMYSource interface {
	Template(ctx context.Context, wmoIndex int) (*epw.Record, error)
}

// Options are the per-unit generation thresholds.
type Options struct {
	// MaxInterpolate and MaxImpute bound the gap-filling tiers, in hours.
	MaxInterpolate int
	MaxImpute      int

	// Admission thresholds for the raw station-year. Zero disables a check.
	MaxMissingRows            int
	MaxConsecutiveMissingRows int
}

// Generator builds one AMY EPW file per (station, year) unit of work. Each
// unit owns its series exclusively; a Generator is safe for concurrent
// CreateFile calls as long as its sources are.
type Generator struct {
	isdLite   ISDLiteSource
	tmy       TMYSource
	outputDir string
	opts      Options
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewGenerator creates a Generator writing AMY EPW files into outputDir.
func NewGenerator(isdLite ISDLiteSource, tmy TMYSource, outputDir string, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Generator {
	return &Generator{
		isdLite:   isdLite,
		tmy:       tmy,
		outputDir: outputDir,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
	}
}

// CreateFile generates the AMY EPW file for one station-year and returns its
// path. An output file that already exists is returned as-is without
// regenerating it. Failures are deterministic for a given set of inputs and
// thresholds, so callers should record rather than retry them.
func (g *Generator) CreateFile(ctx context.Context, wmoIndex, year int) (string, error) {
	start := time.Now()

	observations, err := g.isdLite.Observations(ctx, wmoIndex, year)
	if err != nil {
		return "", fmt.Errorf("load ISD-Lite year: %w", err)
	}
	if err := g.admit(wmoIndex, year, observations); err != nil {
		return "", err
	}

	// The following year's first hours populate the end of December once the
	// timestamps shift out of GMT. Without them the year cannot be completed.
	lookahead, err := g.isdLite.Observations(ctx, wmoIndex, year+1)
	if err != nil {
		return "", &domain.InsufficientLookaheadError{WMOIndex: wmoIndex, Year: year, Err: err}
	}

	template, err := g.tmy.Template(ctx, wmoIndex)
	if err != nil {
		return "", fmt.Errorf("load TMY template: %w", err)
	}

	outputPath := filepath.Join(g.outputDir, outputFileName(template, year))
	if _, err := os.Stat(outputPath); err == nil {
		g.logger.Info("output file already exists, skipping generation",
			"wmo_index", wmoIndex, "year", year, "path", outputPath)
		return outputPath, nil
	}

	series, err := domain.AlignToYear(observations, lookahead, template.TimeZoneOffset(), year)
	if err != nil {
		return "", fmt.Errorf("align station-year: %w", err)
	}

	stats, err := domain.FillGaps(series, domain.FillOptions{
		MissingValues:  []float64{-9999},
		Step:           time.Hour,
		MaxInterpolate: g.opts.MaxInterpolate,
		MaxImpute:      g.opts.MaxImpute,
	})
	if err != nil {
		return "", fmt.Errorf("fill gaps: %w", err)
	}
	g.metrics.CellsFilled.WithLabelValues("interpolated").Add(float64(stats.Interpolated))
	g.metrics.CellsFilled.WithLabelValues("imputed").Add(float64(stats.Imputed))

	// Station pressure is derived from the completed sea-level column so the
	// conversion never sees an absent input.
	seaLevel := series.Column(domain.ColSeaLevelPressure)
	stationPressure := make([]float64, len(seaLevel))
	for i, v := range seaLevel {
		stationPressure[i] = domain.StationPressure(v, template.Elevation)
	}
	if err := series.AddColumn(domain.ColStationPressure, stationPressure); err != nil {
		return "", fmt.Errorf("derive station pressure: %w", err)
	}

	if domain.IsLeapYear(year) {
		if err := template.ExpandToLeapYear(); err != nil {
			return "", err
		}
	}

	if err := substitute(template, series, year); err != nil {
		return "", err
	}
	if err := template.Validate(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	if err := template.WriteFile(outputPath); err != nil {
		return "", err
	}

	g.metrics.FilesGenerated.Inc()
	g.metrics.UnitDuration.Observe(time.Since(start).Seconds())
	g.logger.Info("generated AMY EPW file",
		"wmo_index", wmoIndex, "year", year, "path", outputPath,
		"cells_interpolated", stats.Interpolated, "cells_imputed", stats.Imputed)
	return outputPath, nil
}

// admit screens the raw station-year against the configured thresholds before
// any expensive work happens.
func (g *Generator) admit(wmoIndex, year int, observations []domain.Observation) error {
	if g.opts.MaxMissingRows <= 0 && g.opts.MaxConsecutiveMissingRows <= 0 {
		return nil
	}

	analysis := domain.Analyze(fmt.Sprintf("%d-%d", wmoIndex, year), observations)
	if g.opts.MaxMissingRows > 0 && analysis.TotalRowsMissing > g.opts.MaxMissingRows {
		g.metrics.AdmissionRejects.WithLabelValues("total_missing").Inc()
		return fmt.Errorf("station-year is missing %d rows, but the maximum allowed is %d",
			analysis.TotalRowsMissing, g.opts.MaxMissingRows)
	}
	if g.opts.MaxConsecutiveMissingRows > 0 && analysis.MaxConsecutiveRowsMissing > g.opts.MaxConsecutiveMissingRows {
		g.metrics.AdmissionRejects.WithLabelValues("consecutive_missing").Inc()
		return fmt.Errorf("station-year is missing %d consecutive rows, but the maximum allowed is %d",
			analysis.MaxConsecutiveRowsMissing, g.opts.MaxConsecutiveMissingRows)
	}
	return nil
}

// substitute overwrites the template's observation columns with the completed
// station-year, converting from ISD-Lite's scaled units.
func substitute(template *epw.Record, series *domain.ObservationSeries, year int) error {
	if template.Len() != series.Len() {
		return fmt.Errorf("template has %d rows but the series has %d", template.Len(), series.Len())
	}

	template.SetYear(year)
	substitutions := []struct {
		column  string
		values  []float64
		divisor float64
	}{
		{epw.ColTdb, series.Column(domain.ColAirTemperature), 10},
		{epw.ColTdew, series.Column(domain.ColDewPoint), 10},
		{epw.ColPatm, series.Column(domain.ColStationPressure), 1},
		{epw.ColWdir, series.Column(domain.ColWindDirection), 1},
		{epw.ColWspeed, series.Column(domain.ColWindSpeed), 10},
	}
	for _, sub := range substitutions {
		values := sub.values
		if sub.divisor != 1 {
			scaled := make([]float64, len(values))
			for i, v := range values {
				scaled[i] = v / sub.divisor
			}
			values = scaled
		}
		if err := template.Set(sub.column, values); err != nil {
			return fmt.Errorf("substitute %s: %w", sub.column, err)
		}
	}
	return nil
}

// outputFileName builds {country}_{state}_{city}.{station}_AMY_{year}.epw
// with spaces dashed so the name is shell-friendly.
func outputFileName(template *epw.Record, year int) string {
	name := fmt.Sprintf("%s_%s_%s.%s_AMY_%d.epw",
		template.Country, template.State, template.City, template.StationNumber, year)
	return strings.ReplaceAll(name, " ", "-")
}
