// Command analyze screens a directory of raw NOAA ISD-Lite station-year files
// and buckets them by whether they hold enough data for AMY EPW generation.
// The buckets are written as CSV reports so large station sets can be vetted
// before a batch run.
//
// Usage:
//
//	analyze -dir data/isd-lite -out analysis \
//	  -stations data/Weather_Stations_by_County.csv
//
// Files for the in-progress calendar year are always incomplete and skipped.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/couchcryptid/amy-epw-etl/internal/adapter/noaa"
	"github.com/couchcryptid/amy-epw-etl/internal/adapter/stations"
	"github.com/couchcryptid/amy-epw-etl/internal/config"
	"github.com/couchcryptid/amy-epw-etl/internal/domain"
	"github.com/couchcryptid/amy-epw-etl/internal/observability"
)

// ISD-Lite files are named {wmo}-{wban}-{year} with an optional .gz suffix.
var fileNamePattern = regexp.MustCompile(`^(\d{6})-\d+-(\d{4})(\.gz)?$`)

// reportRow is one analyzed station-year, annotated with the station's
// location when a catalog was given.
type reportRow struct {
	File                      string `csv:"file"`
	WMOIndex                  int    `csv:"wmo_index"`
	Year                      int    `csv:"year"`
	TotalRowsMissing          int    `csv:"total_rows_missing"`
	MaxConsecutiveRowsMissing int    `csv:"max_consec_rows_missing"`
	State                     string `csv:"state"`
	County                    string `csv:"county"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dir := flag.String("dir", cfg.ISDLiteDir, "directory of raw ISD-Lite station-year files")
	out := flag.String("out", "analysis", "directory the CSV reports are written to")
	maxMissing := flag.Int("max-missing", cfg.MaxMissingRows, "most total missing rows a good file may have")
	maxConsecutive := flag.Int("max-consecutive", cfg.MaxConsecutiveMissingRows, "longest run of missing rows a good file may have")
	stationsCSV := flag.String("stations", "", "optional station catalog CSV for state and county annotation")
	flag.Parse()

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	if err := run(logger, *dir, *out, *maxMissing, *maxConsecutive, *stationsCSV); err != nil {
		logger.Error("analysis failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, dir, out string, maxMissing, maxConsecutive int, stationsCSV string) error {
	var lookup *stations.Lookup
	if stationsCSV != "" {
		var err error
		if lookup, err = stations.NewLookup(stationsCSV); err != nil {
			return err
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}

	currentYear := domain.CurrentYear()
	var analyses []domain.FileAnalysis
	rows := make(map[string]reportRow)
	skipped := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := fileNamePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			skipped++
			continue
		}
		wmoIndex, _ := strconv.Atoi(match[1])
		year, _ := strconv.Atoi(match[2])
		if year >= currentYear {
			logger.Info("skipping in-progress year", "file", entry.Name(), "year", year)
			continue
		}

		observations, err := noaa.ParseFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("parse %s: %w", entry.Name(), err)
		}

		analysis := domain.Analyze(entry.Name(), observations)
		analyses = append(analyses, analysis)

		row := reportRow{
			File:                      analysis.File,
			WMOIndex:                  wmoIndex,
			Year:                      year,
			TotalRowsMissing:          analysis.TotalRowsMissing,
			MaxConsecutiveRowsMissing: analysis.MaxConsecutiveRowsMissing,
		}
		if lookup != nil {
			if loc, ok := lookup.Find(wmoIndex); ok {
				row.State = loc.State
				row.County = loc.County
			}
		}
		rows[analysis.File] = row
	}

	if skipped > 0 {
		logger.Warn("ignored files without ISD-Lite names", "count", skipped)
	}
	if len(analyses) == 0 {
		return fmt.Errorf("no ISD-Lite station-year files in %s", dir)
	}

	classification := domain.Classify(analyses, maxMissing, maxConsecutive)
	logger.Info("classified station-years",
		"good", len(classification.Good),
		"too_many_total_rows_missing", len(classification.TooManyTotalMissing),
		"too_many_consecutive_rows_missing", len(classification.TooManyConsecutiveMissing))

	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	reports := []struct {
		name     string
		analyses []domain.FileAnalysis
	}{
		{"good.csv", classification.Good},
		{"too_many_total_rows_missing.csv", classification.TooManyTotalMissing},
		{"too_many_consecutive_rows_missing.csv", classification.TooManyConsecutiveMissing},
	}
	for _, report := range reports {
		if err := writeReport(filepath.Join(out, report.name), report.analyses, rows); err != nil {
			return err
		}
	}
	return nil
}

func writeReport(path string, analyses []domain.FileAnalysis, rows map[string]reportRow) error {
	out := make([]reportRow, 0, len(analyses))
	for _, analysis := range analyses {
		out = append(out, rows[analysis.File])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WMOIndex != out[j].WMOIndex {
			return out[i].WMOIndex < out[j].WMOIndex
		}
		return out[i].Year < out[j].Year
	})

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&out, f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
