package pipeline

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/amy-epw-etl/internal/adapter/epw"
	"github.com/couchcryptid/amy-epw-etl/internal/domain"
	"github.com/couchcryptid/amy-epw-etl/internal/observability"
)

func defaultOptions() Options {
	return Options{
		MaxInterpolate:            6,
		MaxImpute:                 48,
		MaxMissingRows:            700,
		MaxConsecutiveMissingRows: 48,
	}
}

func newTestGenerator(t *testing.T, isdLite ISDLiteSource, outputDir string, opts Options) *Generator {
	t.Helper()
	tmyDir := t.TempDir()
	tmy := &fakeTMY{t: t, path: writeTMYTemplate(t, tmyDir)}
	return NewGenerator(isdLite, tmy, outputDir, opts, testLogger(), observability.NewMetricsForTesting())
}

func TestCreateFile(t *testing.T) {
	ctx := context.Background()

	// The fixture's station sits at GMT-5, so series position j holds the raw
	// observation taken at UTC hour j+5 of the year.
	rawTdb := func(position int) float64 {
		return 150 + float64((position+5)%24)
	}

	t.Run("complete year", func(t *testing.T) {
		outputDir := t.TempDir()
		isdLite := newFakeISDLite()
		isdLite.put(725300, 2018, stationYear(2018))
		isdLite.put(725300, 2019, stationYear(2019))
		generator := newTestGenerator(t, isdLite, outputDir, defaultOptions())

		path, err := generator.CreateFile(ctx, 725300, 2018)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(outputDir, "USA_NY_New-York.725300_AMY_2018.epw"), path)

		record, err := epw.ParseFile(path)
		require.NoError(t, err)
		require.Equal(t, 8760, record.Len())

		tdb := record.Column(epw.ColTdb)
		wspeed := record.Column(epw.ColWspeed)
		patm := record.Column(epw.ColPatm)
		wantPatm := domain.StationPressure(10132, 5)
		for i := range tdb {
			require.InDelta(t, rawTdb(i)/10, tdb[i], 1e-9, "Tdb at row %d", i)
			require.InDelta(t, 5.0, wspeed[i], 1e-9, "Wspeed at row %d", i)
			require.InDelta(t, wantPatm, patm[i], 1e-6, "Patm at row %d", i)
		}
	})

	t.Run("ten hour gap is filled exactly", func(t *testing.T) {
		outputDir := t.TempDir()
		isdLite := newFakeISDLite()
		isdLite.put(725300, 2018, dropHours(stationYear(2018), 2000, 10))
		isdLite.put(725300, 2019, stationYear(2019))
		generator := newTestGenerator(t, isdLite, outputDir, defaultOptions())

		path, err := generator.CreateFile(ctx, 725300, 2018)
		require.NoError(t, err)

		record, err := epw.ParseFile(path)
		require.NoError(t, err)

		// Raw hours 2000..2009 land at series positions 1995..2004 after the
		// shift. The interior cells are imputed from the daily-periodic window
		// and the two edge cells are interpolated; on a periodic signal both
		// reconstruct the dropped value exactly.
		tdb := record.Column(epw.ColTdb)
		for i := 1995; i <= 2004; i++ {
			require.False(t, math.IsNaN(tdb[i]), "Tdb at row %d is absent", i)
			assert.InDelta(t, rawTdb(i)/10, tdb[i], 1e-9, "Tdb at row %d", i)
		}
	})

	t.Run("leap year output has 8784 rows", func(t *testing.T) {
		outputDir := t.TempDir()
		isdLite := newFakeISDLite()
		isdLite.put(725300, 2024, stationYear(2024))
		isdLite.put(725300, 2025, stationYear(2025))
		generator := newTestGenerator(t, isdLite, outputDir, defaultOptions())

		path, err := generator.CreateFile(ctx, 725300, 2024)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(outputDir, "USA_NY_New-York.725300_AMY_2024.epw"), path)

		record, err := epw.ParseFile(path)
		require.NoError(t, err)
		require.Equal(t, 8784, record.Len())

		// Feb 29 starts right after the 59 days preceding it, 8 header lines
		// into the file.
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		lines := strings.Split(string(content), "\n")
		feb29 := (31 + 28) * 24
		assert.True(t, strings.HasPrefix(lines[8+feb29], "2024,2,29,"), "row %q", lines[8+feb29])

		tdb := record.Column(epw.ColTdb)
		for i, v := range tdb {
			require.False(t, math.IsNaN(v), "Tdb at row %d is absent", i)
		}
	})

	t.Run("too many missing rows is rejected", func(t *testing.T) {
		isdLite := newFakeISDLite()
		isdLite.put(725300, 2018, dropHours(stationYear(2018), 1000, 800))
		isdLite.put(725300, 2019, stationYear(2019))
		generator := newTestGenerator(t, isdLite, t.TempDir(), defaultOptions())

		_, err := generator.CreateFile(ctx, 725300, 2018)
		require.ErrorContains(t, err, "missing 800 rows")
	})

	t.Run("too many consecutive missing rows is rejected", func(t *testing.T) {
		isdLite := newFakeISDLite()
		isdLite.put(725300, 2018, dropHours(stationYear(2018), 1000, 100))
		isdLite.put(725300, 2019, stationYear(2019))
		generator := newTestGenerator(t, isdLite, t.TempDir(), defaultOptions())

		_, err := generator.CreateFile(ctx, 725300, 2018)
		require.ErrorContains(t, err, "missing 100 consecutive rows")
	})

	t.Run("unfillable gap aborts", func(t *testing.T) {
		isdLite := newFakeISDLite()
		isdLite.put(725300, 2018, dropHours(stationYear(2018), 1000, 60))
		isdLite.put(725300, 2019, stationYear(2019))
		opts := defaultOptions()
		opts.MaxConsecutiveMissingRows = 0
		generator := newTestGenerator(t, isdLite, t.TempDir(), opts)

		_, err := generator.CreateFile(ctx, 725300, 2018)
		var gapErr *domain.GapTooLargeError
		require.ErrorAs(t, err, &gapErr)
		assert.Equal(t, 60, gapErr.RunLength)
	})

	t.Run("missing lookahead year", func(t *testing.T) {
		isdLite := newFakeISDLite()
		isdLite.put(725300, 2018, stationYear(2018))
		generator := newTestGenerator(t, isdLite, t.TempDir(), defaultOptions())

		_, err := generator.CreateFile(ctx, 725300, 2018)
		var lookErr *domain.InsufficientLookaheadError
		require.ErrorAs(t, err, &lookErr)
		assert.Equal(t, 2018, lookErr.Year)
	})

	t.Run("existing output file is not regenerated", func(t *testing.T) {
		outputDir := t.TempDir()
		isdLite := newFakeISDLite()
		isdLite.put(725300, 2018, stationYear(2018))
		isdLite.put(725300, 2019, stationYear(2019))
		generator := newTestGenerator(t, isdLite, outputDir, defaultOptions())

		path, err := generator.CreateFile(ctx, 725300, 2018)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(path, []byte("sentinel"), 0o644))
		again, err := generator.CreateFile(ctx, 725300, 2018)
		require.NoError(t, err)
		assert.Equal(t, path, again)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "sentinel", string(content))
	})

	t.Run("missing station-year", func(t *testing.T) {
		generator := newTestGenerator(t, newFakeISDLite(), t.TempDir(), defaultOptions())
		_, err := generator.CreateFile(ctx, 725300, 2018)
		require.ErrorContains(t, err, "load ISD-Lite year")
	})
}

func TestOutputFileName(t *testing.T) {
	record := &epw.Record{
		City: "Port Angeles Fairchild Intl", State: "WA", Country: "USA", StationNumber: "727885",
	}
	assert.Equal(t,
		"USA_WA_Port-Angeles-Fairchild-Intl.727885_AMY_2012.epw",
		outputFileName(record, 2012))
}

var (
	_ ISDLiteSource = (*fakeISDLite)(nil)
	_ TMYSource     = (*fakeTMY)(nil)
)
