package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/amy-epw-etl/internal/adapter/epw"
	"github.com/couchcryptid/amy-epw-etl/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stationYear builds a complete year of hourly raw observations in ISD-Lite's
// scaled units. Values repeat every 24 hours so imputed cells are exactly
// predictable.
func stationYear(year int) []domain.Observation {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC)

	var out []domain.Observation
	for i, ts := 0, start; ts.Before(end); i, ts = i+1, ts.Add(time.Hour) {
		hourOfDay := float64(i % 24)
		out = append(out, domain.Observation{
			Year: ts.Year(), Month: int(ts.Month()), Day: ts.Day(), Hour: ts.Hour(),
			AirTemperature:   150 + hourOfDay,
			DewPoint:         100 + hourOfDay,
			SeaLevelPressure: 10132,
			WindDirection:    180,
			WindSpeed:        50,
		})
	}
	return out
}

// dropHours removes the observations whose offsets fall in [from, from+count).
func dropHours(observations []domain.Observation, from, count int) []domain.Observation {
	out := make([]domain.Observation, 0, len(observations)-count)
	out = append(out, observations[:from]...)
	return append(out, observations[from+count:]...)
}

// writeTMYTemplate builds a synthetic TMY3 EPW file for station 725300 in the
// GMT-5 time zone at 5 m elevation.
func writeTMYTemplate(t *testing.T, dir string) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("LOCATION,New York,NY,USA,TMY3,725300,40.78,-73.97,-5.0,5.0\n")
	b.WriteString("DESIGN CONDITIONS,0\n")
	b.WriteString("TYPICAL/EXTREME PERIODS,0\n")
	b.WriteString("GROUND TEMPERATURES,0\n")
	b.WriteString("HOLIDAYS/DAYLIGHT SAVINGS,No,0,0,0\n")
	b.WriteString("COMMENTS 1,Synthetic TMY3 fixture\n")
	b.WriteString("COMMENTS 2,--\n")
	b.WriteString("DATA PERIODS,1,1,Data,Sunday, 1/1, 12/31\n")

	start := time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 8760; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		row := []string{
			fmt.Sprint(ts.Year()), fmt.Sprint(int(ts.Month())), fmt.Sprint(ts.Day()),
			fmt.Sprint(ts.Hour() + 1), "0", "?9?9?9?9",
		}
		values := map[string]float64{
			epw.ColTdb:    10,
			epw.ColTdew:   5,
			"RH":          50,
			epw.ColPatm:   101325,
			epw.ColWdir:   90,
			epw.ColWspeed: 3,
		}
		for _, name := range epw.ObservationColumns {
			row = append(row, fmt.Sprint(values[name]))
		}
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}

	path := filepath.Join(dir, "USA_NY_New.York.725300_TMY3.epw")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

// fakeISDLite serves canned observations keyed by (wmo, year).
type fakeISDLite struct {
	data  map[string][]domain.Observation
	calls int
}

func newFakeISDLite() *fakeISDLite {
	return &fakeISDLite{data: make(map[string][]domain.Observation)}
}

func (f *fakeISDLite) put(wmoIndex, year int, observations []domain.Observation) {
	f.data[fmt.Sprintf("%d-%d", wmoIndex, year)] = observations
}

func (f *fakeISDLite) Observations(_ context.Context, wmoIndex, year int) ([]domain.Observation, error) {
	f.calls++
	observations, ok := f.data[fmt.Sprintf("%d-%d", wmoIndex, year)]
	if !ok {
		return nil, fmt.Errorf("no ISD-Lite file for WMO %d in the %d catalog", wmoIndex, year)
	}
	return observations, nil
}

// fakeTMY parses the fixture file afresh on every call, like the real source.
type fakeTMY struct {
	t    *testing.T
	path string
}

func (f *fakeTMY) Template(_ context.Context, _ int) (*epw.Record, error) {
	f.t.Helper()
	return epw.ParseFile(f.path)
}
