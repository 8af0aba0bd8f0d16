package domain

import (
	"fmt"
	"math"
	"time"
)

// Standard ISD-Lite measurement column names, in file order.
const (
	ColAirTemperature   = "air_temperature"
	ColDewPoint         = "dew_point_temperature"
	ColSeaLevelPressure = "sea_level_pressure"
	ColWindDirection    = "wind_direction"
	ColWindSpeed        = "wind_speed"

	// ColStationPressure is derived from the completed sea-level pressure
	// column after gap filling; it never appears in raw input.
	ColStationPressure = "station_pressure"
)

// ISDLiteColumns lists the measurement columns carried through the pipeline.
var ISDLiteColumns = []string{
	ColAirTemperature,
	ColDewPoint,
	ColSeaLevelPressure,
	ColWindDirection,
	ColWindSpeed,
}

// Missing is the generic "absent" marker for series cells. Raw sentinels such
// as -9999 are normalized to this value before gap filling.
var Missing = math.NaN()

// IsMissing reports whether a cell holds the absent marker.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// Observation is one raw ISD-Lite row: a UTC wall-clock hour plus the five
// measurement columns used to populate EPW files. Values keep the file's
// scaled units (temperatures and wind speed in tenths, pressure in tenths of
// hPa) and its -9999 missing sentinel.
type Observation struct {
	Year  int
	Month int
	Day   int
	Hour  int

	AirTemperature   float64
	DewPoint         float64
	SeaLevelPressure float64
	WindDirection    float64
	WindSpeed        float64
}

// Timestamp returns the observation's wall-clock hour as a UTC time.
func (o Observation) Timestamp() time.Time {
	return time.Date(o.Year, time.Month(o.Month), o.Day, o.Hour, 0, 0, 0, time.UTC)
}

// value returns the named measurement column of the observation.
func (o Observation) value(column string) float64 {
	switch column {
	case ColAirTemperature:
		return o.AirTemperature
	case ColDewPoint:
		return o.DewPoint
	case ColSeaLevelPressure:
		return o.SeaLevelPressure
	case ColWindDirection:
		return o.WindDirection
	case ColWindSpeed:
		return o.WindSpeed
	}
	return Missing
}

// ObservationSeries is an ordered table of named numeric columns at hourly
// granularity. After alignment the index is contiguous at exactly one row per
// hour of the target year. The series is exclusively owned by the pipeline
// stage processing it and is mutated in place; column slices returned by
// Column share the series' backing storage.
type ObservationSeries struct {
	timestamps []time.Time // nil for purely positional series (EPW templates)
	names      []string
	columns    map[string][]float64
}

// NewSeries creates a time-indexed series with the given columns, every cell
// initialized to the absent marker.
func NewSeries(timestamps []time.Time, names []string) *ObservationSeries {
	columns := make(map[string][]float64, len(names))
	for _, name := range names {
		col := make([]float64, len(timestamps))
		for i := range col {
			col[i] = Missing
		}
		columns[name] = col
	}
	return &ObservationSeries{
		timestamps: timestamps,
		names:      append([]string(nil), names...),
		columns:    columns,
	}
}

// NewColumnSeries wraps existing column slices in a positional series without
// a time index. The slices are not copied; gap filling mutates them directly.
// All columns must share the same length.
func NewColumnSeries(names []string, columns map[string][]float64) (*ObservationSeries, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("column series needs at least one column")
	}
	n := -1
	for _, name := range names {
		col, ok := columns[name]
		if !ok {
			return nil, fmt.Errorf("column %q has no data", name)
		}
		if n == -1 {
			n = len(col)
		} else if len(col) != n {
			return nil, fmt.Errorf("column %q has %d rows, want %d", name, len(col), n)
		}
	}
	return &ObservationSeries{
		names:   append([]string(nil), names...),
		columns: columns,
	}, nil
}

// Len returns the number of rows.
func (s *ObservationSeries) Len() int {
	if len(s.names) == 0 {
		return 0
	}
	return len(s.columns[s.names[0]])
}

// Timestamps returns the series' time index, or nil for positional series.
func (s *ObservationSeries) Timestamps() []time.Time {
	return s.timestamps
}

// ColumnNames returns the column names in table order.
func (s *ObservationSeries) ColumnNames() []string {
	return append([]string(nil), s.names...)
}

// Column returns the named column's backing slice, or nil if absent.
func (s *ObservationSeries) Column(name string) []float64 {
	return s.columns[name]
}

// AddColumn appends a derived column. The slice is adopted, not copied.
func (s *ObservationSeries) AddColumn(name string, values []float64) error {
	if _, exists := s.columns[name]; exists {
		return fmt.Errorf("column %q already exists", name)
	}
	if len(values) != s.Len() {
		return fmt.Errorf("column %q has %d rows, series has %d", name, len(values), s.Len())
	}
	s.names = append(s.names, name)
	s.columns[name] = values
	return nil
}

// MissingCells returns the number of absent cells in the named column.
func (s *ObservationSeries) MissingCells(name string) int {
	n := 0
	for _, v := range s.columns[name] {
		if IsMissing(v) {
			n++
		}
	}
	return n
}
