package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// yearObservations builds a full station-year of hourly observations where
// the air temperature encodes the hour's offset from Jan 1 00:00.
func yearObservations(year int) []Observation {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC)

	var out []Observation
	for i, ts := 0, start; ts.Before(end); i, ts = i+1, ts.Add(time.Hour) {
		out = append(out, Observation{
			Year: ts.Year(), Month: int(ts.Month()), Day: ts.Day(), Hour: ts.Hour(),
			AirTemperature:   float64(i),
			DewPoint:         50,
			SeaLevelPressure: 10132,
			WindDirection:    180,
			WindSpeed:        30,
		})
	}
	return out
}

func TestAlignToYear(t *testing.T) {
	t.Run("negative shift pulls lookahead hours into december", func(t *testing.T) {
		current := yearObservations(2018)
		lookahead := yearObservations(2019)[:23]

		s, err := AlignToYear(current, lookahead, -5, 2018)
		require.NoError(t, err)
		require.Equal(t, 8760, s.Len())

		temp := s.Column(ColAirTemperature)

		// Target hour 0 is raw 2018-01-01 05:00 (offset 5).
		assert.Equal(t, 5.0, temp[0])
		// The last five hours of the year come from the 2019 prefix
		// (offsets 0..4 of the lookahead year).
		for i := 0; i < 5; i++ {
			assert.Equal(t, float64(i), temp[8755+i], "hour %d", 8755+i)
		}
		// Nothing is missing anywhere: the lookahead covered the shift.
		assert.Equal(t, 0, s.MissingCells(ColAirTemperature))
	})

	t.Run("short lookahead leaves edge hours absent instead of failing", func(t *testing.T) {
		current := yearObservations(2018)

		s, err := AlignToYear(current, nil, -5, 2018)
		require.NoError(t, err)

		assert.Equal(t, 5, s.MissingCells(ColAirTemperature))
		temp := s.Column(ColAirTemperature)
		for i := 8755; i < 8760; i++ {
			assert.True(t, IsMissing(temp[i]), "hour %d", i)
		}
	})

	t.Run("hours absent from the raw data become absent rows", func(t *testing.T) {
		current := yearObservations(2018)
		// Drop raw hours 100..104.
		current = append(current[:100:100], current[105:]...)

		s, err := AlignToYear(current, yearObservations(2019)[:23], 0, 2018)
		require.NoError(t, err)
		require.Equal(t, 8760, s.Len())

		for _, name := range ISDLiteColumns {
			assert.Equal(t, 5, s.MissingCells(name), "column %s", name)
		}
	})

	t.Run("first duplicate timestamp wins", func(t *testing.T) {
		obs := yearObservations(2018)[:48]
		dup := obs[10]
		dup.AirTemperature = 9999
		obs = append(obs, dup)

		s, err := AlignToYear(obs, nil, 0, 2018)
		require.NoError(t, err)
		assert.Equal(t, 10.0, s.Column(ColAirTemperature)[10])
	})

	t.Run("lookahead is capped at the largest possible shift", func(t *testing.T) {
		current := yearObservations(2018)
		lookahead := yearObservations(2019) // far more than needed

		s, err := AlignToYear(current, lookahead, -12, 2018)
		require.NoError(t, err)
		assert.Equal(t, 0, s.MissingCells(ColAirTemperature))

		// Positive shifts drop the tail instead; lookahead hours beyond the
		// cap never land inside the year.
		s, err = AlignToYear(current, lookahead, 12, 2018)
		require.NoError(t, err)
		assert.Equal(t, 12, s.MissingCells(ColAirTemperature))
	})

	t.Run("rejects offsets outside the valid range", func(t *testing.T) {
		_, err := AlignToYear(nil, nil, -13, 2018)
		assert.Error(t, err)
		_, err = AlignToYear(nil, nil, 13, 2018)
		assert.Error(t, err)
	})

	t.Run("leap target year frames 8784 hours", func(t *testing.T) {
		s, err := AlignToYear(yearObservations(2024), nil, 0, 2024)
		require.NoError(t, err)
		assert.Equal(t, 8784, s.Len())
		assert.Equal(t, 0, s.MissingCells(ColAirTemperature))
	})
}

func TestYearHourIndex(t *testing.T) {
	idx := YearHourIndex(2018)
	require.Len(t, idx, 8760)
	assert.Equal(t, time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), idx[0])
	assert.Equal(t, time.Date(2018, 12, 31, 23, 0, 0, 0, time.UTC), idx[8759])

	assert.Len(t, YearHourIndex(2024), 8784)
}

func TestIsLeapYear(t *testing.T) {
	assert.True(t, IsLeapYear(2024))
	assert.True(t, IsLeapYear(2000))
	assert.False(t, IsLeapYear(2018))
	assert.False(t, IsLeapYear(1900))
}
