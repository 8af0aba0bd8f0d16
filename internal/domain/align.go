package domain

import (
	"fmt"
	"time"
)

// MaxLookaheadHours bounds how much of the following year's data alignment
// will consume: enough to cover the largest possible time-zone shift.
const MaxLookaheadHours = 24

// AlignToYear builds a continuous hourly series spanning exactly the target
// year from raw observations of that year plus a prefix of the following
// year. The lookahead exists because shifting from GMT into the station's
// time zone moves the first hours of January 1 into the final hours of
// December 31.
//
// Rows are keyed by timestamp with the first occurrence winning on
// duplicates. Every timestamp is shifted by tzOffsetHours, then the result is
// reindexed against the complete hourly range from Jan 1 00:00 through Dec 31
// 23:00 of targetYear: hours with no shifted observation become fully-absent
// rows rather than being dropped. A lookahead too short to cover the shift is
// not an error here; the resulting edge holes are ordinary gaps for the fill
// stage.
func AlignToYear(current, lookahead []Observation, tzOffsetHours, targetYear int) (*ObservationSeries, error) {
	if tzOffsetHours < -12 || tzOffsetHours > 12 {
		return nil, fmt.Errorf("time-zone offset %d out of range -12..12", tzOffsetHours)
	}

	if len(lookahead) > MaxLookaheadHours {
		lookahead = lookahead[:MaxLookaheadHours]
	}

	shift := time.Duration(tzOffsetHours) * time.Hour
	byHour := make(map[time.Time]Observation, len(current)+len(lookahead))
	for _, obs := range current {
		key := obs.Timestamp().Add(shift)
		if _, dup := byHour[key]; !dup {
			byHour[key] = obs
		}
	}
	for _, obs := range lookahead {
		key := obs.Timestamp().Add(shift)
		if _, dup := byHour[key]; !dup {
			byHour[key] = obs
		}
	}

	index := YearHourIndex(targetYear)
	s := NewSeries(index, ISDLiteColumns)
	for i, ts := range index {
		obs, ok := byHour[ts]
		if !ok {
			continue
		}
		for _, name := range ISDLiteColumns {
			s.Column(name)[i] = obs.value(name)
		}
	}
	return s, nil
}

// YearHourIndex returns the complete hourly index for a calendar year, from
// Jan 1 00:00 through Dec 31 23:00 UTC: 8760 entries, or 8784 for leap years.
func YearHourIndex(year int) []time.Time {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	index := make([]time.Time, 0, int(end.Sub(start)/time.Hour))
	for ts := start; ts.Before(end); ts = ts.Add(time.Hour) {
		index = append(index, ts)
	}
	return index
}

// IsLeapYear reports whether a year has 366 days.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
