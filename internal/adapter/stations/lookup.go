// Package stations resolves WMO station indexes to their United States state
// and county using the EPA's Weather_Stations_by_County catalog.
package stations

import (
	"fmt"
	"os"
	"strconv"

	"github.com/gocarina/gocsv"
)

// Location is where a weather station sits.
type Location struct {
	State  string
	County string
}

// stationRow matches the catalog's header names. The file carries many more
// columns; only these three are read.
type stationRow struct {
	State    string `csv:"State"`
	County   string `csv:"County"`
	WMOIndex string `csv:"Station WMO Identifier"`
}

// Lookup answers WMO location queries from an in-memory copy of the catalog.
type Lookup struct {
	byWMO map[int]Location
}

// NewLookup loads the station catalog CSV. Rows without a parseable WMO index
// are skipped; when a station appears in several counties the first row wins.
func NewLookup(path string) (*Lookup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open station catalog: %w", err)
	}
	defer f.Close()

	var rows []stationRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parse station catalog %s: %w", path, err)
	}

	byWMO := make(map[int]Location, len(rows))
	for _, row := range rows {
		wmo, err := strconv.Atoi(row.WMOIndex)
		if err != nil {
			continue
		}
		if _, dup := byWMO[wmo]; !dup {
			byWMO[wmo] = Location{State: row.State, County: row.County}
		}
	}
	return &Lookup{byWMO: byWMO}, nil
}

// Find returns the station's location, or false when the catalog has no row
// for the index.
func (l *Lookup) Find(wmoIndex int) (Location, bool) {
	loc, ok := l.byWMO[wmoIndex]
	return loc, ok
}
