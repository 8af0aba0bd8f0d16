// Command genmock writes synthetic NOAA ISD-Lite station-year files and a
// matching TMY3 EPW template, so the generation pipeline can be exercised
// end to end without network access. The weather signal is a smooth daily and
// seasonal cycle, which makes gap-filling output easy to eyeball.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -station 725300 -wban 94846 -years 2017,2018 \
//	  -gaps 2000:10,5000:3 \
//	  -isd-out data/isd-lite -tmy-out data/tmy
package main

import (
	"compress/gzip"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	station := flag.Int("station", 725300, "WMO station index")
	wban := flag.Int("wban", 94846, "WBAN identifier used in the file name")
	years := flag.String("years", "", "comma-separated years to generate")
	gaps := flag.String("gaps", "", "missing runs as start:count hour pairs, e.g. 2000:10,5000:3")
	isdOut := flag.String("isd-out", "data/isd-lite", "output directory for ISD-Lite files")
	tmyOut := flag.String("tmy-out", "data/tmy", "output directory for the TMY EPW template")
	flag.Parse()

	yearList, err := parseYears(*years)
	if err != nil {
		flag.Usage()
		return err
	}
	gapList, err := parseGaps(*gaps)
	if err != nil {
		flag.Usage()
		return err
	}

	for _, dir := range []string{*isdOut, *tmyOut} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	for _, year := range yearList {
		path := filepath.Join(*isdOut, fmt.Sprintf("%06d-%05d-%d.gz", *station, *wban, year))
		if err := writeISDLiteYear(path, year, gapList); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		log.Printf("wrote ISD-Lite year: %s", path)
	}

	tmyPath := filepath.Join(*tmyOut, fmt.Sprintf("USA_NY_Mock.Station.%d_TMY3.epw", *station))
	if err := writeTMYTemplate(tmyPath, *station); err != nil {
		return fmt.Errorf("writing %s: %w", tmyPath, err)
	}
	log.Printf("wrote TMY template: %s", tmyPath)
	return nil
}

type gapSpec struct {
	start, count int
}

func parseYears(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("missing required flag: -years")
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		year, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("year %q is not a number", part)
		}
		out = append(out, year)
	}
	return out, nil
}

func parseGaps(s string) ([]gapSpec, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []gapSpec
	for _, part := range strings.Split(s, ",") {
		start, count, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("gap %q is not a start:count pair", part)
		}
		g := gapSpec{}
		var err error
		if g.start, err = strconv.Atoi(start); err != nil {
			return nil, fmt.Errorf("gap start %q is not a number", start)
		}
		if g.count, err = strconv.Atoi(count); err != nil {
			return nil, fmt.Errorf("gap count %q is not a number", count)
		}
		out = append(out, g)
	}
	return out, nil
}

func inGap(hour int, gaps []gapSpec) bool {
	for _, g := range gaps {
		if hour >= g.start && hour < g.start+g.count {
			return true
		}
	}
	return false
}

// writeISDLiteYear emits one gzipped station-year in the twelve-column
// ISD-Lite layout: temperatures and wind speed in tenths, pressure in tenths
// of hPa, and -9999 in the three columns the pipeline ignores.
func writeISDLiteYear(path string, year int, gaps []gapSpec) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	zw := gzip.NewWriter(f)

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i, ts := 0, start; ts.Before(end); i, ts = i+1, ts.Add(time.Hour) {
		if inGap(i, gaps) {
			continue
		}
		temp, dew, slp, wdir, wspd := syntheticWeather(i)
		fmt.Fprintf(zw, "%d %02d %02d %02d %5d %5d %5d %5d %5d -9999 -9999 -9999\n",
			ts.Year(), int(ts.Month()), ts.Day(), ts.Hour(), temp, dew, slp, wdir, wspd)
	}

	if err := zw.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// syntheticWeather returns scaled ISD-Lite values for one hour offset: a
// seasonal sine with a smaller daily cycle riding on it.
func syntheticWeather(hour int) (temp, dew, slp, wdir, wspd int) {
	seasonal := math.Sin(2 * math.Pi * float64(hour) / 8760)
	daily := math.Sin(2 * math.Pi * float64(hour%24) / 24)

	temp = int(math.Round(100 + 150*seasonal + 40*daily))
	dew = temp - 45
	slp = int(math.Round(10132 + 20*seasonal))
	wdir = (hour * 10) % 360
	wspd = int(math.Round(40 + 25*daily))
	if wspd < 0 {
		wspd = 0
	}
	return temp, dew, slp, wdir, wspd
}

// writeTMYTemplate emits a minimal 8760-row TMY3 EPW file with the header
// fields the pipeline reads.
func writeTMYTemplate(path string, station int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(f, "LOCATION,Mock Station,NY,USA,TMY3,%06d,40.78,-73.97,-5.0,5.0\n", station)
	fmt.Fprintln(f, "DESIGN CONDITIONS,0")
	fmt.Fprintln(f, "TYPICAL/EXTREME PERIODS,0")
	fmt.Fprintln(f, "GROUND TEMPERATURES,0")
	fmt.Fprintln(f, "HOLIDAYS/DAYLIGHT SAVINGS,No,0,0,0")
	fmt.Fprintln(f, "COMMENTS 1,Synthetic template generated by genmock")
	fmt.Fprintln(f, "COMMENTS 2,--")
	fmt.Fprintln(f, "DATA PERIODS,1,1,Data,Sunday, 1/1, 12/31")

	start := time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 8760; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		fmt.Fprintf(f, "%d,%d,%d,%d,0,?9?9?9?9",
			ts.Year(), int(ts.Month()), ts.Day(), ts.Hour()+1)
		// 29 weather columns; the pipeline overwrites the five it substitutes.
		for col := 0; col < 29; col++ {
			fmt.Fprint(f, ",0")
		}
		fmt.Fprintln(f)
	}
	return f.Close()
}
