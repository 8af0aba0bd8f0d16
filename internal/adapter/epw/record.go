package epw

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// EPW observation column short names, in body order following the five date
// ordinals and the data-source flag field. The names follow the TMY3 manual's
// abbreviations (https://www.nrel.gov/docs/fy08osti/43156.pdf).
const (
	ColTdb    = "Tdb"
	ColTdew   = "Tdew"
	ColPatm   = "Patm"
	ColWdir   = "Wdir"
	ColWspeed = "Wspeed"
)

// ObservationColumns lists the 29 weather columns of an EPW data row.
var ObservationColumns = []string{
	ColTdb, ColTdew, "RH", ColPatm, "ExHorRad", "ExDirNormRad", "HorIR",
	"GHRad", "DNRad", "DHRad", "GHIll", "DNIll", "DHIll", "ZenLum",
	ColWdir, ColWspeed, "TotSkyCover", "OpSkyCover", "Visib", "CeilH",
	"PresWeathObs", "PresWeathCodes", "PrecWater", "AerOptDepth",
	"SnowDepth", "DSLS", "Albedo", "LiqPrecDepth", "LiqPrecQuant",
}

// validRanges are the per-variable bounds an EPW file must satisfy for the
// columns this pipeline substitutes.
var validRanges = map[string][2]float64{
	ColTdb:    {-70, 70},
	ColTdew:   {-70, 70},
	ColPatm:   {31000, 120000},
	ColWspeed: {0, 40},
	ColWdir:   {0, 360},
}

const (
	headerLineCount = 8
	fieldsPerRow    = 35

	hoursPerYear     = 8760
	hoursPerLeapYear = 8784
)

var stationNumberPattern = regexp.MustCompile(`^\d{6}$`)

// Record is a parsed EPW file: location metadata from the header, the header
// lines retained verbatim for rewriting, and one year of hourly observations.
type Record struct {
	City          string
	State         string
	Country       string
	StationNumber string
	Latitude      float64
	Longitude     float64
	TZOffset      float64
	Elevation     float64

	// Lines 2 through 5 of the header (design conditions through holidays),
	// carried into the output unchanged.
	retainedHeaders []string
	// The COMMENTS 1 line, verbatim.
	comment string

	years   []int
	months  []int
	days    []int
	hours   []int
	minutes []int
	flags   []string
	columns map[string][]float64
}

// ParseFile reads an EPW file, typically a TMY3 template.
func ParseFile(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var headers []string
	for len(headers) < headerLineCount && scanner.Scan() {
		headers = append(headers, strings.TrimRight(scanner.Text(), "\r"))
	}
	if len(headers) < headerLineCount {
		return nil, fmt.Errorf("%s: want %d header lines, got %d", path, headerLineCount, len(headers))
	}

	r := &Record{
		retainedHeaders: headers[1:5],
		comment:         headers[5],
		columns:         make(map[string][]float64, len(ObservationColumns)),
	}
	if err := r.parseLocation(headers[0]); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	for line := headerLineCount + 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if err := r.parseRow(text); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if r.Len() == 0 {
		return nil, fmt.Errorf("%s: no observation rows", path)
	}
	return r, nil
}

func (r *Record) parseLocation(line string) error {
	fields := strings.Split(line, ",")
	if len(fields) < 10 || fields[0] != "LOCATION" {
		return fmt.Errorf("malformed LOCATION header %q", line)
	}

	r.City = fields[1]
	r.State = fields[2]
	r.Country = fields[3]
	r.StationNumber = fields[5]
	if !stationNumberPattern.MatchString(r.StationNumber) {
		return fmt.Errorf("station number %q is not a six-digit number", r.StationNumber)
	}

	var err error
	if r.Latitude, err = strconv.ParseFloat(fields[6], 64); err != nil {
		return fmt.Errorf("latitude: %w", err)
	}
	if r.Longitude, err = strconv.ParseFloat(fields[7], 64); err != nil {
		return fmt.Errorf("longitude: %w", err)
	}
	if r.TZOffset, err = strconv.ParseFloat(fields[8], 64); err != nil {
		return fmt.Errorf("time-zone offset: %w", err)
	}
	if r.Elevation, err = strconv.ParseFloat(fields[9], 64); err != nil {
		return fmt.Errorf("elevation: %w", err)
	}

	switch {
	case r.Latitude < -90 || r.Latitude > 90:
		return fmt.Errorf("latitude %v out of range -90..90", r.Latitude)
	case r.Longitude < -180 || r.Longitude > 180:
		return fmt.Errorf("longitude %v out of range -180..180", r.Longitude)
	case r.TZOffset < -12 || r.TZOffset > 12:
		return fmt.Errorf("time-zone offset %v out of range -12..12", r.TZOffset)
	}
	return nil
}

func (r *Record) parseRow(text string) error {
	fields := strings.Split(text, ",")
	if len(fields) != fieldsPerRow {
		return fmt.Errorf("want %d fields, got %d", fieldsPerRow, len(fields))
	}

	ordinals := make([]int, 5)
	for i := range ordinals {
		v, err := strconv.Atoi(strings.TrimSpace(fields[i]))
		if err != nil {
			return fmt.Errorf("field %d: %w", i+1, err)
		}
		ordinals[i] = v
	}

	r.years = append(r.years, ordinals[0])
	r.months = append(r.months, ordinals[1])
	r.days = append(r.days, ordinals[2])
	r.hours = append(r.hours, ordinals[3])
	r.minutes = append(r.minutes, ordinals[4])
	r.flags = append(r.flags, fields[5])

	for i, name := range ObservationColumns {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[6+i]), 64)
		if err != nil {
			return fmt.Errorf("column %s: %w", name, err)
		}
		r.columns[name] = append(r.columns[name], v)
	}
	return nil
}

// Len returns the number of observation rows.
func (r *Record) Len() int {
	return len(r.years)
}

// Column returns the named observation column's backing slice, or nil if the
// name is unknown.
func (r *Record) Column(name string) []float64 {
	return r.columns[name]
}

// TimeZoneOffset returns the station's offset from GMT in whole hours.
func (r *Record) TimeZoneOffset() int {
	return int(r.TZOffset)
}

// Set replaces an observation column with the given values.
func (r *Record) Set(name string, values []float64) error {
	if _, ok := r.columns[name]; !ok {
		return fmt.Errorf("%s is not an observation column", name)
	}
	if len(values) != r.Len() {
		return fmt.Errorf("column %s: got %d values for %d rows", name, len(values), r.Len())
	}
	r.columns[name] = values
	return nil
}

// SetAll sets every cell of an observation column to the same value.
func (r *Record) SetAll(name string, value float64) error {
	if _, ok := r.columns[name]; !ok {
		return fmt.Errorf("%s is not an observation column", name)
	}
	col := make([]float64, r.Len())
	for i := range col {
		col[i] = value
	}
	r.columns[name] = col
	return nil
}

// SetYear stamps every row's year ordinal.
func (r *Record) SetYear(year int) {
	for i := range r.years {
		r.years[i] = year
	}
}

// Validate checks the substituted columns against the EPW per-variable bounds
// and reports every violating column.
func (r *Record) Validate() error {
	var violations []string
	for _, name := range ObservationColumns {
		bounds, checked := validRanges[name]
		if !checked {
			continue
		}
		lo, hi := bounds[0], bounds[1]
		for _, v := range r.columns[name] {
			if v < lo || v > hi {
				violations = append(violations,
					fmt.Sprintf("%s must be in the range %v..%v, found %v", name, lo, hi, v))
				break
			}
		}
	}
	if len(violations) > 0 {
		return fmt.Errorf("EPW validation failed: %s", strings.Join(violations, "; "))
	}
	return nil
}

// amyComment is the COMMENTS 2 line stamped into generated files.
const amyComment = "COMMENTS 2, TMY3 data from energyplus.net/weather supplemented with NOAA ISD Lite data from " +
	"https://www1.ncdc.noaa.gov/pub/data/noaa/isd-lite/ for an actual meteorological year (AMY)"

// WriteFile writes the record as an EPW file: a rebuilt LOCATION line, the
// retained header lines, the original COMMENTS 1, the AMY COMMENTS 2, a DATA
// PERIODS line naming the weekday of the first observation, then the body.
func (r *Record) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "LOCATION,%s,%s,%s,customized weather file,%s,%s,%s,%s,%s\n",
		r.City, r.State, r.Country, r.StationNumber,
		formatFloat(r.Latitude), formatFloat(r.Longitude),
		formatFloat(r.TZOffset), formatFloat(r.Elevation))
	for _, line := range r.retainedHeaders {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, r.comment)
	fmt.Fprintln(w, amyComment)

	firstDay := time.Date(r.years[0], time.Month(r.months[0]), r.days[0], 0, 0, 0, 0, time.UTC)
	fmt.Fprintf(w, "DATA PERIODS,1,1,Data,%s, 1/1, 12/31\n", firstDay.Weekday())

	for i := 0; i < r.Len(); i++ {
		fmt.Fprintf(w, "%d,%d,%d,%d,%d,%s",
			r.years[i], r.months[i], r.days[i], r.hours[i], r.minutes[i], r.flags[i])
		for _, name := range ObservationColumns {
			w.WriteByte(',')
			w.WriteString(formatFloat(r.columns[name][i]))
		}
		w.WriteByte('\n')
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
