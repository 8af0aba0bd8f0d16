package noaa

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/amy-epw-etl/internal/domain"
)

// isdLiteFieldCount is the number of whitespace-separated fields in an
// ISD-Lite row: year, month, day, hour, then eight measurement columns.
const isdLiteFieldCount = 12

// ParseFile reads an ISD-Lite station-year file into raw observations,
// keeping the five measurement columns the EPW substitution uses and dropping
// sky condition and the two precipitation columns. Values stay in the file's
// scaled units with the -9999 missing sentinel intact. Both gzipped and plain
// files are accepted.
func ParseFile(path string) ([]domain.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r, err := maybeGunzip(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var observations []domain.Observation
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		obs, err := parseRow(text)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		observations = append(observations, obs)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return observations, nil
}

// maybeGunzip sniffs the gzip magic bytes so plain files, common in
// hand-maintained caches, parse the same way as archive downloads.
func maybeGunzip(f io.Reader) (io.Reader, error) {
	br := bufio.NewReader(f)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		return gzip.NewReader(br)
	}
	return br, nil
}

func parseRow(text string) (domain.Observation, error) {
	fields := strings.Fields(text)
	if len(fields) != isdLiteFieldCount {
		return domain.Observation{}, fmt.Errorf("want %d fields, got %d", isdLiteFieldCount, len(fields))
	}

	ordinals := make([]int, 4)
	for i := range ordinals {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return domain.Observation{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		ordinals[i] = v
	}

	values := make([]float64, 5)
	for i := range values {
		v, err := strconv.ParseFloat(fields[4+i], 64)
		if err != nil {
			return domain.Observation{}, fmt.Errorf("field %d: %w", 5+i, err)
		}
		values[i] = v
	}

	return domain.Observation{
		Year:  ordinals[0],
		Month: ordinals[1],
		Day:   ordinals[2],
		Hour:  ordinals[3],

		AirTemperature:   values[0],
		DewPoint:         values[1],
		SeaLevelPressure: values[2],
		WindDirection:    values[3],
		WindSpeed:        values[4],
	}, nil
}
