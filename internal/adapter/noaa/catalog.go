package noaa

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
)

// DefaultBaseURL is the root of NOAA's public ISD-Lite archive. Files live
// under {base}/{year}/{file}.
const DefaultBaseURL = "https://www1.ncdc.noaa.gov/pub/data/noaa/isd-lite"

// fileHrefPattern matches anchors in a per-year directory listing that point
// at North-American station files (WMO indexes start with 7).
var fileHrefPattern = regexp.MustCompile(`href="((7\d+)-[^"]*\.gz)"`)

// catalogEntry is one row of the on-disk catalog CSV.
type catalogEntry struct {
	WMOIndex int    `csv:"wmo_index"`
	FileName string `csv:"file_name"`
}

// CatalogCache maps WMO indexes to their ISD-Lite file names, one catalog per
// year, scraped from the archive's directory listing. Each year's catalog is
// persisted as a CSV in the cache directory so later runs, and later stations
// within the same run, never re-scrape.
type CatalogCache struct {
	dir        string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.Mutex
	years map[int]map[int]string
}

// NewCatalogCache creates a catalog cache storing per-year CSVs under dir.
func NewCatalogCache(dir string, timeout time.Duration, logger *slog.Logger) *CatalogCache {
	return &CatalogCache{
		dir:     dir,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
		years:  make(map[int]map[int]string),
	}
}

// FileName resolves the archive file name for a station-year, loading or
// scraping the year's catalog as needed.
func (c *CatalogCache) FileName(ctx context.Context, year, wmoIndex int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	catalog, ok := c.years[year]
	if !ok {
		var err error
		catalog, err = c.loadYear(ctx, year)
		if err != nil {
			return "", err
		}
		c.years[year] = catalog
	}

	name, ok := catalog[wmoIndex]
	if !ok {
		return "", fmt.Errorf("no ISD-Lite file for WMO %d in the %d catalog", wmoIndex, year)
	}
	return name, nil
}

func (c *CatalogCache) loadYear(ctx context.Context, year int) (map[int]string, error) {
	path := c.csvPath(year)
	entries, err := readCatalogCSV(path)
	if err == nil {
		return indexEntries(entries), nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	entries, err = c.scrapeYear(ctx, year)
	if err != nil {
		return nil, err
	}
	if err := writeCatalogCSV(path, entries); err != nil {
		return nil, fmt.Errorf("persist catalog %s: %w", path, err)
	}
	c.logger.Info("scraped ISD-Lite catalog", "year", year, "stations", len(entries))
	return indexEntries(entries), nil
}

// scrapeYear pulls the per-year directory listing and extracts every
// North-American station file it links to.
func (c *CatalogCache) scrapeYear(ctx context.Context, year int) ([]catalogEntry, error) {
	listingURL := fmt.Sprintf("%s/%d/", c.baseURL, year)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog listing %s: status %d", listingURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog listing: %w", err)
	}

	var entries []catalogEntry
	seen := make(map[int]struct{})
	for _, match := range fileHrefPattern.FindAllStringSubmatch(string(body), -1) {
		wmo, err := strconv.Atoi(match[2])
		if err != nil {
			continue
		}
		// Some stations appear under several WBAN suffixes; keep the first.
		if _, dup := seen[wmo]; dup {
			continue
		}
		seen[wmo] = struct{}{}
		entries = append(entries, catalogEntry{WMOIndex: wmo, FileName: match[1]})
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog listing %s contained no station files", listingURL)
	}
	return entries, nil
}

func (c *CatalogCache) csvPath(year int) string {
	return filepath.Join(c.dir, fmt.Sprintf("isd-lite-catalog-%d.csv", year))
}

func readCatalogCSV(path string) ([]catalogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []catalogEntry
	if err := gocsv.UnmarshalFile(f, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func writeCatalogCSV(path string, entries []catalogEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(&entries, f)
}

func indexEntries(entries []catalogEntry) map[int]string {
	byWMO := make(map[int]string, len(entries))
	for _, e := range entries {
		if _, dup := byWMO[e.WMOIndex]; !dup {
			byWMO[e.WMOIndex] = e.FileName
		}
	}
	return byWMO
}
