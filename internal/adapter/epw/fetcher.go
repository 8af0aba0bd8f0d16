package epw

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/amy-epw-etl/internal/domain"
	"github.com/couchcryptid/amy-epw-etl/internal/observability"
)

// DefaultCatalogURL is the index page listing TMY3 zips for every United
// States WMO station. It is one large page, so it is fetched at most once per
// Fetcher lifetime.
const DefaultCatalogURL = "https://climate.onebuilding.org/WMO_Region_4_North_and_Central_America/USA_United_States_of_America/"

// Fetcher retrieves TMY3 EPW template files into a local cache directory,
// resolving each WMO index against the catalog page and extracting the .epw
// from the station's zip archive.
type Fetcher struct {
	cacheDir       string
	allowDownloads bool
	catalogURL     string
	httpClient     *http.Client
	logger         *slog.Logger
	metrics        *observability.Metrics

	mu          sync.Mutex
	catalogHTML string
}

// NewFetcher creates a TMY EPW fetcher caching downloads under cacheDir.
func NewFetcher(cacheDir string, allowDownloads bool, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	return &Fetcher{
		cacheDir:       cacheDir,
		allowDownloads: allowDownloads,
		catalogURL:     DefaultCatalogURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// Fetch returns the local path of the TMY3 EPW file for a station, downloading
// and extracting it first when absent and downloads are allowed.
func (f *Fetcher) Fetch(ctx context.Context, wmoIndex int) (string, error) {
	pattern := filepath.Join(f.cacheDir, fmt.Sprintf("*.%d_TMY3.epw", wmoIndex))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("scan TMY cache: %w", err)
	}
	if len(matches) > 0 {
		return matches[0], nil
	}

	if !f.allowDownloads {
		return "", &domain.DownloadNotAllowedError{Path: pattern, URL: f.catalogURL}
	}

	html, err := f.catalog(ctx)
	if err != nil {
		return "", err
	}

	hrefPattern := regexp.MustCompile(fmt.Sprintf(`href="([^"]*\.%d_TMY3\.zip)"`, wmoIndex))
	match := hrefPattern.FindStringSubmatch(html)
	if match == nil {
		return "", fmt.Errorf("no TMY file for WMO %d at %s", wmoIndex, f.catalogURL)
	}

	zipURL := f.catalogURL + match[1]
	epwName := strings.TrimSuffix(path.Base(match[1]), ".zip") + ".epw"
	epwPath := filepath.Join(f.cacheDir, epwName)

	if err := f.downloadEPW(ctx, zipURL, epwName, epwPath); err != nil {
		return "", err
	}
	f.metrics.DownloadsTotal.WithLabelValues("tmy").Inc()
	f.logger.Info("downloaded TMY EPW file", "wmo_index", wmoIndex, "path", epwPath)
	return epwPath, nil
}

// Template fetches and parses the station's TMY EPW file in one step. Each
// call parses afresh; callers own and may mutate the returned record.
func (f *Fetcher) Template(ctx context.Context, wmoIndex int) (*Record, error) {
	path, err := f.Fetch(ctx, wmoIndex)
	if err != nil {
		return nil, err
	}
	return ParseFile(path)
}

// catalog returns the catalog page HTML, downloading it on first use.
func (f *Fetcher) catalog(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.catalogHTML != "" {
		return f.catalogHTML, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.catalogURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch TMY catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("TMY catalog %s: status %d", f.catalogURL, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read TMY catalog: %w", err)
	}
	f.catalogHTML = string(body)
	return f.catalogHTML, nil
}

// downloadEPW fetches the station's zip to a temp file and extracts the EPW
// member into the cache.
func (f *Fetcher) downloadEPW(ctx context.Context, zipURL, epwName, epwPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, zipURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", zipURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: status %d", zipURL, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(f.cacheDir, "tmy*.zip")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}

	zr, err := zip.OpenReader(tmp.Name())
	if err != nil {
		return fmt.Errorf("open zip %s: %w", zipURL, err)
	}
	defer zr.Close()

	for _, member := range zr.File {
		if path.Base(member.Name) != epwName {
			continue
		}
		return extractMember(member, epwPath)
	}
	return fmt.Errorf("zip %s does not contain %s", zipURL, epwName)
}

func extractMember(member *zip.File, dst string) error {
	src, err := member.Open()
	if err != nil {
		return fmt.Errorf("open zip member %s: %w", member.Name, err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("extract %s: %w", member.Name, err)
	}
	return out.Close()
}
