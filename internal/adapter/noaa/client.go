package noaa

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/amy-epw-etl/internal/domain"
	"github.com/couchcryptid/amy-epw-etl/internal/observability"
)

// Client fetches raw ISD-Lite station-year files into a local cache
// directory. Files already present are reused as-is; when a file is absent and
// downloads are not allowed, Fetch fails with the URL the caller would need.
type Client struct {
	cacheDir       string
	allowDownloads bool
	baseURL        string
	httpClient     *http.Client
	catalog        *CatalogCache
	logger         *slog.Logger
	metrics        *observability.Metrics
}

// NewClient creates an ISD-Lite client caching downloads under cacheDir.
func NewClient(cacheDir string, allowDownloads bool, catalog *CatalogCache, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		cacheDir:       cacheDir,
		allowDownloads: allowDownloads,
		baseURL:        DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		catalog: catalog,
		logger:  logger,
		metrics: metrics,
	}
}

// Fetch returns the local path of the ISD-Lite file for a station-year,
// downloading it first if it is absent and downloads are allowed.
func (c *Client) Fetch(ctx context.Context, wmoIndex, year int) (string, error) {
	name, err := c.catalog.FileName(ctx, year, wmoIndex)
	if err != nil {
		return "", fmt.Errorf("resolve ISD-Lite file for WMO %d year %d: %w", wmoIndex, year, err)
	}

	path := filepath.Join(c.cacheDir, name)
	fileURL := fmt.Sprintf("%s/%d/%s", c.baseURL, year, name)

	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	if !c.allowDownloads {
		return "", &domain.DownloadNotAllowedError{Path: path, URL: fileURL}
	}

	if err := c.download(ctx, fileURL, path); err != nil {
		return "", err
	}
	c.metrics.DownloadsTotal.WithLabelValues("isd_lite").Inc()
	c.logger.Info("downloaded ISD-Lite file", "wmo_index", wmoIndex, "year", year, "path", path)
	return path, nil
}

// Observations fetches and parses the station-year in one step.
func (c *Client) Observations(ctx context.Context, wmoIndex, year int) ([]domain.Observation, error) {
	path, err := c.Fetch(ctx, wmoIndex, year)
	if err != nil {
		return nil, err
	}
	return ParseFile(path)
}

func (c *Client) download(ctx context.Context, fileURL, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", fileURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: status %d", fileURL, resp.StatusCode)
	}

	// Write to a temp name first so a partial download never looks like a
	// cached file to a later run.
	tmp, err := os.CreateTemp(c.cacheDir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move download into place: %w", err)
	}
	return nil
}
