package noaa

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const listingHTML = `<html><body><pre>
<a href="725300-94846-2018.gz">725300-94846-2018.gz</a>  2019-01-02 10:11  210K
<a href="725300-99999-2018.gz">725300-99999-2018.gz</a>  2019-01-02 10:11  180K
<a href="726430-14920-2018.gz">726430-14920-2018.gz</a>  2019-01-02 10:12  205K
<a href="032130-99999-2018.gz">032130-99999-2018.gz</a>  2019-01-02 10:13  199K
</pre></body></html>`

func TestCatalogCache(t *testing.T) {
	t.Run("scrapes north-american stations and persists the catalog", func(t *testing.T) {
		requests := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			assert.Equal(t, "/2018/", r.URL.Path)
			fmt.Fprint(w, listingHTML)
		}))
		defer srv.Close()

		dir := t.TempDir()
		cache := NewCatalogCache(dir, time.Second, testLogger())
		cache.baseURL = srv.URL

		name, err := cache.FileName(context.Background(), 2018, 725300)
		require.NoError(t, err)
		// First WBAN suffix wins when a station appears twice.
		assert.Equal(t, "725300-94846-2018.gz", name)

		name, err = cache.FileName(context.Background(), 2018, 726430)
		require.NoError(t, err)
		assert.Equal(t, "726430-14920-2018.gz", name)

		// Non-North-American stations are not cataloged.
		_, err = cache.FileName(context.Background(), 2018, 32130)
		assert.Error(t, err)

		// The year was scraped exactly once and the CSV is on disk.
		assert.Equal(t, 1, requests)
		_, err = os.Stat(cache.csvPath(2018))
		require.NoError(t, err)

		// A fresh cache over the same directory resolves without the server.
		srv.Close()
		offline := NewCatalogCache(dir, time.Second, testLogger())
		offline.baseURL = srv.URL
		name, err = offline.FileName(context.Background(), 2018, 725300)
		require.NoError(t, err)
		assert.Equal(t, "725300-94846-2018.gz", name)
	})

	t.Run("empty listing is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "<html><body>nothing here</body></html>")
		}))
		defer srv.Close()

		cache := NewCatalogCache(t.TempDir(), time.Second, testLogger())
		cache.baseURL = srv.URL

		_, err := cache.FileName(context.Background(), 2018, 725300)
		assert.ErrorContains(t, err, "no station files")
	})

	t.Run("upstream failure surfaces the status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		cache := NewCatalogCache(t.TempDir(), time.Second, testLogger())
		cache.baseURL = srv.URL

		_, err := cache.FileName(context.Background(), 2018, 725300)
		assert.ErrorContains(t, err, "status 502")
	})
}
