package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyline93/starcat/internal/builder"
	"github.com/skyline93/starcat/internal/catalog"
	"github.com/skyline93/starcat/internal/compress"
	"github.com/skyline93/starcat/internal/starrec"
)

func buildRemote(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	_, err := builder.Build(root, builder.Config{
		Epoch: 2016.0,
		Bands: []builder.BandConfig{
			{Name: "band0", MagMin: -2, MagMax: 9, Resolution: 2, Compression: compress.Zstd},
		},
	}, []starrec.Star{
		{RADeg: 10, DecDeg: 10, Mag: 4},
		{RADeg: 11, DecDeg: 11, Mag: 7},
	})
	require.NoError(t, err)
	return root
}

func TestSyncDownloadsWorkingCatalog(t *testing.T) {
	remote := buildRemote(t)
	srv := httptest.NewServer(http.FileServer(http.Dir(remote)))
	defer srv.Close()

	local := filepath.Join(t.TempDir(), "catalog")
	c := New(srv.URL)
	require.NoError(t, c.Sync(context.Background(), local))

	cat, err := catalog.Open(local, catalog.Options{VerifyOnOpen: true})
	require.NoError(t, err)
	defer cat.Close()

	stars := cat.ConeQuery(context.Background(), 10, 10, 2, 9, time.Now())
	assert.NotEmpty(t, stars)
}

func TestSyncSkipsUpToDateFiles(t *testing.T) {
	remote := buildRemote(t)

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.FileServer(http.Dir(remote)).ServeHTTP(w, r)
	}))
	defer srv.Close()

	local := filepath.Join(t.TempDir(), "catalog")
	c := New(srv.URL)
	require.NoError(t, c.Sync(context.Background(), local))

	// manifest + 3 band artifacts.
	assert.Equal(t, int64(4), hits.Load())

	// Second sync re-fetches only the manifest.
	require.NoError(t, c.Sync(context.Background(), local))
	assert.Equal(t, int64(5), hits.Load())
}

func TestSyncRetriesTransientErrors(t *testing.T) {
	remote := buildRemote(t)

	var failures atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failures.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		http.FileServer(http.Dir(remote)).ServeHTTP(w, r)
	}))
	defer srv.Close()

	local := filepath.Join(t.TempDir(), "catalog")
	c := New(srv.URL)
	c.MaxElapsedTime = 30 * time.Second

	require.NoError(t, c.Sync(context.Background(), local))
}

func TestSyncNotFoundIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := New(srv.URL)
	c.MaxElapsedTime = 2 * time.Second

	start := time.Now()
	err := c.Sync(context.Background(), filepath.Join(t.TempDir(), "catalog"))
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "404 must not be retried until the budget runs out")
}

func TestSyncRejectsCorruptArtifact(t *testing.T) {
	remote := buildRemote(t)

	// Corrupt the data blob after the manifest was written.
	data := filepath.Join(remote, "band0", "data")
	require.NoError(t, os.WriteFile(data, []byte("garbage"), 0644))

	srv := httptest.NewServer(http.FileServer(http.Dir(remote)))
	defer srv.Close()

	c := New(srv.URL)
	err := c.Sync(context.Background(), filepath.Join(t.TempDir(), "catalog"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "band0")
}
