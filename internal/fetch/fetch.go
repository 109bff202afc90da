// Package fetch synchronizes a catalog directory from a remote artifact
// store over HTTP. Field units download prebuilt catalogs; transient network
// failures retry with exponential backoff and every artifact is checksummed
// against the manifest before it replaces the local copy.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/skyline93/starcat/internal/manifest"
)

// Client downloads catalog artifacts from a base URL.
type Client struct {
	base string
	hc   *http.Client

	// MaxElapsedTime bounds the total retry budget per file.
	MaxElapsedTime time.Duration
}

// New returns a client for the catalog published under baseURL.
func New(baseURL string) *Client {
	return &Client{
		base:           baseURL,
		hc:             &http.Client{Timeout: 5 * time.Minute},
		MaxElapsedTime: 15 * time.Minute,
	}
}

// Sync downloads the remote manifest and any band artifact that is missing
// or fails its checksum locally. Artifacts are written via a temp file and
// renamed, so a torn download never corrupts the catalog.
func (c *Client) Sync(ctx context.Context, root string) error {
	if err := os.MkdirAll(root, 0755); err != nil {
		return errors.Wrap(err, "MkdirAll")
	}

	manifestPath := filepath.Join(root, manifest.FileName)
	if err := c.download(ctx, manifest.FileName, manifestPath); err != nil {
		return errors.Wrap(err, "download manifest")
	}

	man, err := manifest.Load(root)
	if err != nil {
		return errors.Wrap(err, "remote manifest invalid")
	}

	for i := range man.Bands {
		b := &man.Bands[i]
		if err := os.MkdirAll(b.Dir(root), 0755); err != nil {
			return errors.Wrap(err, "MkdirAll")
		}

		files := []struct {
			name string
			dest string
			want manifest.Artifact
		}{
			{manifest.FilterFile, b.FilterPath(root), b.Filter},
			{manifest.IndexFile, b.IndexPath(root), b.Index},
			{manifest.DataFile, b.DataPath(root), b.Data},
		}

		for _, f := range files {
			if manifest.VerifyFile(f.dest, f.want) == nil {
				log.Debugf("band %q %s up to date", b.Name, f.name)
				continue
			}

			remote := path.Join(b.Name, f.name)
			if err := c.download(ctx, remote, f.dest); err != nil {
				return errors.Wrapf(err, "band %q %s", b.Name, f.name)
			}
			if err := manifest.VerifyFile(f.dest, f.want); err != nil {
				return errors.Wrapf(err, "band %q %s", b.Name, f.name)
			}
			log.Infof("fetched band %q %s (%d bytes)", b.Name, f.name, f.want.Size)
		}
	}

	return nil
}

// download fetches one remote file into dest with retries.
func (c *Client) download(ctx context.Context, name, dest string) error {
	u, err := url.JoinPath(c.base, name)
	if err != nil {
		return errors.Wrap(err, "JoinPath")
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.MaxElapsedTime

	return backoff.Retry(func() error {
		return c.fetchOnce(ctx, u, dest)
	}, backoff.WithContext(bo, ctx))
}

func (c *Client) fetchOnce(ctx context.Context, u, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return backoff.Permanent(errors.Wrap(err, "NewRequest"))
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		log.Warnf("fetch %v failed, will retry: %v", u, err)
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		log.Warnf("fetch %v: status %d, will retry", u, resp.StatusCode)
		return fmt.Errorf("status %d", resp.StatusCode)
	default:
		return backoff.Permanent(errors.Errorf("fetch %v: status %d", u, resp.StatusCode))
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".fetch-*")
	if err != nil {
		return backoff.Permanent(errors.Wrap(err, "CreateTemp"))
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		log.Warnf("fetch %v interrupted, will retry: %v", u, err)
		return err
	}
	if err := tmp.Close(); err != nil {
		return backoff.Permanent(errors.Wrap(err, "Close"))
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return backoff.Permanent(errors.Wrap(err, "Rename"))
	}
	return nil
}
