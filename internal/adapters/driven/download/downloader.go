package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/licitaware/editais-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Downloader = (*HTTPDownloader)(nil)

// HTTPDownloader streams a presigned URL to a local temporary file, bounded
// by a byte quota so a hostile URL cannot fill the disk.
type HTTPDownloader struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPDownloader creates a downloader with the given request timeout and
// size bound. Zero values fall back to 2 minutes and 200 MiB.
func NewHTTPDownloader(timeout time.Duration, maxBytes int64) *HTTPDownloader {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if maxBytes <= 0 {
		maxBytes = 200 << 20
	}
	return &HTTPDownloader{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// Download fetches url into a temporary file and returns its path.
// The caller owns the file and removes it on every exit path.
func (d *HTTPDownloader) Download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building download request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "edital-*")
	if err != nil {
		return "", fmt.Errorf("creating temporary file: %w", err)
	}

	written, err := io.Copy(tmp, io.LimitReader(resp.Body, d.maxBytes+1))
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing download: %w", err)
	}
	if written > d.maxBytes {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("download exceeds %d byte limit", d.maxBytes)
	}

	return tmp.Name(), nil
}
