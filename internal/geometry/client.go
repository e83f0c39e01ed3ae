package geometry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/models"
)

// FetchError is a recoverable per-region boundary load failure. The
// controller surfaces it to the caller and leaves the previously rendered
// region untouched; there is no automatic retry, the user reselects.
type FetchError struct {
	Region string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to load boundaries for region %s: %v", e.Region, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher loads the boundary Set for one region on demand.
type Fetcher interface {
	Fetch(ctx context.Context, region models.Region) (*Set, error)
}

// HTTPFetcher loads boundary files from a remote base URL.
type HTTPFetcher struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPFetcher creates a fetcher for baseURL with the given per-request
// timeout.
func NewHTTPFetcher(baseURL string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch downloads and parses the region's boundary file. A single attempt:
// a failed fetch is reported, never retried.
func (f *HTTPFetcher) Fetch(ctx context.Context, region models.Region) (*Set, error) {
	url := fmt.Sprintf("%s/%s", f.baseURL, region.GeometryFile)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Region: region.ID, Err: err}
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Region: region.ID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Region: region.ID, Err: fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Region: region.ID, Err: err}
	}

	set, err := Parse(data, region.ID)
	if err != nil {
		return nil, &FetchError{Region: region.ID, Err: err}
	}
	return set, nil
}

// DirFetcher loads boundary files from a local directory.
type DirFetcher struct {
	dir string
}

// NewDirFetcher creates a fetcher reading boundary files under dir.
func NewDirFetcher(dir string) *DirFetcher {
	return &DirFetcher{dir: dir}
}

// Fetch reads and parses the region's boundary file from disk.
func (f *DirFetcher) Fetch(ctx context.Context, region models.Region) (*Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Region: region.ID, Err: err}
	}

	data, err := os.ReadFile(filepath.Join(f.dir, region.GeometryFile))
	if err != nil {
		return nil, &FetchError{Region: region.ID, Err: err}
	}

	set, err := Parse(data, region.ID)
	if err != nil {
		return nil, &FetchError{Region: region.ID, Err: err}
	}
	return set, nil
}
