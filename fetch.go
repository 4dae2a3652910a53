package beethovision

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// fetcher downloads remote files (the metadata archive and the landmark
// model asset) to local paths.
type fetcher struct {
	// httpClient is used for all HTTP requests.
	httpClient HTTPClient

	// logger receives diagnostic messages. May be nil.
	logger Logger
}

// newFetcher creates a fetcher using the given HTTP client.
func newFetcher(client HTTPClient, logger Logger) *fetcher {
	return &fetcher{httpClient: client, logger: logger}
}

// fetch downloads url to destPath. The file is written to a temp path and
// renamed into place so a failed download never leaves a partial file at
// destPath. The onProgress callback, if non-nil, receives the advertised
// total size and the cumulative bytes written.
//
// Share links that answer with an HTML interstitial (drive-style virus-scan
// warning for large files) are retried once with the confirm token taken
// from the response cookies.
func (f *fetcher) fetch(ctx context.Context, url, destPath string, onProgress func(total, completed int64)) error {
	resp, err := f.get(ctx, url)
	if err != nil {
		return err
	}

	if isInterstitial(resp) {
		token := confirmToken(resp)
		resp.Body.Close()
		if f.logger != nil {
			f.logger.Debug("share link interstitial, retrying with confirm token", "url", url)
		}
		resp, err = f.get(ctx, confirmURL(url, token))
		if err != nil {
			return err
		}
		if isInterstitial(resp) {
			resp.Body.Close()
			return fmt.Errorf("share link %s: interstitial after confirm: %w", url, ErrFetchError)
		}
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if onProgress != nil {
		total := resp.ContentLength
		if total < 0 {
			total = 0
		}
		var completed int64
		reader = &progressReader{reader: resp.Body, onProgress: func(delta int64) {
			completed += delta
			onProgress(total, completed)
		}}
	}

	return f.saveTo(destPath, reader)
}

// get issues a single GET request and checks the status code.
func (f *fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, ErrNetworkError)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: status %d: %w", url, resp.StatusCode, ErrFetchError)
	}

	return resp, nil
}

// saveTo streams r to path using write-then-rename for atomicity.
func (f *fetcher) saveTo(path string, r io.Reader) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create directory: %v", ErrStorageError, err)
	}

	tmp := path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %v", ErrStorageError, err)
	}

	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("downloading to %s: %w", path, ErrNetworkError)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: failed to close temp file: %v", ErrStorageError, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: failed to rename temp file: %v", ErrStorageError, err)
	}

	return nil
}

// isInterstitial reports whether the response is an HTML warning page
// instead of the file content.
func isInterstitial(resp *http.Response) bool {
	return strings.Contains(resp.Header.Get("Content-Type"), "text/html")
}

// confirmToken extracts the download confirmation token from the response
// cookies. Falls back to "t", which the share host accepts for files it
// cannot virus-scan.
func confirmToken(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if strings.HasPrefix(c.Name, "download_warning") {
			return c.Value
		}
	}
	return "t"
}

// confirmURL appends the confirm token to the share link.
func confirmURL(url, token string) string {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "confirm=" + token
}

// progressReader wraps an io.Reader and reports progress as bytes are read.
type progressReader struct {
	reader     io.Reader
	onProgress func(delta int64)
}

func (pr *progressReader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)
	if n > 0 && pr.onProgress != nil {
		pr.onProgress(int64(n))
	}
	return
}
