package amgp

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// ErrNotFound is returned when a data server answers 404.
var ErrNotFound = errors.New("data not found on server")

// Fetcher downloads data files and keeps a copy of each in the cache
// directory. A cached file is reused unless refresh is set.
type Fetcher struct {
	client   *http.Client
	cacheDir string
	refresh  bool
	metrics  *Metrics
}

// NewFetcher creates a fetcher. An empty cacheDir disables the cache.
func NewFetcher(cacheDir string, timeout time.Duration, refresh bool, m *Metrics) *Fetcher {
	if m == nil {
		m = NewMetrics()
	}
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		cacheDir: cacheDir,
		refresh:  refresh,
		metrics:  m,
	}
}

// Get returns the body at rawURL, reading the cache first.
func (f *Fetcher) Get(ctx context.Context, source, rawURL string) ([]byte, error) {
	return f.get(ctx, source, rawURL, true)
}

// GetFresh always downloads rawURL, then refreshes the cached copy. Used for
// files that still grow on the server, such as the current hour of reports.
func (f *Fetcher) GetFresh(ctx context.Context, source, rawURL string) ([]byte, error) {
	return f.get(ctx, source, rawURL, false)
}

func (f *Fetcher) get(ctx context.Context, source, rawURL string, useCache bool) ([]byte, error) {
	cachePath := f.cachePath(rawURL)
	if useCache && !f.refresh && cachePath != "" && fileExists(cachePath) {
		b, err := os.ReadFile(cachePath)
		if err == nil {
			logger().Debugf("cache hit %s => %s", rawURL, cachePath)
			f.metrics.FetchRequests.WithLabelValues(source, "hit").Inc()
			return b, nil
		}
		logger().Warnf("unreadable cache file %s: %s", cachePath, err)
	}

	f.metrics.FetchRequests.WithLabelValues(source, "miss").Inc()
	b, err := f.download(ctx, rawURL)
	if err != nil {
		f.metrics.FetchErrors.Inc()
		return nil, err
	}
	f.metrics.FetchBytes.Add(float64(len(b)))

	if cachePath != "" {
		if err := os.MkdirAll(f.cacheDir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
		if err := os.WriteFile(cachePath, b, 0o644); err != nil {
			return nil, fmt.Errorf("write cache file: %w", err)
		}
		logger().Infof("downloaded %s => %s", rawURL, cachePath)
	} else {
		logger().Infof("downloaded %s", rawURL)
	}
	return b, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rawURL)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d", rawURL, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	return b, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// cachePath names the cache file for a URL: a short hash of the full URL
// (query included) followed by the readable base name.
func (f *Fetcher) cachePath(rawURL string) string {
	if f.cacheDir == "" {
		return ""
	}
	sum := sha1.Sum([]byte(rawURL))
	base := "index"
	if u, err := url.Parse(rawURL); err == nil {
		if b := path.Base(u.Path); b != "/" && b != "." {
			base = b
		}
	}
	base = unsafeName.ReplaceAllString(base, "_")
	if len(base) > 80 {
		base = base[len(base)-80:]
	}
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:6])+"_"+base)
}

// ListIndex fetches a directory index page and returns the names of the
// anchors whose target matches pattern.
func (f *Fetcher) ListIndex(ctx context.Context, source, indexURL string, pattern *regexp.Regexp) ([]string, error) {
	b, err := f.GetFresh(ctx, source, indexURL)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("parse index %s: %w", indexURL, err)
	}

	var names []string
	walkNodeTree(doc, func(node *html.Node) {
		if node.Type != html.ElementNode || node.Data != "a" {
			return
		}
		for _, a := range node.Attr {
			if a.Key != "href" {
				continue
			}
			name := path.Base(strings.TrimRight(a.Val, "/"))
			if pattern.MatchString(name) {
				names = append(names, name)
			}
		}
	})
	return names, nil
}

func walkNodeTree(root *html.Node, fn func(node *html.Node)) {
	fn(root)
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		walkNodeTree(c, fn)
	}
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return !os.IsNotExist(err)
}
