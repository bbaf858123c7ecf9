// Package fetch retrieves the raw bytes of JSON-stat documents. Sources may be
// http(s) URLs, names relative to a configured base URL, local files, or "-"
// for standard input. Remote requests are context-aware, share a rate
// limiter, and retry on transient errors (429, 5xx).
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	maxRetries = 4
	// maxBody bounds a single document read into memory.
	maxBody = 256 << 20
)

// Kind says where a source's bytes come from.
type Kind int

const (
	Remote Kind = iota
	Local
	Stdin
)

func (k Kind) String() string {
	switch k {
	case Remote:
		return "remote"
	case Local:
		return "local"
	case Stdin:
		return "stdin"
	}
	return "unknown"
}

// Source is a resolved document location.
type Source struct {
	Name     string // as given by the user
	Kind     Kind
	Location string // absolute URL, file path, or "-"
}

// Cacheable reports whether documents from this source belong in the local
// store. Local files and stdin are always read fresh.
func (s Source) Cacheable() bool { return s.Kind == Remote }

// HTTPError is returned for a non-retryable, non-200 response.
type HTTPError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: HTTP %d: %s", e.URL, e.StatusCode, e.Body)
}

// Client fetches documents.
type Client struct {
	baseURL    *url.URL
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	debug      bool
	stdin      io.Reader
	backoff    time.Duration
}

// NewClient creates a Client. baseURL may be empty, in which case relative
// source names are treated as local paths only.
func NewClient(baseURL, userAgent string, timeout time.Duration, ratePerSec float64, debug bool) (*Client, error) {
	var base *url.URL
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing base url: %w", err)
		}
		base = u
	}
	burst := int(ratePerSec)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL:   base,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
		debug:   debug,
		stdin:   os.Stdin,
		backoff: 500 * time.Millisecond,
	}, nil
}

// SetStdin replaces the reader used for the "-" source.
func (c *Client) SetStdin(r io.Reader) { c.stdin = r }

// SetBackoff sets the base delay between retries. The n-th retry waits
// base*2^(n-1).
func (c *Client) SetBackoff(base time.Duration) { c.backoff = base }

// ─── Resolution ───────────────────────────────────────────────────────────────

// Resolve decides where src is read from:
//
//	"-"                      standard input
//	http:// or https://      that URL
//	an existing file         the file
//	a relative name          resolved against the base URL
//
// Anything else is treated as a local path and fails when read.
func (c *Client) Resolve(src string) (Source, error) {
	s := Source{Name: src}
	switch {
	case src == "":
		return s, errors.New("empty source")
	case src == "-":
		s.Kind, s.Location = Stdin, "-"
		return s, nil
	case isURL(src):
		u, err := url.Parse(src)
		if err != nil {
			return s, fmt.Errorf("parsing %s: %w", src, err)
		}
		s.Kind, s.Location = Remote, u.String()
		return s, nil
	}
	if _, err := os.Stat(src); err == nil || c.baseURL == nil || !isRelativeName(src) {
		abs, err := filepath.Abs(src)
		if err != nil {
			return s, err
		}
		s.Kind, s.Location = Local, abs
		return s, nil
	}
	ref, err := url.Parse(filepath.ToSlash(src))
	if err != nil {
		return s, fmt.Errorf("parsing %s: %w", src, err)
	}
	s.Kind, s.Location = Remote, c.baseURL.ResolveReference(ref).String()
	return s, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// isRelativeName reports whether s looks like a bare name ("oecd.json",
// "datasets/index.json") rather than an explicit filesystem path.
func isRelativeName(s string) bool {
	return !filepath.IsAbs(s) &&
		!strings.HasPrefix(s, "./") &&
		!strings.HasPrefix(s, "../") &&
		!strings.HasPrefix(s, "~")
}

// ─── Reading ──────────────────────────────────────────────────────────────────

// Get resolves src and returns its bytes.
func (c *Client) Get(ctx context.Context, src string) (Source, []byte, error) {
	s, err := c.Resolve(src)
	if err != nil {
		return s, nil, err
	}
	b, err := c.Read(ctx, s)
	return s, b, err
}

// Read returns the bytes of an already resolved source.
func (c *Client) Read(ctx context.Context, s Source) ([]byte, error) {
	switch s.Kind {
	case Stdin:
		b, err := io.ReadAll(io.LimitReader(c.stdin, maxBody))
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return b, nil
	case Local:
		b, err := os.ReadFile(s.Location)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", s.Name, err)
		}
		return b, nil
	default:
		return c.get(ctx, s.Location)
	}
}

// ─── Low-level HTTP ───────────────────────────────────────────────────────────

// get performs a GET request, handling rate limiting and retries.
// Each attempt waits on the shared limiter.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	if c.debug {
		slog.Debug("fetch request", "url", reqURL)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * c.backoff
			slog.Debug("retrying after backoff", "attempt", attempt, "backoff", backoff)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
		// Every attempt, retries included, takes a token.
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("http: %w", err)
			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading body: %w", err)
			continue
		}

		if c.debug {
			slog.Debug("fetch response", "url", reqURL, "status", resp.StatusCode, "bytes", len(body))
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = &HTTPError{URL: reqURL, StatusCode: resp.StatusCode, Body: snippet(body)}
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &HTTPError{URL: reqURL, StatusCode: resp.StatusCode, Body: snippet(body)}
		}
		return body, nil
	}
	return nil, fmt.Errorf("after %d attempts: %w", maxRetries, lastErr)
}

// snippet trims an error body to something printable on one line.
func snippet(b []byte) string {
	s := strings.Join(strings.Fields(string(b)), " ")
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
