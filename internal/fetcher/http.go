// Package fetcher implements the origin HTTP client consumed by the cache
// engine.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/dnscache"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	hoard "github.com/eugener/hoard/internal"
	"github.com/eugener/hoard/internal/circuitbreaker"
	"github.com/eugener/hoard/internal/telemetry"
)

// maxBodySize caps origin responses. A cached document past this is a
// configuration problem, not data.
const maxBodySize = 16 << 20

// NewTransport returns a tuned *http.Transport with connection pooling and
// optional DNS caching.
func NewTransport(resolver *dnscache.Resolver) *http.Transport {
	t := &http.Transport{
		MaxIdleConnsPerHost: 100,
		MaxConnsPerHost:     200,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	if resolver != nil {
		t.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := resolver.LookupHost(ctx, host)
			if err != nil {
				return nil, err
			}
			var d net.Dialer
			return d.DialContext(ctx, network, net.JoinHostPort(ips[0], port))
		}
	}
	return t
}

// HTTP fetches JSON documents from the origin over GET. It implements
// hoard.Fetcher: any transport failure, non-2xx status, or malformed body
// is an error at this boundary -- the engine downgrades them to misses.
type HTTP struct {
	client   *http.Client
	base     map[string]string
	metrics  *telemetry.Metrics
	breakers *circuitbreaker.Registry
}

var _ hoard.Fetcher = (*HTTP)(nil)

// Option configures an HTTP fetcher.
type Option func(*HTTP)

// WithBaseHeaders sets headers applied to every origin request. Per-call
// headers still win on conflict.
func WithBaseHeaders(h map[string]string) Option {
	return func(f *HTTP) { f.base = h }
}

// WithClientCredentials authenticates origin requests with an OAuth2
// client-credentials token source. Token endpoint traffic reuses the
// fetcher's own client.
func WithClientCredentials(tokenURL, clientID, clientSecret string, scopes []string) Option {
	return func(f *HTTP) {
		cc := &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       scopes,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, f.client)
		f.client = cc.Client(ctx)
	}
}

// WithMetrics records fetch durations and failures on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(f *HTTP) { f.metrics = m }
}

// WithBreakers short-circuits fetches to hosts the registry has tripped on.
func WithBreakers(r *circuitbreaker.Registry) Option {
	return func(f *HTTP) { f.breakers = r }
}

// New creates an HTTP fetcher. A nil client gets a pooled default transport.
func New(client *http.Client, opts ...Option) *HTTP {
	if client == nil {
		client = &http.Client{Transport: NewTransport(nil)}
	}
	f := &HTTP{client: client}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch issues a GET for url and returns the document with its validator
// headers. The default Content-Type header is application/json; base and
// per-call headers are layered on top, per-call winning.
func (f *HTTP) Fetch(ctx context.Context, rawURL string, headers map[string]string) (*hoard.Document, error) {
	var breaker *circuitbreaker.Breaker
	if f.breakers != nil {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("fetcher: parse url: %w", err)
		}
		breaker = f.breakers.GetOrCreate(u.Host)
		if !breaker.Allow() {
			return nil, fmt.Errorf("fetcher: GET %s: %w", rawURL, hoard.ErrOriginUnavailable)
		}
	}

	start := time.Now()
	doc, err := f.fetch(ctx, rawURL, headers)
	if f.metrics != nil {
		f.metrics.FetchDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			f.metrics.FetchErrors.Inc()
		}
	}
	if breaker != nil {
		// Zero-weight errors (plain 4xx) prove the origin is alive; they
		// count as successes for availability purposes.
		if w := circuitbreaker.ClassifyError(err); w > 0 {
			breaker.RecordError(w)
		} else {
			breaker.RecordSuccess()
		}
	}
	return doc, err
}

func (f *HTTP) fetch(ctx context.Context, url string, headers map[string]string) (*hoard.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetcher: create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range f.base {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetcher: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetcher: GET %s: %w", url, &hoard.StatusError{Code: resp.StatusCode, Status: resp.Status})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("fetcher: read body: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("fetcher: GET %s: %w", url, hoard.ErrMalformedJSON)
	}

	return &hoard.Document{
		Data:         body,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}, nil
}
