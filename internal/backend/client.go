// Package backend is the HTTP client for the back office REST API. Every
// request carries the bearer token of the session bound to its context, and
// a 401 answer expires that session.
package backend

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mandalnilabja/roboadmin/internal/session"
)

// maxBodyBytes caps buffered backend responses.
const maxBodyBytes = 16 << 20

// Expirer ends a session after the back office rejected its token.
type Expirer interface {
	Expire(id string) error
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// Expirer is told about sessions the back office rejects, after the
	// store bound to the request has been expired.
	Expirer Expirer

	// OnExpire is called once per rejected request, after the session ends.
	OnExpire func()

	Cache  *Cache
	Logger *slog.Logger

	// Transport overrides http.DefaultTransport.
	Transport http.RoundTripper
}

// Client sends requests to the back office.
type Client struct {
	base  *url.URL
	http  *http.Client
	cache *Cache
}

// Response is a fully buffered back office reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Cached     bool
}

// New builds a Client. BaseURL must be an absolute http(s) URL.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q: scheme must be http or https", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	rt := cfg.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}

	return &Client{
		base: base,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &bearerTransport{
				base:     rt,
				expirer:  cfg.Expirer,
				onExpire: cfg.OnExpire,
				logger:   cfg.Logger,
			},
		},
		cache: cfg.Cache,
	}, nil
}

// Do sends a request to path on the back office. Portfolio calls are scoped
// to the session's selected broker unless the caller names one. A 401 answer is returned
// together with ErrSessionExpired; transport failures wrap ErrUnavailable.
func (c *Client) Do(ctx context.Context, method, path, rawQuery string, body io.Reader, header http.Header) (*Response, error) {
	rawQuery = withBroker(ctx, path, rawQuery)
	target := path
	if rawQuery != "" {
		target += "?" + rawQuery
	}

	token := bearerToken(ctx)
	cacheable := method == http.MethodGet && token != "" && c.cache.Cacheable(path)
	if cacheable {
		if cached, ok := c.cache.Get(token, target); ok {
			return &Response{
				StatusCode: http.StatusOK,
				Header:     http.Header{"Content-Type": []string{"application/json"}},
				Body:       cached,
				Cached:     true,
			}, nil
		}
	}

	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = rawQuery

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build backend request: %w", err)
	}
	for _, name := range forwardedRequestHeaders {
		if v := header.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}

	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header.Clone(), Body: data}
	if resp.StatusCode == http.StatusUnauthorized {
		return out, ErrSessionExpired
	}
	if cacheable && resp.StatusCode == http.StatusOK {
		c.cache.Set(token, target, data)
	}
	return out, nil
}

var forwardedRequestHeaders = []string{"Content-Type", "Accept", "Accept-Language"}

func bearerToken(ctx context.Context) string {
	_, store := session.FromContext(ctx)
	if store == nil {
		return ""
	}
	snap := store.CurrentSession()
	if !snap.IsAuthenticated {
		return ""
	}
	return snap.Token
}

// withBroker adds the session's broker to portfolio queries that do not
// already carry one.
func withBroker(ctx context.Context, path, rawQuery string) string {
	if !strings.HasPrefix(path, PortfoliosPath) {
		return rawQuery
	}
	_, store := session.FromContext(ctx)
	if store == nil {
		return rawQuery
	}
	broker := store.Broker()
	if broker == "" {
		return rawQuery
	}
	if q, _ := url.ParseQuery(rawQuery); q.Has(BrokerParam) {
		return rawQuery
	}
	param := BrokerParam + "=" + url.QueryEscape(broker)
	if rawQuery == "" {
		return param
	}
	return rawQuery + "&" + param
}
