package fragments

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
)

// EnvBaseURL names the environment variable holding the default base URL.
const EnvBaseURL = "TRAFFIQ_MAPS_URL"

const defaultTimeout = 5 * time.Second

// HTTPStore fetches fragments from <base>/map_<year>.html.
// Successful fetches are cached for the lifetime of the store.
type HTTPStore struct {
	base    string
	client  *fasthttp.Client
	timeout time.Duration
	cache   sync.Map // year → []byte
}

// HTTPOption configures an HTTPStore.
type HTTPOption func(*HTTPStore)

// WithClient replaces the default fasthttp client.
func WithClient(client *fasthttp.Client) HTTPOption {
	return func(s *HTTPStore) {
		s.client = client
	}
}

// WithTimeout bounds requests made without a context deadline.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewHTTPStore returns a store reading from base.
func NewHTTPStore(base string, opts ...HTTPOption) *HTTPStore {
	s := &HTTPStore{
		base:    strings.TrimRight(base, "/"),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = &fasthttp.Client{
			Name:                "traffiq",
			MaxConnsPerHost:     16,
			MaxIdleConnDuration: 90 * time.Second,
			ReadTimeout:         s.timeout,
			WriteTimeout:        s.timeout,
		}
	}
	return s
}

// URL returns the fragment URL of a year.
func (s *HTTPStore) URL(year int) string {
	return s.base + "/" + FileName(year)
}

// Fetch GETs the year's fragment. A 404 is ErrNotFound.
func (s *HTTPStore) Fetch(ctx context.Context, year int) ([]byte, error) {
	if cached, ok := s.cache.Load(year); ok {
		return cached.([]byte), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.URL(year))
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(s.timeout)
	}
	if err := s.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("fetch fragment %d: %w", year, err)
	}

	switch status := resp.StatusCode(); {
	case status == fasthttp.StatusNotFound:
		return nil, fmt.Errorf("%d: %w", year, ErrNotFound)
	case status != fasthttp.StatusOK:
		return nil, fmt.Errorf("fetch fragment %d: unexpected status %d", year, status)
	}

	body := append([]byte(nil), resp.Body()...)
	s.cache.Store(year, body)
	return body, nil
}
