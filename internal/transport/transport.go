// Package transport is the HTTP exchange layer under the Slack client.
//
// Every call returns a fully read Response whose connection must be
// released with Close. Close is idempotent, so callers can defer it and
// still close early on error paths.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// Header is a set of request headers. Keys are canonicalized on send.
type Header map[string]string

// managedHeaders are set by net/http itself. Sending them from the caller
// produces duplicates that some embedded HTTP stacks reject.
var managedHeaders = map[string]bool{
	"Connection":        true,
	"Host":              true,
	"Content-Length":    true,
	"Transfer-Encoding": true,
}

// Transport issues HTTP requests.
type Transport interface {
	Get(ctx context.Context, url string, headers Header) (*Response, error)
	Post(ctx context.Context, url string, headers Header, body []byte) (*Response, error)
}

// Response is a completed HTTP exchange.
type Response struct {
	StatusCode int
	Text       string

	once     sync.Once
	release  func() error
	closeErr error
	closed   bool
}

// NewResponse builds a Response around a release function. release may be
// nil. It is exported for Transport implementations and test doubles.
func NewResponse(status int, text string, release func() error) *Response {
	return &Response{StatusCode: status, Text: text, release: release}
}

// Close releases the underlying connection. Only the first call has an
// effect; later calls return the first result.
func (r *Response) Close() error {
	r.once.Do(func() {
		r.closed = true
		if r.release != nil {
			r.closeErr = r.release()
		}
	})
	return r.closeErr
}

// Closed reports whether Close has been called.
func (r *Response) Closed() bool { return r.closed }

// DefaultMaxBody caps how much of a response body is buffered. Slack
// replies are a few KiB; a page of conversations.list stays well under this.
const DefaultMaxBody = 1 << 20

// ErrBodyTooLarge is returned when a response body exceeds the cap.
var ErrBodyTooLarge = errors.New("response body too large")

// HTTP implements Transport over net/http.
type HTTP struct {
	client *http.Client
	// MaxBody is the largest body accepted, in bytes. Zero means DefaultMaxBody.
	MaxBody int64
}

// NewHTTP creates a transport with a small connection pool sized for a
// device. A non-positive timeout defaults to 15 seconds.
func NewHTTP(timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        2,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &HTTP{client: &http.Client{Timeout: timeout, Transport: tr}, MaxBody: DefaultMaxBody}
}

// Get issues a GET request.
func (t *HTTP) Get(ctx context.Context, url string, headers Header) (*Response, error) {
	return t.do(ctx, http.MethodGet, url, headers, nil)
}

// Post issues a POST request with body sent as raw bytes.
func (t *HTTP) Post(ctx context.Context, url string, headers Header, body []byte) (*Response, error) {
	return t.do(ctx, http.MethodPost, url, headers, body)
}

func (t *HTTP) do(ctx context.Context, method, url string, headers Header, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range StripManaged(headers) {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.ContentLength = int64(len(body))
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	limit := t.MaxBody
	if limit <= 0 {
		limit = DefaultMaxBody
	}
	data, readErr := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	out := NewResponse(resp.StatusCode, string(data), resp.Body.Close)
	if readErr != nil {
		out.Close()
		return nil, fmt.Errorf("failed to read response: %w", readErr)
	}
	if int64(len(data)) > limit {
		out.Close()
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, limit)
	}
	return out, nil
}

// StripManaged returns a copy of headers without the transport-managed
// keys, compared case-insensitively.
func StripManaged(headers Header) Header {
	out := make(Header, len(headers))
	for k, v := range headers {
		if managedHeaders[http.CanonicalHeaderKey(k)] {
			continue
		}
		out[k] = v
	}
	return out
}
