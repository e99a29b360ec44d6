package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	json "github.com/goccy/go-json"
)

const maxBodySize = 32 << 20

// ErrForbiddenAddress: a public-only client refused to dial a non-public address
var ErrForbiddenAddress = errors.New("address not allowed")

var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// StatusError: the remote answered with a non-2xx status
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// retryable: 429 and 5xx are worth another attempt, other statuses are final
func (e *StatusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Client: HTTP client retrying transport failures with exponential backoff
type Client struct {
	http       *http.Client
	maxRetries int
	newBackOff func() backoff.BackOff
}

type Option func(*Client)

// WithBackOff: replaces the exponential backoff (tests use a zero backoff)
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(c *Client) {
		c.newBackOff = fn
	}
}

// WithHTTPClient: replaces the underlying http.Client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithPublicOnly: refuses connections to loopback, private, link-local and other
// non-public addresses. Checked on the resolved address, so redirects and DNS are covered.
func WithPublicOnly() Option {
	return func(c *Client) {
		dialer := &net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
			Control:   publicOnly,
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.Proxy = nil
		transport.DialContext = dialer.DialContext
		c.http.Transport = transport
	}
}

func publicOnly(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrForbiddenAddress, address)
	}
	ip, err := netip.ParseAddr(host)
	if err != nil || !isPublic(ip) {
		return fmt.Errorf("%w: %s", ErrForbiddenAddress, address)
	}
	return nil
}

func isPublic(ip netip.Addr) bool {
	ip = ip.Unmap()
	return ip.IsGlobalUnicast() &&
		!ip.IsPrivate() &&
		!sharedAddressSpace.Contains(ip)
}

func New(timeout time.Duration, maxRetries int, opts ...Option) *Client {
	if maxRetries < 0 {
		maxRetries = 0
	}
	c := &Client{
		http:       &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 250 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PostJSON: sends body as JSON and decodes a 2xx response into out
func (c *Client) PostJSON(ctx context.Context, url string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	data, _, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Fetch: downloads url, returning the body and its content type
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	return c.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	})
}

func (c *Client) do(ctx context.Context, build func() (*http.Request, error)) ([]byte, string, error) {
	b := c.newBackOff()
	b.Reset()

	for attempt := 0; ; attempt++ {
		data, contentType, err := c.once(build)
		if err == nil {
			return data, contentType, nil
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.retryable() {
			return nil, "", err
		}
		if errors.Is(err, ErrForbiddenAddress) {
			return nil, "", err
		}
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		if attempt >= c.maxRetries {
			return nil, "", fmt.Errorf("giving up after %d attempts: %w", attempt+1, err)
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return nil, "", err
		}
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) once(build func() (*http.Request, error)) ([]byte, string, error) {
	req, err := build()
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body := string(data)
		if len(body) > 256 {
			body = body[:256]
		}
		return nil, "", &StatusError{Code: resp.StatusCode, Body: body}
	}

	return data, resp.Header.Get("Content-Type"), nil
}
