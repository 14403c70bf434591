package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-pkgz/requester"
	"github.com/go-pkgz/requester/middleware"
	"github.com/rs/zerolog"
)

// maxBody caps a single download, store pages and screenshots stay far below
const maxBody = 32 << 20

// Client performs plain GET requests for store pages and images
type Client struct {
	rq *requester.Requester
}

// ClientOptions configures NewClient
type ClientOptions struct {
	UserAgent string
	Lang      string
	Timeout   time.Duration
	Logger    zerolog.Logger
}

// NewClient creates a client with the store headers and request logging
func NewClient(opts ClientOptions) *Client {
	mw := []middleware.RoundTripperHandler{
		LoggingRoundTripper(opts.Logger, "Cookie"),
	}
	if opts.UserAgent != "" {
		mw = append(mw, middleware.Header("User-Agent", opts.UserAgent))
	}
	if opts.Lang != "" {
		mw = append(mw, middleware.Header("Accept-Language", opts.Lang))
	}

	return &Client{rq: requester.New(http.Client{Timeout: opts.Timeout}, mw...)}
}

// Download fetches url into memory
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s from %s", ErrBadStatus, resp.Status, url)
	}

	return readBody(resp.Body)
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.rq.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", url, err)
	}
	return resp, nil
}

func readBody(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if len(data) > maxBody {
		return nil, fmt.Errorf("body exceeds %d bytes", maxBody)
	}
	return data, nil
}
