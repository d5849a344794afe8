package infrastructure

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/yourusername/media-relay-go/internal/domain"
	"go.uber.org/zap"
)

// HTTPFetcher implements domain.Fetcher on top of net/http
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	maxPageBytes int64
	logger       *zap.Logger
}

// NewHTTPFetcher creates a fetcher. The client carries no overall timeout:
// streams are bounded by the request context instead.
func NewHTTPFetcher(config *domain.FetcherConfig, logger *zap.Logger) *HTTPFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	dialer := &net.Dialer{Timeout: config.ConnectTimeout, KeepAlive: 30 * time.Second}

	return &HTTPFetcher{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           dialer.DialContext,
				TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
				TLSHandshakeTimeout:   config.ConnectTimeout,
				ResponseHeaderTimeout: 30 * time.Second,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          20,
				MaxIdleConnsPerHost:   5,
				IdleConnTimeout:       30 * time.Second,
			},
		},
		userAgent:    config.UserAgent,
		maxPageBytes: config.MaxPageBytes,
		logger:       logger,
	}
}

// FetchText downloads a page and returns its body as text
func (f *HTTPFetcher) FetchText(ctx context.Context, url string) (string, error) {
	resp, err := f.get(ctx, url, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if f.maxPageBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxPageBytes)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read page body: %w", err)
	}

	f.logger.Debug("Fetched page",
		zap.String("url", url),
		zap.Int("bytes", len(data)))

	return string(data), nil
}

// FetchStream opens url and hands the body to the caller unread
func (f *HTTPFetcher) FetchStream(ctx context.Context, url string) (*domain.RemoteStream, error) {
	resp, err := f.get(ctx, url, "*/*")
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Opened media stream",
		zap.String("url", url),
		zap.Int64("content_length", resp.ContentLength),
		zap.String("content_type", resp.Header.Get("Content-Type")))

	return &domain.RemoteStream{
		Body:          resp.Body,
		ContentLength: resp.ContentLength,
		ContentType:   resp.Header.Get("Content-Type"),
	}, nil
}

// get performs a GET with browser-like headers and rejects non-2xx responses
func (f *HTTPFetcher) get(ctx context.Context, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %d for %s", domain.ErrUpstreamStatus, resp.StatusCode, url)
	}

	return resp, nil
}
