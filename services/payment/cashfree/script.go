package cashfree

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

// SDKLoader checks that the hosted checkout SDK is reachable. A successful
// load is cached for the life of the loader; failures are retried on the next
// call.
type SDKLoader struct {
	url    string
	client *http.Client
	logger *zap.Logger

	mu     sync.Mutex
	loaded bool
}

func NewSDKLoader(url string, httpClient *http.Client, logger *zap.Logger) *SDKLoader {
	if url == "" {
		url = DefaultSDKURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &SDKLoader{url: url, client: httpClient, logger: logger}
}

func (l *SDKLoader) URL() string {
	return l.url
}

func (l *SDKLoader) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loaded {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return fmt.Errorf("creating sdk request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching checkout sdk: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching checkout sdk: status %d", resp.StatusCode)
	}

	l.loaded = true
	l.logger.Info("checkout sdk loaded", zap.String("url", l.url))
	return nil
}
