package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"ratepulse/internal/config"
	"ratepulse/internal/types"
)

// Browser implements Fetcher using a headless browser via Rod with stealth
// patches applied. Used for sources whose descriptor sets fetcher: browser,
// typically sites that reject plain HTTP clients outright.
type Browser struct {
	browser *rod.Browser
	cfg     *config.FetcherConfig
	proxies *ProxyPool
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewBrowser launches a headless Chromium instance and connects to it.
func NewBrowser(cfg *config.Config, proxies *ProxyPool, logger *slog.Logger) (*Browser, error) {
	l := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled")

	if proxies != nil {
		if proxyURL := proxies.Next(); proxyURL != nil {
			l = l.Proxy(proxyURL.String())
		}
	}

	launchURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	return &Browser{
		browser: browser,
		cfg:     &cfg.Fetcher,
		proxies: proxies,
		logger:  logger.With("component", "browser_fetcher"),
	}, nil
}

// Fetch navigates to the URL and returns the rendered page HTML.
func (b *Browser) Fetch(ctx context.Context, url string) (*Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()

	page, err := stealth.Page(b.browser)
	if err != nil {
		return nil, &types.FetchError{URL: url, Err: fmt.Errorf("open page: %w", err), Retryable: true}
	}
	defer page.Close()

	page = page.Context(ctx).Timeout(b.cfg.RequestTimeout)

	if err := page.Navigate(url); err != nil {
		return nil, &types.FetchError{URL: url, Err: fmt.Errorf("navigate: %w", err), Retryable: true}
	}
	if err := page.WaitLoad(); err != nil {
		return nil, &types.FetchError{URL: url, Err: fmt.Errorf("wait load: %w", err), Retryable: true}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, &types.FetchError{URL: url, Err: fmt.Errorf("read html: %w", err), Retryable: true}
	}
	if html == "" {
		return nil, &types.FetchError{URL: url, Err: types.ErrEmptyResponse, Retryable: true}
	}

	duration := time.Since(start)
	b.logger.Debug("browser fetch complete", "url", url, "size", len(html), "duration", duration)

	return &Result{
		StatusCode: 200,
		Body:       []byte(html),
		FinalURL:   url,
		Duration:   duration,
	}, nil
}

// Close shuts down the browser.
func (b *Browser) Close() error {
	return b.browser.Close()
}

// Type returns the fetcher type identifier.
func (b *Browser) Type() string { return "browser" }
