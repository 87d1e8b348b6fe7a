package fetch

import (
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"sync"

	"ratepulse/internal/config"
)

// ProxyPool selects a proxy uniformly at random per request. No automatic
// blacklisting: a failed request simply lands on another proxy next time.
type ProxyPool struct {
	proxies []*url.URL
	mu      sync.RWMutex
	logger  *slog.Logger
}

// NewProxyPool parses the configured proxy URLs into a pool, dropping
// unparsable entries with a warning.
func NewProxyPool(cfg *config.ProxyConfig, logger *slog.Logger) *ProxyPool {
	pool := &ProxyPool{
		proxies: make([]*url.URL, 0, len(cfg.URLs)),
		logger:  logger.With("component", "proxy_pool"),
	}

	for _, rawURL := range cfg.URLs {
		u, err := url.Parse(rawURL)
		if err != nil {
			logger.Warn("invalid proxy URL", "url", rawURL, "error", err)
			continue
		}
		pool.proxies = append(pool.proxies, u)
	}

	pool.logger.Info("proxy pool initialized", "count", len(pool.proxies))
	return pool
}

// ProxyFunc returns an http.Transport-compatible proxy function.
func (p *ProxyPool) ProxyFunc() func(*http.Request) (*url.URL, error) {
	return func(req *http.Request) (*url.URL, error) {
		proxy := p.Next()
		if proxy == nil {
			return nil, nil // no proxy = direct connection
		}
		return proxy, nil
	}
}

// Next returns a random proxy from the pool, or nil when the pool is empty.
func (p *ProxyPool) Next() *url.URL {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.proxies) == 0 {
		return nil
	}
	return p.proxies[rand.Intn(len(p.proxies))]
}

// Count returns the number of proxies in the pool.
func (p *ProxyPool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.proxies)
}

// Add adds a proxy URL at runtime.
func (p *ProxyPool) Add(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.proxies = append(p.proxies, u)
	return nil
}
