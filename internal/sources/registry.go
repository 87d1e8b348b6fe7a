// Package sources holds the immutable source registry and the per-site
// pagination URL rules.
package sources

import (
	"fmt"
	"strings"

	"ratepulse/internal/config"
	"ratepulse/internal/types"
)

// Registry is the fixed set of configured sources, loaded once at process
// start. It is never mutated after construction.
type Registry struct {
	sources []config.SourceDescriptor
	byName  map[string]*config.SourceDescriptor
}

// NewRegistry builds a registry from validated source descriptors.
func NewRegistry(descriptors []config.SourceDescriptor) *Registry {
	r := &Registry{
		sources: make([]config.SourceDescriptor, len(descriptors)),
		byName:  make(map[string]*config.SourceDescriptor, len(descriptors)),
	}
	copy(r.sources, descriptors)
	for i := range r.sources {
		r.byName[r.sources[i].Name] = &r.sources[i]
	}
	return r
}

// All returns every configured source.
func (r *Registry) All() []config.SourceDescriptor {
	return r.sources
}

// Get looks up a source by name.
func (r *Registry) Get(name string) (*config.SourceDescriptor, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// Filter returns the sources whose names appear in the filter set. An empty
// filter returns all sources. A filter matching nothing returns an empty
// slice and types.ErrNoSources so the caller can warn without failing.
func (r *Registry) Filter(names []string) ([]config.SourceDescriptor, error) {
	if len(names) == 0 {
		return r.All(), nil
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []config.SourceDescriptor
	for _, s := range r.sources {
		if wanted[s.Name] {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrNoSources, strings.Join(names, ", "))
	}
	return out, nil
}

// Len returns the number of configured sources.
func (r *Registry) Len() int { return len(r.sources) }

// PageURL computes the URL for a given listing page. Page 1 always uses the
// bare base URL. Known site families get their native pagination shape;
// anything else falls back to a generic /page/N suffix.
func PageURL(baseURL string, page int) string {
	if page <= 1 {
		return baseURL
	}
	switch {
	case strings.Contains(baseURL, "herald.co.zw") || strings.Contains(baseURL, "chronicle.co.zw"):
		return fmt.Sprintf("%spage/%d/", ensureTrailingSlash(baseURL), page)
	case strings.Contains(baseURL, "newsday.co.zw"):
		return fmt.Sprintf("%s?page=%d", baseURL, page)
	case strings.Contains(baseURL, "bulawayo24.com"):
		// Bulawayo24 paginates with a numeric suffix before the extension:
		// index-id-business.html -> index-id-business-2.html
		return fmt.Sprintf("%s-%d.html", strings.TrimSuffix(baseURL, ".html"), page)
	default:
		return fmt.Sprintf("%s/page/%d", strings.TrimSuffix(baseURL, "/"), page)
	}
}

func ensureTrailingSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
