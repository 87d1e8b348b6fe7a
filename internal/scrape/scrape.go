// Package scrape implements the source adapters: HTML listing scraping for
// news sites, RSS feed discovery, and the mirror-rotating social adapter.
// Adapters produce in-memory RawItems; persistence and sentiment belong to
// the pipeline.
package scrape

import (
	"context"
	"time"

	"ratepulse/internal/types"
)

// Result is the outcome of one adapter pass over one source.
type Result struct {
	Items             []types.RawItem
	Discovered        int
	SkippedIrrelevant int
}

// Adapter discovers items from one configured source. Items older than the
// cutoff are dropped individually; discovery itself always sweeps the full
// configured page range, since listing order is not strictly chronological.
type Adapter interface {
	Name() string
	Scrape(ctx context.Context, cutoff time.Time) (*Result, error)
}
