// Package relevance scores text for topical relevance to the Zimbabwe
// dollar and decides which discovered items enter the dataset.
package relevance

import (
	"log/slog"
	"regexp"
	"strings"
)

// Scorer produces a relevance score in [0,1] for a piece of text.
// Two implementations exist: the weighted-lexicon scorer and an
// entity-augmented scorer layered on top of it. The detector selects one at
// construction time; call sites never branch on capability.
type Scorer interface {
	Score(text string) float64
}

// Keyword tiers: currency-identity terms weigh highest, rate/market terms
// mid, general economic context lowest. Weights are per-hit contributions;
// the total is capped at 1.0.
var keywordTiers = []map[string]float64{
	{
		"zimbabwe dollar":          1.0,
		"zwl":                      1.0,
		"zim dollar":               1.0,
		"zimbabwean currency":      1.0,
		"rbz":                      0.9,
		"reserve bank of zimbabwe": 0.9,
	},
	{
		"exchange rate":    0.7,
		"forex":            0.7,
		"foreign currency": 0.7,
		"parallel market":  0.8,
		"black market":     0.8,
		"currency trading": 0.6,
	},
	{
		"inflation":       0.4,
		"economy":         0.3,
		"monetary policy": 0.5,
		"interest rate":   0.4,
		"zimbabwe":        0.3,
		"harare":          0.2,
	},
}

// Explicit currency-value expressions, e.g. "350 ZWL" or "1 USD = 350 ZWL".
// Each match contributes a fixed bonus.
var valuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b\d[\d,]*(?:\.\d+)?\s*(?:zwl|rtgs|zig)\b`),
	regexp.MustCompile(`(?i)\b(?:usd|us\$)\s*\d[\d,]*(?:\.\d+)?\b`),
	regexp.MustCompile(`(?i)\b\d[\d,]*(?:\.\d+)?\s*(?:usd|us\$)\s*(?:=|to|per|/)\s*\d[\d,]*(?:\.\d+)?\s*(?:zwl|rtgs|zig)\b`),
}

const valuePatternBonus = 0.5

// LexiconScorer scores text by weighted keyword and pattern matching.
type LexiconScorer struct{}

// NewLexiconScorer creates the keyword-only scorer.
func NewLexiconScorer() *LexiconScorer { return &LexiconScorer{} }

// Score returns the capped sum of keyword weights and pattern bonuses.
func (s *LexiconScorer) Score(text string) float64 {
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)

	score := 0.0
	for _, tier := range keywordTiers {
		for word, weight := range tier {
			if strings.Contains(lower, word) {
				score += weight
			}
		}
	}
	for _, pat := range valuePatterns {
		if pat.MatchString(lower) {
			score += valuePatternBonus
		}
	}

	return clamp01(score)
}

// Detector combines title and body scores against a threshold. The title
// carries a 1.5× weight: headlines name the subject far more reliably than
// body prose.
type Detector struct {
	scorer    Scorer
	threshold float64
	logger    *slog.Logger
}

// NewDetector builds a detector around the given scorer.
func NewDetector(scorer Scorer, threshold float64, logger *slog.Logger) *Detector {
	return &Detector{
		scorer:    scorer,
		threshold: threshold,
		logger:    logger.With("component", "relevance"),
	}
}

// Score exposes the underlying scorer.
func (d *Detector) Score(text string) float64 {
	return d.scorer.Score(text)
}

// Combined returns the title-weighted combined score.
func (d *Detector) Combined(title, body string) float64 {
	titleScore := d.scorer.Score(title) * 1.5
	bodyScore := d.scorer.Score(body)
	return (titleScore + bodyScore) / 2.5
}

// IsRelevant reports whether the combined score meets the detector's
// configured threshold.
func (d *Detector) IsRelevant(title, body string) bool {
	return d.IsRelevantAt(title, body, d.threshold)
}

// IsRelevantAt checks against an explicit threshold. The social adapter
// uses a lower threshold for curated accounts.
func (d *Detector) IsRelevantAt(title, body string, threshold float64) bool {
	return d.Combined(title, body) >= threshold
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
