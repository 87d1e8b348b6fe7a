// Package sentiment scores content for polarity and market impact. The
// combined score blends a general-purpose compound polarity with a
// domain-specific keyword signal; impact further folds in source influence.
package sentiment

import (
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
)

// Label thresholds. The full (VADER-backed) mode labels at ±0.05; the
// lexicon-only fallback produces coarser scores and labels at ±0.2.
const (
	vaderLabelThreshold   = 0.05
	lexiconLabelThreshold = 0.2
)

// Result is the outcome of analyzing one text.
type Result struct {
	Sentiment       string  // positive, neutral, negative
	Score           float64 // [-1, 1]
	Impact          float64 // [0, 1]
	GeneralCompound float64
	DomainSentiment float64
}

// GeneralScorer produces a domain-agnostic compound polarity in [-1,1].
type GeneralScorer interface {
	Compound(text string) float64
}

// VaderScorer wraps the govader lexicon analyzer.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderScorer builds the VADER-backed general scorer.
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Compound returns VADER's compound polarity.
func (v *VaderScorer) Compound(text string) float64 {
	return v.analyzer.PolarityScores(text).Compound
}

// FallbackScorer is the lexicon-only general scorer with explicit negation
// handling: a negation token flips lexicon contributions for the next
// negationWindow tokens.
type FallbackScorer struct{}

const negationWindow = 5

// NewFallbackScorer builds the lexicon-only scorer.
func NewFallbackScorer() *FallbackScorer { return &FallbackScorer{} }

// Compound scans tokens left to right, swapping positive and negative
// contributions inside an active negation window, and returns
// (pos − neg) / (pos + neg), or 0 when nothing matched.
func (f *FallbackScorer) Compound(text string) float64 {
	tokens := strings.Fields(text)

	var pos, neg float64
	negateLeft := 0

	for _, tok := range tokens {
		if negationTerms[tok] {
			negateLeft = negationWindow
			continue
		}

		negated := negateLeft > 0
		if negateLeft > 0 {
			negateLeft--
		}

		switch {
		case positiveTerms[tok]:
			if negated {
				neg++
			} else {
				pos++
			}
		case negativeTerms[tok]:
			if negated {
				pos++
			} else {
				neg++
			}
		}
	}

	if pos+neg == 0 {
		return 0
	}
	return (pos - neg) / (pos + neg)
}

// Analyzer is the sentiment engine. Analyze is a pure function of its text
// input and the fixed lexicons; identical input reproduces identical output.
type Analyzer struct {
	general        GeneralScorer
	labelThreshold float64
	logger         *slog.Logger
}

// New builds an analyzer. Mode "lexicon" selects the fallback scorer with
// its ±0.2 label thresholds; anything else gets VADER at ±0.05.
func New(mode string, logger *slog.Logger) *Analyzer {
	a := &Analyzer{logger: logger.With("component", "sentiment")}
	if mode == "lexicon" {
		a.general = NewFallbackScorer()
		a.labelThreshold = lexiconLabelThreshold
	} else {
		a.general = NewVaderScorer()
		a.labelThreshold = vaderLabelThreshold
	}
	return a
}

var (
	urlPattern      = regexp.MustCompile(`https?://\S+|www\.\S+`)
	nonAlphaPattern = regexp.MustCompile(`[^a-zA-Z\s]`)
	spacePattern    = regexp.MustCompile(`\s+`)
)

// Preprocess lowercases, strips URLs and non-alphabetic characters, and
// collapses whitespace.
func Preprocess(text string) string {
	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, "")
	text = nonAlphaPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
}

// Analyze scores the text and returns label, signed score, and impact.
func (a *Analyzer) Analyze(text string) Result {
	clean := Preprocess(text)

	general := a.general.Compound(clean)
	domainSentiment, domainImpact := domainScore(clean)

	score := 0.7*general + 0.3*domainSentiment
	impact := math.Min(1.0, 0.7*domainImpact+0.3*math.Abs(general))

	return Result{
		Sentiment:       a.Label(score),
		Score:           score,
		Impact:          impact,
		GeneralCompound: general,
		DomainSentiment: domainSentiment,
	}
}

// Label maps a signed score to its sentiment label using the analyzer's
// mode-specific threshold.
func (a *Analyzer) Label(score float64) string {
	switch {
	case score >= a.labelThreshold:
		return "positive"
	case score <= -a.labelThreshold:
		return "negative"
	default:
		return "neutral"
	}
}

// AdjustImpact multiplies the impact by the source's influence score
// (default 1.0 when unknown), re-capped at 1.0.
func AdjustImpact(r Result, influence float64) Result {
	if influence <= 0 {
		influence = 1.0
	}
	r.Impact = math.Min(1.0, r.Impact*influence)
	return r
}

// domainScore matches the domain keyword table against the cleaned text:
// substring match for multi-word terms, token match after stopword removal
// for single words. Returns the mean signed value and the impact
// min(1, matches/10 + mean(|values|)); an unmatched text gets impact 0.1.
func domainScore(clean string) (sentiment, impact float64) {
	tokens := strings.Fields(clean)
	tokenSet := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		if !stopwords[t] {
			tokenSet[t] = true
		}
	}

	var matched int
	var sum, absSum float64

	for keyword, value := range domainKeywords {
		var hit bool
		if strings.Contains(keyword, " ") {
			hit = strings.Contains(clean, keyword)
		} else {
			hit = tokenSet[keyword]
		}
		if hit {
			matched++
			sum += value
			absSum += math.Abs(value)
		}
	}

	if matched == 0 {
		return 0, 0.1
	}

	sentiment = sum / float64(matched)
	impact = math.Min(1.0, float64(matched)/10.0+absSum/float64(matched))
	return sentiment, impact
}
