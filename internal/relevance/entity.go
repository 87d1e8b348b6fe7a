package relevance

import (
	"fmt"
	"regexp"
)

// EntityScorer augments the lexicon scorer with a lightweight entity
// detection stage: money/quantity expressions and mentions of the country
// of interest. Its contribution is capped separately and added to a capped
// keyword score, so the augmentation can only refine, never dominate.
//
// Construction can fail (pattern compilation); callers fall back to the
// plain lexicon scorer in that case, keeping the degradation decision in
// one place.
type EntityScorer struct {
	lexicon  *LexiconScorer
	money    *regexp.Regexp
	quantity *regexp.Regexp
	location *regexp.Regexp
}

const (
	entityCap     = 0.5
	keywordSubCap = 0.7
	moneyBonus    = 0.3
	locationBonus = 0.2
)

// NewEntityScorer builds the entity-augmented scorer.
func NewEntityScorer() (*EntityScorer, error) {
	patterns := []string{
		`(?i)(?:\$|us\$|usd|zwl|zig|rtgs)\s*\d[\d,]*(?:\.\d+)?|\d[\d,]*(?:\.\d+)?\s*(?:dollars?|zwl|zig|rtgs|usd)`,
		`(?i)\d[\d,]*(?:\.\d+)?\s*(?:%|percent|per\s?cent)`,
		`(?i)\b(?:zimbabwe|zimbabwean|harare|bulawayo|zim)\b`,
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile entity pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return &EntityScorer{
		lexicon:  NewLexiconScorer(),
		money:    compiled[0],
		quantity: compiled[1],
		location: compiled[2],
	}, nil
}

// Score combines a capped entity score with a capped keyword score.
func (s *EntityScorer) Score(text string) float64 {
	if text == "" {
		return 0
	}

	entityScore := 0.0
	if s.money.MatchString(text) {
		entityScore += moneyBonus
	}
	if s.quantity.MatchString(text) {
		entityScore += moneyBonus
	}
	if s.location.MatchString(text) {
		entityScore += locationBonus
	}
	if entityScore > entityCap {
		entityScore = entityCap
	}

	keywordScore := s.lexicon.Score(text)
	if keywordScore > keywordSubCap {
		keywordScore = keywordSubCap
	}

	return clamp01(entityScore + keywordScore)
}
