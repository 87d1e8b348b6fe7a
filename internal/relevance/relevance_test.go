package relevance

import (
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLexiconScorerCapsAtOne(t *testing.T) {
	s := NewLexiconScorer()
	text := "Zimbabwe dollar ZWL RBZ exchange rate forex parallel market inflation economy 350 ZWL"
	if got := s.Score(text); got != 1.0 {
		t.Errorf("Score = %v, want exactly 1.0", got)
	}
}

func TestLexiconScorerEmptyText(t *testing.T) {
	if got := NewLexiconScorer().Score(""); got != 0 {
		t.Errorf("Score(empty) = %v, want 0", got)
	}
}

func TestLexiconScorerTiers(t *testing.T) {
	s := NewLexiconScorer()

	high := s.Score("the zimbabwe dollar weakened today")
	low := s.Score("a meeting was held in harare")
	if high <= low {
		t.Errorf("currency term %v should outscore context term %v", high, low)
	}
	if low == 0 {
		t.Error("context term should still score above zero")
	}
}

func TestValuePatternBonus(t *testing.T) {
	s := NewLexiconScorer()
	without := s.Score("the economy is struggling")
	with := s.Score("the economy is struggling, trading at 350 ZWL")
	if with <= without {
		t.Errorf("value expression should add to score: %v vs %v", with, without)
	}
}

func TestDetectorTitleWeight(t *testing.T) {
	d := NewDetector(NewLexiconScorer(), 0.4, testLogger())

	// Same keyword in the title scores higher combined than in the body.
	inTitle := d.Combined("zimbabwe dollar crashes", "some unrelated text here")
	inBody := d.Combined("some unrelated text here", "zimbabwe dollar crashes")
	if inTitle <= inBody {
		t.Errorf("title placement %v should outscore body placement %v", inTitle, inBody)
	}
}

func TestDetectorCombinedFormula(t *testing.T) {
	d := NewDetector(NewLexiconScorer(), 0.4, testLogger())

	// Title scores 1.0, body 0: combined = 1.5/2.5 = 0.6.
	got := d.Combined("zimbabwe dollar", "nothing to see")
	if got < 0.59 || got > 0.61 {
		t.Errorf("Combined = %v, want 0.6", got)
	}
}

func TestDetectorThresholdMonotonic(t *testing.T) {
	d := NewDetector(NewLexiconScorer(), 0.4, testLogger())
	title, body := "zimbabwe economy", "inflation continues"

	if d.IsRelevantAt(title, body, 0.1) == false && d.IsRelevantAt(title, body, 0.9) == true {
		t.Error("lowering the threshold must never exclude an item a higher one included")
	}
	for _, th := range []float64{0.1, 0.3, 0.5, 0.7, 0.9} {
		lower := d.IsRelevantAt(title, body, th-0.05)
		higher := d.IsRelevantAt(title, body, th)
		if higher && !lower {
			t.Errorf("relevant at %v but not at %v", th, th-0.05)
		}
	}
}

func TestEntityScorerAtLeastKeywordSignal(t *testing.T) {
	es, err := NewEntityScorer()
	if err != nil {
		t.Fatalf("NewEntityScorer: %v", err)
	}

	text := "RBZ auction traded at 350 ZWL per USD in Harare"
	if got := es.Score(text); got <= 0 {
		t.Errorf("Score = %v, want > 0", got)
	}

	// Entity augmentation never lowers relevance below zero nor above cap.
	if got := es.Score(text); got > 1.0 {
		t.Errorf("Score = %v, exceeds cap", got)
	}
}
