// Package sentiment labels headlines with the VADER compound polarity score.
package sentiment

import (
	"crypto-news-bot/internal/types"

	"github.com/jonreiter/govader"
)

const (
	positiveThreshold = 0.05
	negativeThreshold = -0.05
)

// Scorer is safe for concurrent use, the analyzer lexicon is read-only after
// construction.
type Scorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewScorer() *Scorer {
	return &Scorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Compound returns the normalized polarity of text in [-1, 1].
func (s *Scorer) Compound(text string) float64 {
	return s.analyzer.PolarityScores(text).Compound
}

func (s *Scorer) Score(text string) types.Sentiment {
	return Classify(s.Compound(text))
}

// Classify maps a compound score onto a label.
func Classify(compound float64) types.Sentiment {
	switch {
	case compound >= positiveThreshold:
		return types.Positive
	case compound <= negativeThreshold:
		return types.Negative
	default:
		return types.Neutral
	}
}
