package usecase

import (
	"math"
	"strings"

	"github.com/sotc/backend/internal/domain"
)

// Score term caps
const (
	pieceScoreMax     = 25
	pieceScoreFullAt  = 15
	diversityScoreMax = 25
	rarityScoreMax    = 25
	featureScoreMax   = 15
	premiumScoreMax   = 10
)

// ScoreBreakdown holds the five score terms and their clamped sum
type ScoreBreakdown struct {
	Pieces    int `json:"pieces"`
	Diversity int `json:"diversity"`
	Rarity    int `json:"rarity"`
	Features  int `json:"features"`
	Premium   int `json:"premium"`
	Total     int `json:"total"`
}

// CalculateScore returns the collection score in [0, 100]
func CalculateScore(analysis domain.CollectionAnalysis) int {
	return CalculateScoreBreakdown(analysis, defaultClassifier).Total
}

// CalculateScoreBreakdown scores a collection. All terms round down.
//
//   - pieces:    0-25, linear to 25 at 15 watches, flat after
//   - diversity: 0-25, series*3 + (series/total)*10
//   - rarity:    0-25, (rare+premium)/total * 50
//   - features:  0-15, unique lower-cased features * 1.5
//   - premium:   0-10, premium * 3
func CalculateScoreBreakdown(analysis domain.CollectionAnalysis, classifier *TierClassifier) ScoreBreakdown {
	total := len(analysis.Watches)
	if total == 0 {
		return ScoreBreakdown{}
	}

	counts := CountByTier(classifier.AddTiers(analysis.Watches))
	var s ScoreBreakdown

	if total >= pieceScoreFullAt {
		s.Pieces = pieceScoreMax
	} else {
		s.Pieces = total * pieceScoreMax / pieceScoreFullAt
	}

	series := seriesCount(analysis)
	s.Diversity = min(diversityScoreMax,
		int(math.Floor(float64(series*3)+float64(series)/float64(total)*10)))

	s.Rarity = min(rarityScoreMax, (counts.Rare+counts.Premium)*50/total)

	features := map[string]struct{}{}
	for _, w := range analysis.Watches {
		for _, f := range w.NotableFeatures {
			features[strings.ToLower(f)] = struct{}{}
		}
	}
	s.Features = min(featureScoreMax, len(features)*3/2)

	s.Premium = min(premiumScoreMax, counts.Premium*3)

	s.Total = min(100, max(0, s.Pieces+s.Diversity+s.Rarity+s.Features+s.Premium))
	return s
}

// seriesCount uses the breakdown keys, falling back to distinct watch series
func seriesCount(analysis domain.CollectionAnalysis) int {
	if len(analysis.SeriesBreakdown) > 0 {
		return len(analysis.SeriesBreakdown)
	}
	distinct := map[string]struct{}{}
	for _, w := range analysis.Watches {
		if w.Series != "" {
			distinct[strings.ToLower(w.Series)] = struct{}{}
		}
	}
	return len(distinct)
}
