package matcher

import (
	"videodrome/internal/catalog"
	"videodrome/internal/mediaparse"
	"videodrome/internal/textutil"
)

const (
	titleWeight      = 0.40
	yearExact        = 0.30
	yearOffByOne     = 0.20
	yearOffByTwo     = 0.10
	yearAbsent       = 0.15
	popularityWeight = 0.15
	popularityCap    = 100.0
	kindMatch        = 0.15
	kindMismatch     = 0.05
)

// Score returns the confidence in [0,1] that candidate is what guess describes.
func Score(guess mediaparse.Guess, candidate catalog.Candidate) float64 {
	score := textutil.Similarity(guess.Title, candidate.Name) * titleWeight
	score += yearScore(guess.Year, candidate.Year())
	score += popularityScore(candidate.Popularity)
	score += kindScore(guess.Kind, candidate.Kind)
	return clamp(score)
}

func yearScore(parsed, candidate int) float64 {
	if parsed <= 0 {
		return yearAbsent
	}
	if candidate <= 0 {
		return 0
	}
	diff := parsed - candidate
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return yearExact
	case 1:
		return yearOffByOne
	case 2:
		return yearOffByTwo
	default:
		return 0
	}
}

func popularityScore(popularity float64) float64 {
	if popularity <= 0 {
		return 0
	}
	normalized := popularity / popularityCap
	if normalized > 1 {
		normalized = 1
	}
	return normalized * popularityWeight
}

func kindScore(guess mediaparse.Kind, candidate catalog.Kind) float64 {
	switch guess {
	case mediaparse.KindMovie:
		if candidate == catalog.KindMovie {
			return kindMatch
		}
		return kindMismatch
	case mediaparse.KindEpisode:
		if candidate == catalog.KindShow {
			return kindMatch
		}
		return kindMismatch
	default:
		return 0
	}
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
