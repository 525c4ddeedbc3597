// Package sentiment scores news text and fuses it with price features into
// a movement signal. The scorer is deterministic keyword matching, so
// results are reproducible across runs.
package sentiment

import (
	"math"
	"sort"
	"strings"
	"time"

	"stockpicker/internal/domain"
)

// Bullish and bearish keyword dictionaries (lowercase, stemmed).
var bullishWords = map[string]float64{
	"bullish": 0.7, "rally": 0.6, "surge": 0.7, "upbeat": 0.5,
	"positive": 0.4, "growth": 0.4, "upgrade": 0.6, "outperform": 0.6,
	"buy": 0.5, "strong": 0.4, "recovery": 0.5, "breakout": 0.6,
	"record high": 0.7, "all-time high": 0.7, "beat": 0.5,
	"exceeds": 0.5, "beats estimate": 0.6, "expansion": 0.4,
	"profit": 0.3, "dividend": 0.4, "accumulate": 0.5,
}

var bearishWords = map[string]float64{
	"bearish": 0.7, "crash": 0.8, "plunge": 0.7, "slump": 0.6,
	"negative": 0.4, "downgrade": 0.6, "underperform": 0.6,
	"sell": 0.5, "weak": 0.4, "decline": 0.5, "loss": 0.4,
	"selloff": 0.7, "fall": 0.4, "correction": 0.5,
	"default": 0.7, "fraud": 0.8, "scam": 0.8, "investigation": 0.5,
	"cut": 0.3, "miss": 0.5, "warning": 0.5, "concern": 0.3,
}

// ScoreText returns a sentiment score in [-1, 1] for a piece of text, with a
// confidence in [0, 1] based on keyword coverage.
func ScoreText(text string) (score, confidence float64) {
	lower := strings.ToLower(text)

	bullScore := 0.0
	bearScore := 0.0
	matches := 0

	for word, weight := range bullishWords {
		if strings.Contains(lower, word) {
			bullScore += weight
			matches++
		}
	}
	for word, weight := range bearishWords {
		if strings.Contains(lower, word) {
			bearScore += weight
			matches++
		}
	}

	if matches == 0 {
		return 0, 0.1 // no signal
	}
	total := bullScore + bearScore
	if total == 0 {
		return 0, 0.1
	}

	score = (bullScore - bearScore) / total
	confidence = math.Min(float64(matches)*0.15+0.2, 0.85)
	return score, confidence
}

// ScoreArticle scores one article using its headline and content.
func ScoreArticle(a domain.Article) (score, confidence float64) {
	text := a.Headline
	if a.Content != "" {
		text += " " + a.Content
	}
	return ScoreText(text)
}

// Aggregate computes a time-weighted aggregate sentiment over articles,
// relative to asOf. Article weight halves every 24 hours and scales with
// per-article confidence.
func Aggregate(articles []domain.Article, asOf time.Time) (score float64, count int) {
	weightedSum := 0.0
	totalWeight := 0.0

	for _, a := range articles {
		s, conf := ScoreArticle(a)

		age := asOf.Sub(a.Time).Hours()
		if age < 0 {
			age = 0
		}
		timeWeight := math.Exp(-math.Ln2 * age / 24)
		w := timeWeight * conf

		weightedSum += s * w
		totalWeight += w
	}

	if totalWeight == 0 {
		return 0, len(articles)
	}
	return weightedSum / totalWeight, len(articles)
}

// Label maps an aggregate score to a human-readable sentiment label.
func Label(score float64) string {
	switch {
	case score > 0.3:
		return "bullish"
	case score > 0.1:
		return "slightly bullish"
	case score < -0.3:
		return "bearish"
	case score < -0.1:
		return "slightly bearish"
	default:
		return "neutral"
	}
}

// DailySentiment buckets articles by calendar day (UTC) and aggregates each
// bucket as of that day's end. Keys are YYYY-MM-DD.
func DailySentiment(articles []domain.Article) map[string]float64 {
	byDay := make(map[string][]domain.Article)
	for _, a := range articles {
		byDay[a.Time.UTC().Format("2006-01-02")] = append(byDay[a.Time.UTC().Format("2006-01-02")], a)
	}

	out := make(map[string]float64, len(byDay))
	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		d, _ := time.Parse("2006-01-02", day)
		asOf := d.Add(24 * time.Hour)
		score, _ := Aggregate(byDay[day], asOf)
		out[day] = score
	}
	return out
}
