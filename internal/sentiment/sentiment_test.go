package sentiment

import (
	"testing"
	"time"

	"stockpicker/internal/config"
	"stockpicker/internal/domain"
)

func TestScoreText(t *testing.T) {
	tests := []struct {
		text string
		sign int // -1, 0, +1
	}{
		{"Shares surge after earnings beat", +1},
		{"Stock plunges on fraud investigation", -1},
		{"Quarterly report published on schedule", 0},
		{"Analysts upgrade on strong growth outlook", +1},
		{"Downgrade follows weak guidance and profit warning", -1},
		{"", 0},
	}
	for _, tt := range tests {
		score, conf := ScoreText(tt.text)
		switch {
		case tt.sign > 0 && score <= 0:
			t.Errorf("ScoreText(%q) = %v, want positive", tt.text, score)
		case tt.sign < 0 && score >= 0:
			t.Errorf("ScoreText(%q) = %v, want negative", tt.text, score)
		case tt.sign == 0 && score != 0:
			t.Errorf("ScoreText(%q) = %v, want 0", tt.text, score)
		}
		if score < -1 || score > 1 {
			t.Errorf("ScoreText(%q) = %v, out of [-1, 1]", tt.text, score)
		}
		if conf < 0 || conf > 1 {
			t.Errorf("confidence %v out of [0, 1]", conf)
		}
	}
}

func TestScoreTextDeterministic(t *testing.T) {
	text := "Rally continues despite selloff concern"
	s1, c1 := ScoreText(text)
	s2, c2 := ScoreText(text)
	if s1 != s2 || c1 != c2 {
		t.Errorf("non-deterministic: (%v, %v) vs (%v, %v)", s1, c1, s2, c2)
	}
}

func TestAggregateTimeDecay(t *testing.T) {
	asOf := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	// A fresh bearish article should outweigh a week-old bullish one.
	articles := []domain.Article{
		{Headline: "Massive rally and breakout", Time: asOf.Add(-7 * 24 * time.Hour)},
		{Headline: "Stock crash amid fraud investigation", Time: asOf.Add(-time.Hour)},
	}
	score, count := Aggregate(articles, asOf)
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if score >= 0 {
		t.Errorf("score = %v, want negative (fresh article dominates)", score)
	}

	// No articles means neutral.
	score, count = Aggregate(nil, asOf)
	if score != 0 || count != 0 {
		t.Errorf("empty aggregate = (%v, %d)", score, count)
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.5, "bullish"},
		{0.2, "slightly bullish"},
		{0.0, "neutral"},
		{-0.2, "slightly bearish"},
		{-0.5, "bearish"},
	}
	for _, tt := range tests {
		if got := Label(tt.score); got != tt.want {
			t.Errorf("Label(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestDailySentiment(t *testing.T) {
	articles := []domain.Article{
		{Headline: "Shares surge on upgrade", Time: time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)},
		{Headline: "Plunge after downgrade", Time: time.Date(2024, 6, 11, 9, 0, 0, 0, time.UTC)},
	}
	daily := DailySentiment(articles)
	if len(daily) != 2 {
		t.Fatalf("got %d days, want 2", len(daily))
	}
	if daily["2024-06-10"] <= 0 {
		t.Errorf("2024-06-10 = %v, want positive", daily["2024-06-10"])
	}
	if daily["2024-06-11"] >= 0 {
		t.Errorf("2024-06-11 = %v, want negative", daily["2024-06-11"])
	}
}

func TestFusionScorerWeights(t *testing.T) {
	f := NewFusionScorer(config.SentimentConfig{
		SentimentWeight: 1, MomentumWeight: 1, VolumeWeight: 2,
	})
	// Weights normalize to sum 1.
	if got := f.sentimentWeight + f.momentumWeight + f.volumeWeight; got < 0.999 || got > 1.001 {
		t.Errorf("weights sum to %v", got)
	}

	// Zero config falls back to defaults rather than dividing by zero.
	f = NewFusionScorer(config.SentimentConfig{})
	if f.sentimentWeight == 0 {
		t.Error("zero config produced zero weights")
	}
}

func TestFusionScoreDirection(t *testing.T) {
	f := NewFusionScorer(config.SentimentConfig{
		SentimentWeight: 0.5, MomentumWeight: 0.35, VolumeWeight: 0.15,
	})

	up := domain.FeatureRow{Sentiment: 0.6, Return1D: 0.02, Return5D: 0.05, VolumeZScore: 1.0}
	down := domain.FeatureRow{Sentiment: -0.6, Return1D: -0.02, Return5D: -0.05, VolumeZScore: -1.0}

	if f.Score(up) <= 0 {
		t.Errorf("Score(up) = %v, want positive", f.Score(up))
	}
	if f.Score(down) >= 0 {
		t.Errorf("Score(down) = %v, want negative", f.Score(down))
	}
	if f.Score(up) <= f.Score(down) {
		t.Error("up row should outscore down row")
	}
}

func TestEvaluate(t *testing.T) {
	f := NewFusionScorer(config.SentimentConfig{
		SentimentWeight: 1, MomentumWeight: 0, VolumeWeight: 0, Threshold: 0,
	})

	rows := []domain.FeatureRow{
		{Sentiment: 0.8, NextDayUp: true},   // TP
		{Sentiment: 0.8, NextDayUp: false},  // FP
		{Sentiment: -0.8, NextDayUp: false}, // TN
		{Sentiment: -0.8, NextDayUp: true},  // FN
	}
	m := f.Evaluate(rows)

	if m.Rows != 4 {
		t.Errorf("Rows = %d", m.Rows)
	}
	if m.Accuracy != 0.5 {
		t.Errorf("Accuracy = %v, want 0.5", m.Accuracy)
	}
	if m.Precision != 0.5 || m.Recall != 0.5 || m.F1 != 0.5 {
		t.Errorf("P/R/F1 = %v/%v/%v, want 0.5 each", m.Precision, m.Recall, m.F1)
	}

	empty := f.Evaluate(nil)
	if empty.Rows != 0 || empty.Accuracy != 0 {
		t.Errorf("empty Evaluate = %+v", empty)
	}
}
