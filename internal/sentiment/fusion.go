package sentiment

import (
	"fmt"
	"math"

	"stockpicker/internal/config"
	"stockpicker/internal/domain"
)

// FusionScorer combines day sentiment with price momentum and volume into a
// single movement score. Weights come from config and are normalized at
// construction.
type FusionScorer struct {
	sentimentWeight float64
	momentumWeight  float64
	volumeWeight    float64
	threshold       float64
}

// NewFusionScorer creates a FusionScorer from config. Zero weights fall back
// to the defaults applied by config.Load.
func NewFusionScorer(cfg config.SentimentConfig) *FusionScorer {
	total := cfg.SentimentWeight + cfg.MomentumWeight + cfg.VolumeWeight
	if total == 0 {
		cfg.SentimentWeight, cfg.MomentumWeight, cfg.VolumeWeight = 0.5, 0.35, 0.15
		total = 1
	}
	return &FusionScorer{
		sentimentWeight: cfg.SentimentWeight / total,
		momentumWeight:  cfg.MomentumWeight / total,
		volumeWeight:    cfg.VolumeWeight / total,
		threshold:       cfg.Threshold,
	}
}

// Score fuses one feature row into a movement score in [-1, 1]. Positive
// scores lean toward an up day.
func (f *FusionScorer) Score(row domain.FeatureRow) float64 {
	// Momentum blends the short and medium return, squashed so outsized
	// moves saturate rather than dominate.
	momentum := math.Tanh(row.Return1D*25 + row.Return5D*10)

	// Volume z-score saturates at roughly three sigmas.
	volume := math.Tanh(row.VolumeZScore / 3)

	return f.sentimentWeight*row.Sentiment +
		f.momentumWeight*momentum +
		f.volumeWeight*volume
}

// PredictUp reports whether the fused score clears the decision threshold.
func (f *FusionScorer) PredictUp(row domain.FeatureRow) bool {
	return f.Score(row) > f.threshold
}

// Metrics summarizes classifier performance over a labeled set.
type Metrics struct {
	Rows      int
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
}

func (m Metrics) String() string {
	return fmt.Sprintf("rows=%d accuracy=%.3f precision=%.3f recall=%.3f f1=%.3f",
		m.Rows, m.Accuracy, m.Precision, m.Recall, m.F1)
}

// Evaluate scores every labeled row and compares predictions against the
// next-day labels.
func (f *FusionScorer) Evaluate(rows []domain.FeatureRow) Metrics {
	var tp, fp, tn, fn int
	for _, row := range rows {
		pred := f.PredictUp(row)
		switch {
		case pred && row.NextDayUp:
			tp++
		case pred && !row.NextDayUp:
			fp++
		case !pred && row.NextDayUp:
			fn++
		default:
			tn++
		}
	}

	m := Metrics{Rows: len(rows)}
	if len(rows) == 0 {
		return m
	}
	m.Accuracy = float64(tp+tn) / float64(len(rows))
	if tp+fp > 0 {
		m.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		m.Recall = float64(tp) / float64(tp+fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}
