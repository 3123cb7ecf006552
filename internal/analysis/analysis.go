package analysis

import (
	"context"

	"github.com/sonaguard/sonaguard/internal/model"
)

// FeatureExtractor turns raw audio bytes into a feature vector. Slow,
// CPU-bound, blocking; always invoked through the execution envelope.
type FeatureExtractor interface {
	Extract(ctx context.Context, audio []byte, format string) (*model.FeatureVector, error)
}

// Classifier scores a feature vector. The returned probability is the
// calibrated probability of the AI-Generated class; the label is decided
// against the model's decision threshold.
type Classifier interface {
	Classify(ctx context.Context, fv *model.FeatureVector) (label string, probability float64, err error)
}

// Explainer produces the human-readable rationale. Pure, never fails.
type Explainer interface {
	Explain(fv *model.FeatureVector, probability float64) string
}

// BaselineStat summarizes one feature's distribution over a human speech
// corpus, used by the explainer's rule checks.
type BaselineStat struct {
	Median float64 `json:"median"`
	P10    float64 `json:"p10"`
	P90    float64 `json:"p90"`
}

// Artifacts is the on-disk model bundle: feature schema, standard scaler,
// linear model weights, calibration curve and human baselines. A bundle is
// versioned as a whole; cache entries are tagged with Version.
type Artifacts struct {
	Version       string                  `json:"version"`
	SchemaVersion string                  `json:"schema_version"`
	Threshold     float64                 `json:"threshold"`
	FeatureKeys   []string                `json:"feature_keys"`
	ScalerMean    []float64               `json:"scaler_mean"`
	ScalerScale   []float64               `json:"scaler_scale"`
	Weights       []float64               `json:"weights"`
	Bias          float64                 `json:"bias"`
	Calibration   Calibration             `json:"calibration"`
	Baselines     map[string]BaselineStat `json:"baselines"`
}

// Calibration holds Platt-style scaling parameters:
// p = sigmoid(logit/temperature + bias).
type Calibration struct {
	Temperature float64 `json:"temperature"`
	Bias        float64 `json:"bias"`
}
