package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/sonaguard/sonaguard/internal/model"
	appErr "github.com/sonaguard/sonaguard/internal/pkg/errors"
)

// linearClassifier scores a standard-scaled feature vector with a linear
// model and maps the logit through a Platt/temperature calibration curve.
// The feature schema is pinned at load time: key set, canonical order and
// scaler dimensions must all agree or classification refuses to run.
type linearClassifier struct {
	schemaVersion string
	featureKeys   []string
	scalerMean    []float64
	scalerScale   []float64
	weights       []float64
	bias          float64
	calibration   Calibration
	threshold     float64
}

func newLinearClassifier(a *Artifacts) (*linearClassifier, error) {
	keys := append([]string(nil), a.FeatureKeys...)
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			return nil, fmt.Errorf("feature_keys must be sorted and unique, got %q before %q", keys[i-1], keys[i])
		}
	}
	return &linearClassifier{
		schemaVersion: a.SchemaVersion,
		featureKeys:   keys,
		scalerMean:    a.ScalerMean,
		scalerScale:   a.ScalerScale,
		weights:       a.Weights,
		bias:          a.Bias,
		calibration:   a.Calibration,
		threshold:     a.Threshold,
	}, nil
}

func (c *linearClassifier) Classify(ctx context.Context, fv *model.FeatureVector) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	if fv == nil {
		return "", 0, fmt.Errorf("%w: nil feature vector", appErr.ErrModelUnavailable)
	}
	if fv.SchemaVersion != c.schemaVersion {
		return "", 0, fmt.Errorf("feature schema %q does not match model schema %q", fv.SchemaVersion, c.schemaVersion)
	}
	keys := fv.Keys()
	if len(keys) != len(c.featureKeys) {
		return "", 0, fmt.Errorf("feature count %d does not match model input %d", len(keys), len(c.featureKeys))
	}
	// Canonical order is part of the numeric contract; a renamed feature
	// must fail loudly rather than silently shift every weight.
	for i, k := range keys {
		if k != c.featureKeys[i] {
			return "", 0, fmt.Errorf("feature %q at position %d, model expects %q", k, i, c.featureKeys[i])
		}
	}
	values := fv.Values()

	logit := c.bias
	for i, v := range values {
		scaled := v - c.scalerMean[i]
		if c.scalerScale[i] != 0 {
			scaled /= c.scalerScale[i]
		}
		logit += c.weights[i] * scaled
	}
	probability := sigmoid(logit/c.calibration.Temperature + c.calibration.Bias)

	label := model.ClassificationHuman
	if probability >= c.threshold {
		label = model.ClassificationAI
	}
	return label, probability, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
