package analysis

import (
	"context"
	"math"
	"testing"

	"github.com/sonaguard/sonaguard/internal/model"
)

func twoFeatureArtifacts() *Artifacts {
	return &Artifacts{
		Version:       "v1",
		SchemaVersion: "s1",
		Threshold:     0.5,
		FeatureKeys:   []string{"a", "b"},
		ScalerMean:    []float64{0, 0},
		ScalerScale:   []float64{1, 1},
		Weights:       []float64{1, 0},
		Bias:          0,
		Calibration:   Calibration{Temperature: 1},
	}
}

func twoFeatureVector(a, b float64) *model.FeatureVector {
	fv := model.NewFeatureVector("s1")
	fv.Set("a", a)
	fv.Set("b", b)
	return fv
}

func TestLinearClassifier_Scoring(t *testing.T) {
	c, err := newLinearClassifier(twoFeatureArtifacts())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	label, p, err := c.Classify(ctx, twoFeatureVector(2, 0))
	if err != nil {
		t.Fatal(err)
	}
	want := 1 / (1 + math.Exp(-2))
	if math.Abs(p-want) > 1e-9 {
		t.Fatalf("probability = %v, want %v", p, want)
	}
	if label != model.ClassificationAI {
		t.Fatalf("label = %q, want %q", label, model.ClassificationAI)
	}

	label, p, err = c.Classify(ctx, twoFeatureVector(-2, 0))
	if err != nil {
		t.Fatal(err)
	}
	if p >= 0.5 || label != model.ClassificationHuman {
		t.Fatalf("got (%q, %v), want Human below threshold", label, p)
	}
}

func TestLinearClassifier_StandardScaling(t *testing.T) {
	a := twoFeatureArtifacts()
	a.ScalerMean = []float64{10, 0}
	a.ScalerScale = []float64{5, 1}
	c, err := newLinearClassifier(a)
	if err != nil {
		t.Fatal(err)
	}
	// (10-10)/5 = 0, so the logit is exactly the bias.
	_, p, err := c.Classify(context.Background(), twoFeatureVector(10, 0))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(p-0.5) > 1e-9 {
		t.Fatalf("probability = %v, want 0.5", p)
	}
}

func TestLinearClassifier_TemperatureSoftensProbability(t *testing.T) {
	hot := twoFeatureArtifacts()
	hot.Calibration.Temperature = 4
	c, err := newLinearClassifier(hot)
	if err != nil {
		t.Fatal(err)
	}
	_, p, err := c.Classify(context.Background(), twoFeatureVector(2, 0))
	if err != nil {
		t.Fatal(err)
	}
	raw := 1 / (1 + math.Exp(-2))
	if p >= raw || p <= 0.5 {
		t.Fatalf("temperature 4 should pull %v toward 0.5, got %v", raw, p)
	}
}

func TestLinearClassifier_SchemaPinned(t *testing.T) {
	c, err := newLinearClassifier(twoFeatureArtifacts())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	wrongSchema := twoFeatureVector(1, 1)
	wrongSchema.SchemaVersion = "s2"
	if _, _, err := c.Classify(ctx, wrongSchema); err == nil {
		t.Fatal("expected schema version mismatch error")
	}

	missing := model.NewFeatureVector("s1")
	missing.Set("a", 1)
	if _, _, err := c.Classify(ctx, missing); err == nil {
		t.Fatal("expected feature count mismatch error")
	}

	renamed := model.NewFeatureVector("s1")
	renamed.Set("a", 1)
	renamed.Set("c", 1)
	if _, _, err := c.Classify(ctx, renamed); err == nil {
		t.Fatal("expected feature name mismatch error")
	}
}

func TestNewLinearClassifier_RejectsUnsortedKeys(t *testing.T) {
	a := twoFeatureArtifacts()
	a.FeatureKeys = []string{"b", "a"}
	if _, err := newLinearClassifier(a); err == nil {
		t.Fatal("expected unsorted feature_keys error")
	}
	a.FeatureKeys = []string{"a", "a"}
	if _, err := newLinearClassifier(a); err == nil {
		t.Fatal("expected duplicate feature_keys error")
	}
}
