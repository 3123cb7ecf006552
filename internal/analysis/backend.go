package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/sonaguard/sonaguard/internal/config"
	"github.com/sonaguard/sonaguard/internal/filestore"
	appErr "github.com/sonaguard/sonaguard/internal/pkg/errors"
)

// Backend is the process-wide handle to the loaded analysis pipeline.
// Lifecycle: Unloaded -> Loading -> Ready, or Unloaded -> Loading -> Failed;
// both terminal. Exactly one load runs no matter how many callers race
// EnsureReady; latecomers block on the same attempt and observe its
// outcome. After Ready the collaborator references are read-only and shared
// across all requests without copying.
type Backend struct {
	store       filestore.Store
	artifactKey string
	audioCfg    config.AudioConfig

	loadOnce sync.Once
	loadErr  error
	ready    atomic.Bool

	extractor  FeatureExtractor
	classifier Classifier
	explainer  Explainer
	version    string
}

func NewBackend(store filestore.Store, storeCfg config.ModelStoreConfig, audioCfg config.AudioConfig) *Backend {
	return &Backend{
		store:       store,
		artifactKey: storeCfg.ArtifactKey,
		audioCfg:    audioCfg,
	}
}

// EnsureReady loads the model artifacts on first call and is idempotently
// safe afterwards: an already-ready backend is never reloaded, and a failed
// load stays failed. Load failure is fatal for the service; the caller is
// expected to refuse traffic.
func (b *Backend) EnsureReady(ctx context.Context) error {
	b.loadOnce.Do(func() {
		start := time.Now()
		logutil.GetLogger(ctx).Info("loading analysis backend", zap.String("artifact", b.artifactKey))
		b.loadErr = b.load(ctx)
		if b.loadErr != nil {
			logutil.GetLogger(ctx).Error("analysis backend load failed", zap.Error(b.loadErr))
			return
		}
		b.ready.Store(true)
		logutil.GetLogger(ctx).Info("analysis backend ready",
			zap.String("model_version", b.version),
			zap.Duration("duration", time.Since(start)),
		)
	})
	return b.loadErr
}

// IsReady is a cheap non-blocking query for the readiness probe.
func (b *Backend) IsReady() bool {
	return b.ready.Load()
}

func (b *Backend) ModelVersion() string {
	return b.version
}

// Pipeline hands out the shared collaborators. Callers arriving before the
// backend is Ready get ErrBackendNotReady and never observe a partially
// initialized pipeline.
func (b *Backend) Pipeline() (FeatureExtractor, Classifier, Explainer, error) {
	if !b.ready.Load() {
		return nil, nil, nil, appErr.ErrBackendNotReady
	}
	return b.extractor, b.classifier, b.explainer, nil
}

func (b *Backend) load(ctx context.Context) error {
	rc, err := b.store.Open(ctx, b.artifactKey)
	if err != nil {
		return fmt.Errorf("open artifact %s: %w", b.artifactKey, err)
	}
	defer rc.Close()

	var artifacts Artifacts
	if err := json.NewDecoder(rc).Decode(&artifacts); err != nil {
		return fmt.Errorf("decode artifact %s: %w", b.artifactKey, err)
	}
	if err := validateArtifacts(&artifacts); err != nil {
		return fmt.Errorf("artifact %s: %w", b.artifactKey, err)
	}

	classifier, err := newLinearClassifier(&artifacts)
	if err != nil {
		return err
	}
	b.extractor = NewExtractor(b.audioCfg, artifacts.SchemaVersion)
	b.classifier = classifier
	b.explainer = NewRuleExplainer(artifacts.Baselines, artifacts.Threshold)
	b.version = artifacts.Version
	return nil
}

func validateArtifacts(a *Artifacts) error {
	if a.Version == "" {
		return fmt.Errorf("version is required")
	}
	if a.SchemaVersion == "" {
		return fmt.Errorf("schema_version is required")
	}
	if len(a.FeatureKeys) == 0 {
		return fmt.Errorf("feature_keys is required")
	}
	if len(a.Weights) != len(a.FeatureKeys) {
		return fmt.Errorf("weights/feature_keys length mismatch: %d vs %d", len(a.Weights), len(a.FeatureKeys))
	}
	if len(a.ScalerMean) != len(a.FeatureKeys) || len(a.ScalerScale) != len(a.FeatureKeys) {
		return fmt.Errorf("scaler dimensions do not match feature_keys")
	}
	if a.Threshold <= 0 || a.Threshold >= 1 {
		return fmt.Errorf("threshold must be in (0,1), got %v", a.Threshold)
	}
	if a.Calibration.Temperature <= 0 {
		return fmt.Errorf("calibration.temperature must be positive")
	}
	return nil
}
