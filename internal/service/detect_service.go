package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sonaguard/sonaguard/internal/analysis"
	"github.com/sonaguard/sonaguard/internal/cache"
	"github.com/sonaguard/sonaguard/internal/config"
	"github.com/sonaguard/sonaguard/internal/model"
	appErr "github.com/sonaguard/sonaguard/internal/pkg/errors"
	"github.com/sonaguard/sonaguard/internal/ratelimit"
)

// Backend is the slice of the analysis backend handle the orchestrator
// needs: readiness, the model identity for cache tagging, and the shared
// pipeline collaborators.
type Backend interface {
	IsReady() bool
	ModelVersion() string
	Pipeline() (analysis.FeatureExtractor, analysis.Classifier, analysis.Explainer, error)
}

// DetectService is the orchestrator: it turns one inbound request into a
// validated, cached, admission-controlled, deadline-bounded run of the
// extract->classify pipeline. Per-request flow: Received -> Validated ->
// CacheChecked -> AdmissionChecked -> Executing -> terminal; no step
// re-enters an earlier one.
type DetectService struct {
	backend   Backend
	cache     *cache.ResultCache
	limiter   *ratelimit.Limiter
	env       *envelope
	group     singleflight.Group
	maxBytes  int64
	languages []string
	formats   []string
}

func NewDetectService(
	backend Backend,
	resultCache *cache.ResultCache,
	limiter *ratelimit.Limiter,
	audioCfg config.AudioConfig,
	pipelineCfg config.PipelineConfig,
) *DetectService {
	return &DetectService{
		backend:   backend,
		cache:     resultCache,
		limiter:   limiter,
		env:       newEnvelope(pipelineCfg),
		maxBytes:  audioCfg.MaxSizeBytes,
		languages: audioCfg.Languages,
		formats:   audioCfg.Formats,
	}
}

func (s *DetectService) Detect(ctx context.Context, req *model.DetectRequest, credential, requestID string) (*model.DetectionResult, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("request_id", requestID))

	audio, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	if !s.backend.IsReady() {
		return nil, appErr.ErrBackendNotReady
	}

	fingerprint := cache.Fingerprint(audio, req.Language)
	modelVersion := s.backend.ModelVersion()

	if entry, ok := s.cache.Get(ctx, fingerprint, modelVersion); ok {
		logger.Info("cache hit", zap.String("fingerprint", fingerprint[:12]))
		return entry.ToResult(requestID), nil
	}

	if err := s.limiter.CheckAndConsume(ctx, credential); err != nil {
		return nil, err
	}

	start := time.Now()
	entry, err := s.execute(ctx, fingerprint, audio, req.Format())
	if err != nil {
		logger.Warn("pipeline failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return nil, err
	}
	logger.Info("pipeline completed",
		zap.String("classification", entry.Classification),
		zap.Float64("confidence", entry.Confidence),
		zap.Duration("duration", time.Since(start)),
	)
	return entry.ToResult(requestID), nil
}

// validate checks shape, size and enum membership locally, no I/O.
// Malformed requests fail here and never reach the cache or backend.
func (s *DetectService) validate(req *model.DetectRequest) ([]byte, error) {
	encoded := req.Audio()
	if encoded == "" {
		return nil, fmt.Errorf("%w: audioBase64 is required", appErr.ErrInvalid)
	}
	// Base64 inflates payloads by ~4/3; reject on the encoded length first
	// so oversized uploads fail before the decode allocation.
	if int64(len(encoded)) > s.maxBytes*4/3+4 {
		return nil, fmt.Errorf("%w: encoded audio exceeds %d bytes", appErr.ErrPayloadTooLarge, s.maxBytes)
	}
	if req.Language == "" {
		return nil, fmt.Errorf("%w: language is required", appErr.ErrInvalid)
	}
	if !containsFold(s.languages, req.Language) {
		return nil, fmt.Errorf("%w: unsupported language %q", appErr.ErrInvalid, req.Language)
	}
	if !containsFold(s.formats, req.Format()) {
		return nil, fmt.Errorf("%w: unsupported audio format %q", appErr.ErrInvalid, req.Format())
	}
	audio, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: audioBase64 is not valid base64", appErr.ErrInvalid)
	}
	if int64(len(audio)) > s.maxBytes {
		return nil, fmt.Errorf("%w: audio exceeds %d bytes", appErr.ErrPayloadTooLarge, s.maxBytes)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio payload", appErr.ErrInvalid)
	}
	return audio, nil
}

// execute runs the pipeline under the envelope, collapsing concurrent
// requests for the same fingerprint into one computation. Each waiter still
// observes its own cancellation.
func (s *DetectService) execute(ctx context.Context, fingerprint string, audio []byte, format string) (*model.CacheEntry, error) {
	ch := s.group.DoChan(fingerprint, func() (interface{}, error) {
		return s.env.run(context.WithoutCancel(ctx), s.pipeline(fingerprint, audio, format))
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.CacheEntry), nil
	case <-ctx.Done():
		return nil, appErr.ErrTimeout
	}
}

func (s *DetectService) pipeline(fingerprint string, audio []byte, format string) pipelineFunc {
	return func(ctx context.Context) (*model.CacheEntry, error) {
		extractor, classifier, explainer, err := s.backend.Pipeline()
		if err != nil {
			return nil, err
		}
		fv, err := extractor.Extract(ctx, audio, format)
		if err != nil {
			return nil, err
		}
		label, probability, err := classifier.Classify(ctx, fv)
		if err != nil {
			return nil, err
		}
		confidence := probability
		if label == model.ClassificationHuman {
			confidence = 1 - probability
		}
		entry := &model.CacheEntry{
			Classification: label,
			Confidence:     math.Round(confidence*10000) / 10000,
			Explanation:    explainer.Explain(fv, probability),
			ModelVersion:   s.backend.ModelVersion(),
			CachedAt:       time.Now().Unix(),
		}
		// Write-through on a short detached timeout: an abandoned run that
		// finishes after its caller timed out may still publish here (and
		// only here), so the next identical request gets a hit.
		putCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		s.cache.Put(putCtx, fingerprint, entry)
		return entry, nil
	}
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
