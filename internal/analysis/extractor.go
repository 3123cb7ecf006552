package analysis

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"

	"github.com/sonaguard/sonaguard/internal/config"
	"github.com/sonaguard/sonaguard/internal/model"
	appErr "github.com/sonaguard/sonaguard/internal/pkg/errors"
)

const (
	frameLen = 2048
	hopLen   = 512

	// Voiced pitch search band, matching typical speech F0.
	pitchFloorHz   = 75.0
	pitchCeilingHz = 500.0

	rolloffFraction = 0.85
)

// Extractor is the reference acoustic feature extractor: frame-based
// spectral statistics plus pitch-track derived stability measures
// (jitter, shimmer, HNR). One instance is shared by all requests.
type Extractor struct {
	minDuration   float64
	maxDuration   float64
	schemaVersion string
}

func NewExtractor(cfg config.AudioConfig, schemaVersion string) *Extractor {
	return &Extractor{
		minDuration:   cfg.MinDurationSeconds,
		maxDuration:   cfg.MaxDurationSeconds,
		schemaVersion: schemaVersion,
	}
}

func (e *Extractor) Extract(ctx context.Context, audio []byte, format string) (*model.FeatureVector, error) {
	samples, sr, err := decodeAudio(audio, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrDecode, err)
	}
	duration := float64(len(samples)) / float64(sr)
	if duration < e.minDuration || duration > e.maxDuration {
		return nil, fmt.Errorf("%w: %.2fs not in [%.1fs, %.1fs]",
			appErr.ErrDuration, duration, e.minDuration, e.maxDuration)
	}
	if len(samples) < frameLen {
		return nil, fmt.Errorf("%w: stream shorter than one analysis frame", appErr.ErrDuration)
	}

	fft := fourier.NewFFT(frameLen)
	window := hannWindow(frameLen)
	binHz := float64(sr) / float64(frameLen)

	var (
		centroids, rolloffs, flatnesses, zcrs []float64
		pitches, harmonicities                []float64
		periods, amplitudes                   []float64
		voiced, total                         int
	)

	buf := make([]float64, frameLen)
	for start := 0; start+frameLen <= len(samples); start += hopLen {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		total++
		frame := samples[start : start+frameLen]
		for i, s := range frame {
			buf[i] = s * window[i]
		}

		coeffs := fft.Coefficients(nil, buf)
		mags := make([]float64, len(coeffs))
		for i, c := range coeffs {
			mags[i] = cmplx.Abs(c)
		}
		centroids = append(centroids, spectralCentroid(mags, binHz))
		rolloffs = append(rolloffs, spectralRolloff(mags, binHz))
		flatnesses = append(flatnesses, spectralFlatness(mags))
		zcrs = append(zcrs, zeroCrossingRate(frame))

		pitch, clarity, ok := pitchAutocorr(frame, sr)
		if ok {
			voiced++
			pitches = append(pitches, pitch)
			periods = append(periods, 1.0/pitch)
			amplitudes = append(amplitudes, rms(frame))
			harmonicities = append(harmonicities, harmonicityDB(clarity))
		}
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: no analysis frames", appErr.ErrDuration)
	}

	fv := model.NewFeatureVector(e.schemaVersion)
	fv.Set("spectral_centroid_mean", stat.Mean(centroids, nil))
	fv.Set("spectral_centroid_std", stdOrZero(centroids))
	fv.Set("spectral_rolloff_mean", stat.Mean(rolloffs, nil))
	fv.Set("spectral_rolloff_std", stdOrZero(rolloffs))
	fv.Set("spectral_flatness_mean", stat.Mean(flatnesses, nil))
	fv.Set("spectral_flatness_std", stdOrZero(flatnesses))
	fv.Set("zcr_mean", stat.Mean(zcrs, nil))
	fv.Set("zcr_std", stdOrZero(zcrs))
	fv.Set("voiced_ratio", float64(voiced)/float64(total))
	if len(pitches) > 0 {
		fv.Set("pitch_mean", stat.Mean(pitches, nil))
		fv.Set("pitch_std", stdOrZero(pitches))
		fv.Set("jitter_local", relativePerturbation(periods))
		fv.Set("shimmer_local", relativePerturbation(amplitudes))
		fv.Set("hnr", stat.Mean(harmonicities, nil))
	} else {
		fv.Set("pitch_mean", 0)
		fv.Set("pitch_std", 0)
		fv.Set("jitter_local", 0)
		fv.Set("shimmer_local", 0)
		fv.Set("hnr", 0)
	}
	return fv, nil
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

func spectralCentroid(mags []float64, binHz float64) float64 {
	var weighted, sum float64
	for i, m := range mags {
		weighted += float64(i) * binHz * m
		sum += m
	}
	if sum == 0 {
		return 0
	}
	return weighted / sum
}

func spectralRolloff(mags []float64, binHz float64) float64 {
	var total float64
	for _, m := range mags {
		total += m
	}
	if total == 0 {
		return 0
	}
	var cum float64
	for i, m := range mags {
		cum += m
		if cum >= rolloffFraction*total {
			return float64(i) * binHz
		}
	}
	return float64(len(mags)-1) * binHz
}

func spectralFlatness(mags []float64) float64 {
	const eps = 1e-10
	var logSum, sum float64
	for _, m := range mags {
		logSum += math.Log(m + eps)
		sum += m
	}
	n := float64(len(mags))
	return math.Exp(logSum/n) / (sum/n + eps)
}

func zeroCrossingRate(frame []float64) float64 {
	crossings := 0
	for i := 1; i < len(frame); i++ {
		if (frame[i-1] >= 0) != (frame[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(frame))
}

func rms(frame []float64) float64 {
	var sum float64
	for _, s := range frame {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(frame)))
}

// pitchAutocorr estimates F0 by normalized autocorrelation over the speech
// band. Returns (pitchHz, peak clarity, voiced).
func pitchAutocorr(frame []float64, sr int) (float64, float64, bool) {
	if rms(frame) < 1e-3 {
		return 0, 0, false
	}
	minLag := int(float64(sr) / pitchCeilingHz)
	maxLag := int(float64(sr) / pitchFloorHz)
	if maxLag >= len(frame) {
		maxLag = len(frame) - 1
	}
	if minLag < 1 || minLag >= maxLag {
		return 0, 0, false
	}
	var energy float64
	for _, s := range frame {
		energy += s * s
	}
	if energy == 0 {
		return 0, 0, false
	}
	bestLag, bestCorr := 0, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var corr float64
		for i := 0; i+lag < len(frame); i++ {
			corr += frame[i] * frame[i+lag]
		}
		corr /= energy
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}
	if bestLag == 0 || bestCorr < 0.3 {
		return 0, 0, false
	}
	return float64(sr) / float64(bestLag), bestCorr, true
}

// harmonicityDB converts an autocorrelation peak into a Praat-style
// harmonics-to-noise ratio in dB.
func harmonicityDB(clarity float64) float64 {
	clarity = math.Min(math.Max(clarity, 0.001), 0.999)
	return 10 * math.Log10(clarity/(1-clarity))
}

// relativePerturbation is the mean absolute cycle-to-cycle change divided
// by the mean value: jitter for periods, shimmer for amplitudes.
func relativePerturbation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := stat.Mean(values, nil)
	if mean == 0 {
		return 0
	}
	var sum float64
	for i := 1; i < len(values); i++ {
		sum += math.Abs(values[i] - values[i-1])
	}
	return (sum / float64(len(values)-1)) / mean
}

func stdOrZero(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}
