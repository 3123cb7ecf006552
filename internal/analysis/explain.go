package analysis

import (
	"fmt"
	"strings"

	"github.com/sonaguard/sonaguard/internal/model"
)

// ruleExplainer builds the rationale from rule checks against human
// baseline stats plus the calibrated probability. Pure and allocation-light;
// it never fails.
type ruleExplainer struct {
	baselines map[string]BaselineStat
	threshold float64
}

func NewRuleExplainer(baselines map[string]BaselineStat, threshold float64) Explainer {
	return &ruleExplainer{baselines: baselines, threshold: threshold}
}

func (e *ruleExplainer) Explain(fv *model.FeatureVector, probability float64) string {
	isAI := probability >= e.threshold

	var cues []string
	// Synthetic voices tend to be unnaturally stable: jitter far below the
	// human median is a strong cue.
	if base, ok := e.baselines["jitter_local"]; ok && base.Median > 0 {
		if fv.Get("jitter_local") < base.Median*0.5 {
			cues = append(cues, "unusually low jitter (robotic pitch stability)")
		}
	}
	if base, ok := e.baselines["shimmer_local"]; ok && base.Median > 0 {
		if fv.Get("shimmer_local") < base.Median*0.5 {
			cues = append(cues, "unusually low shimmer (flat amplitude envelope)")
		}
	}
	if fv.Get("hnr") > 30.0 {
		cues = append(cues, "extremely high harmonicity (clean synthesis)")
	}

	verdict := model.ClassificationHuman
	displayConf := 1.0 - probability
	if isAI {
		verdict = model.ClassificationAI
		displayConf = probability
	}

	var adjective string
	switch {
	case displayConf < 0.6:
		adjective = "uncertain"
	case displayConf > 0.85:
		adjective = "highly confident"
	default:
		adjective = "moderate"
	}

	msg := fmt.Sprintf("The voice is classified as %s with %s probability (%.2f).", verdict, adjective, displayConf)
	switch {
	case isAI && len(cues) > 0:
		if len(cues) > 3 {
			cues = cues[:3]
		}
		msg += " Signals include: " + strings.Join(cues, "; ") + "."
	case !isAI:
		msg += " Acoustic features align with human speech patterns."
	default:
		msg += " Relying on aggregate spectral analysis."
	}
	return msg
}
