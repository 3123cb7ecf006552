package model

const (
	ClassificationHuman = "Human"
	ClassificationAI    = "AI-Generated"
)

type DetectRequest struct {
	AudioBase64 string `json:"audioBase64"`
	// Snake-case alias accepted for compatibility with older clients.
	AudioBase64Alt string `json:"audio_base_64"`
	Language       string `json:"language"`
	AudioFormat    string `json:"audioFormat"`
	AudioFormatAlt string `json:"audio_format"`
}

func (r *DetectRequest) Audio() string {
	if r.AudioBase64 != "" {
		return r.AudioBase64
	}
	return r.AudioBase64Alt
}

func (r *DetectRequest) Format() string {
	if r.AudioFormat != "" {
		return r.AudioFormat
	}
	if r.AudioFormatAlt != "" {
		return r.AudioFormatAlt
	}
	return "wav"
}

type DetectionResult struct {
	Classification string  `json:"classification"`
	Confidence     float64 `json:"confidence"`
	Explanation    string  `json:"explanation"`
	ModelVersion   string  `json:"model_version"`
	RequestID      string  `json:"request_id"`
}

// CacheEntry is a DetectionResult stripped of its per-request identity,
// as stored under a content fingerprint.
type CacheEntry struct {
	Classification string  `json:"classification"`
	Confidence     float64 `json:"confidence"`
	Explanation    string  `json:"explanation"`
	ModelVersion   string  `json:"model_version"`
	CachedAt       int64   `json:"cached_at"`
}

func (e *CacheEntry) ToResult(requestID string) *DetectionResult {
	return &DetectionResult{
		Classification: e.Classification,
		Confidence:     e.Confidence,
		Explanation:    e.Explanation,
		ModelVersion:   e.ModelVersion,
		RequestID:      requestID,
	}
}

func EntryFromResult(res *DetectionResult, now int64) *CacheEntry {
	return &CacheEntry{
		Classification: res.Classification,
		Confidence:     res.Confidence,
		Explanation:    res.Explanation,
		ModelVersion:   res.ModelVersion,
		CachedAt:       now,
	}
}
