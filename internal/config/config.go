package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int              `json:"port"`
	APIKeys       []string         `json:"api_keys"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Redis         RedisConfig      `json:"redis"`
	RateLimit     RateLimitConfig  `json:"rate_limit"`
	Cache         CacheConfig      `json:"cache"`
	Audio         AudioConfig      `json:"audio"`
	Pipeline      PipelineConfig   `json:"pipeline"`
	ModelStore    ModelStoreConfig `json:"model_store"`
}

type RedisConfig struct {
	Addr        string `json:"addr"`
	Password    string `json:"password"`
	DB          int    `json:"db"`
	IOTimeoutMS int    `json:"io_timeout_ms"`
}

type RateLimitConfig struct {
	PerWindow           int `json:"per_window"`
	WindowSeconds       int `json:"window_seconds"`
	ExpiryBufferSeconds int `json:"expiry_buffer_seconds"`
}

type CacheConfig struct {
	TTLSeconds      int `json:"ttl_seconds"`
	LocalSize       int `json:"local_size"`
	LocalTTLSeconds int `json:"local_ttl_seconds"`
}

type AudioConfig struct {
	MaxSizeBytes       int64    `json:"max_size_bytes"`
	MinDurationSeconds float64  `json:"min_duration_seconds"`
	MaxDurationSeconds float64  `json:"max_duration_seconds"`
	Languages          []string `json:"languages"`
	Formats            []string `json:"formats"`
}

type PipelineConfig struct {
	DeadlineMS int `json:"deadline_ms"`
	MaxWorkers int `json:"max_workers"`
}

// ModelStoreConfig selects where model artifacts are loaded from.
// Type is "local" or "s3"; Data carries the store-specific fields.
type ModelStoreConfig struct {
	Type        string      `json:"type"`
	ArtifactKey string      `json:"artifact_key"`
	Data        interface{} `json:"data"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if len(cfg.APIKeys) == 0 {
		return nil, fmt.Errorf("api_keys is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Redis.IOTimeoutMS <= 0 {
		cfg.Redis.IOTimeoutMS = 200
	}
	if cfg.RateLimit.PerWindow <= 0 {
		cfg.RateLimit.PerWindow = 60
	}
	if cfg.RateLimit.WindowSeconds <= 0 {
		cfg.RateLimit.WindowSeconds = 60
	}
	if cfg.RateLimit.ExpiryBufferSeconds <= 0 {
		cfg.RateLimit.ExpiryBufferSeconds = 30
	}
	if cfg.Cache.TTLSeconds <= 0 {
		cfg.Cache.TTLSeconds = 300
	}
	if cfg.Cache.LocalSize <= 0 {
		cfg.Cache.LocalSize = 1024
	}
	if cfg.Cache.LocalTTLSeconds <= 0 {
		cfg.Cache.LocalTTLSeconds = 60
	}
	if cfg.Audio.MaxSizeBytes <= 0 {
		cfg.Audio.MaxSizeBytes = 1 << 20
	}
	if cfg.Audio.MinDurationSeconds <= 0 {
		cfg.Audio.MinDurationSeconds = 1.0
	}
	if cfg.Audio.MaxDurationSeconds <= 0 {
		cfg.Audio.MaxDurationSeconds = 10.0
	}
	if len(cfg.Audio.Languages) == 0 {
		cfg.Audio.Languages = []string{"English", "Hindi", "Spanish", "French", "Mandarin"}
	}
	if len(cfg.Audio.Formats) == 0 {
		cfg.Audio.Formats = []string{"wav", "mp3"}
	}
	if cfg.Pipeline.DeadlineMS <= 0 {
		cfg.Pipeline.DeadlineMS = 25000
	}
	if cfg.Pipeline.MaxWorkers <= 0 {
		cfg.Pipeline.MaxWorkers = 2
	}
	if cfg.ModelStore.Type == "" {
		cfg.ModelStore.Type = "local"
	}
	if cfg.ModelStore.ArtifactKey == "" {
		cfg.ModelStore.ArtifactKey = "model.json"
	}
	return &cfg, nil
}
