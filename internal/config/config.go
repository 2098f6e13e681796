package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the grading API service.
type Config struct {
	AppName string
	AppEnv  string
	AppPort string

	RedisURL           string
	JobStoreBackend    string
	JobTTL             time.Duration
	JobCleanupInterval time.Duration

	AIProvider      string
	LLMModel        string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	LLMTemperature  float32
	LLMMaxTokens    int
	LLMTimeout      time.Duration
	LLMMaxRetries   int

	Grading    GradingConfig
	Preprocess PreprocessConfig
}

// GradingConfig carries throughput and fan-out knobs for the pipeline.
type GradingConfig struct {
	ParallelCalls       int
	TargetBatchSize     int
	RequestsPerMinute   int
	TokensPerMinute     int
	AvgTokensPerRequest int
	BatchesPerMinute    int
	BatchDelay          time.Duration
}

// PreprocessConfig controls submission preprocessing.
type PreprocessConfig struct {
	MaxFileChars int
	CacheTTL     time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SG")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Supergrader API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("job.store", "memory")
	v.SetDefault("job.ttl", "1h")
	v.SetDefault("job.cleanup_interval", "10m")
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.timeout", "30s")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("grading.parallel_calls", 3)
	v.SetDefault("grading.target_batch_size", 10)
	v.SetDefault("grading.requests_per_minute", 300)
	v.SetDefault("grading.tokens_per_minute", 100000)
	v.SetDefault("grading.avg_tokens_per_request", 4000)
	v.SetDefault("grading.batches_per_minute", 4)
	v.SetDefault("grading.batch_delay", "0s")
	v.SetDefault("preprocess.max_file_chars", 100000)
	v.SetDefault("preprocess.cache_ttl", "1h")

	jobTTL, err := parseDuration(v, "job.ttl")
	if err != nil {
		return Config{}, err
	}
	cleanupInterval, err := parseDuration(v, "job.cleanup_interval")
	if err != nil {
		return Config{}, err
	}
	llmTimeout, err := parseDuration(v, "llm.timeout")
	if err != nil {
		return Config{}, err
	}
	batchDelay, err := parseDuration(v, "grading.batch_delay")
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := parseDuration(v, "preprocess.cache_ttl")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		RedisURL:           v.GetString("redis.url"),
		JobStoreBackend:    strings.ToLower(v.GetString("job.store")),
		JobTTL:             jobTTL,
		JobCleanupInterval: cleanupInterval,
		AIProvider:         strings.ToLower(v.GetString("ai.provider")),
		LLMModel:           v.GetString("llm.model"),
		OpenAIAPIKey:       v.GetString("openai_api_key"),
		AnthropicAPIKey:    v.GetString("anthropic_api_key"),
		LLMTemperature:     float32(v.GetFloat64("llm.temperature")),
		LLMMaxTokens:       v.GetInt("llm.max_tokens"),
		LLMTimeout:         llmTimeout,
		LLMMaxRetries:      v.GetInt("llm.max_retries"),
		Grading: GradingConfig{
			ParallelCalls:       v.GetInt("grading.parallel_calls"),
			TargetBatchSize:     v.GetInt("grading.target_batch_size"),
			RequestsPerMinute:   v.GetInt("grading.requests_per_minute"),
			TokensPerMinute:     v.GetInt("grading.tokens_per_minute"),
			AvgTokensPerRequest: v.GetInt("grading.avg_tokens_per_request"),
			BatchesPerMinute:    v.GetInt("grading.batches_per_minute"),
			BatchDelay:          batchDelay,
		},
		Preprocess: PreprocessConfig{
			MaxFileChars: v.GetInt("preprocess.max_file_chars"),
			CacheTTL:     cacheTTL,
		},
	}

	if cfg.JobStoreBackend != "memory" && cfg.JobStoreBackend != "redis" {
		return Config{}, fmt.Errorf("unknown job store backend %q", cfg.JobStoreBackend)
	}

	if cfg.JobStoreBackend == "redis" && cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("redis url must be set when job store is redis")
	}

	if cfg.Grading.ParallelCalls <= 0 {
		cfg.Grading.ParallelCalls = 3
	}

	if cfg.LLMMaxRetries <= 0 {
		cfg.LLMMaxRetries = 3
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	if raw == "" {
		return 0, fmt.Errorf("missing duration for %s", key)
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}

	return parsed, nil
}
