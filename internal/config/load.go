package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. BIBLEAI_SERVER_PORT.
const EnvPrefix = "BIBLEAI"

// Load configuration from environment variables and optionally a config.yaml
// in the working directory. Environment variables take precedence over values
// from the file. Returns a populated Config or an error if loading or
// validation fails.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile behaves like Load but reads the given file instead of searching
// for config.yaml. An empty path falls back to the search.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that have
// no file value.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Vilisasu Bible AI")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.description",
		"AI-powered Bible chat service for biblical questions, prayers, and spiritual guidance")
	v.SetDefault("app.environment", "production")

	v.SetDefault("server.port", 8065)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.api_prefix", "/api/v1")
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.openai_api_key", "")
	v.SetDefault("llm.openai_base_url", "")
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.model", "gpt-4o-2024-08-06")
	v.SetDefault("llm.request_timeout", "60s")

	v.SetDefault("generation.worker_count", 12)
	v.SetDefault("generation.queue_size", 64)
	v.SetDefault("generation.batch_timeout", "45s")
	v.SetDefault("generation.merge_order", "completion")

	v.SetDefault("speech.model", "whisper-1")
	v.SetDefault("speech.max_upload_mb", 25)

	v.SetDefault("audio.elevenlabs_api_key", "")
	v.SetDefault("audio.voice_id", "pNInz6obpgDQGcFmaJgB")
	v.SetDefault("audio.model_id", "eleven_monolingual_v1")
	v.SetDefault("audio.store", "memory")
	v.SetDefault("audio.ttl", "1h")
	v.SetDefault("audio.nats_url", "")
	v.SetDefault("audio.nats_bucket", "bibleai-audio")
}
