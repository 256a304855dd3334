package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	App        AppConfig        `mapstructure:"app"        validate:"required"`
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm"        validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
	Speech     SpeechConfig     `mapstructure:"speech"     validate:"required"`
	Audio      AudioConfig      `mapstructure:"audio"      validate:"required"`
}

// AppConfig describes the service in the info and health endpoints.
type AppConfig struct {
	Name        string `mapstructure:"name"        validate:"required"`
	Version     string `mapstructure:"version"     validate:"required"`
	Description string `mapstructure:"description"`
	Environment string `mapstructure:"environment" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port               int           `mapstructure:"port"                 validate:"required,gt=0,lt=65536"`
	LogLevel           string        `mapstructure:"log_level"            validate:"required,oneof=debug info warn error"`
	APIPrefix          string        `mapstructure:"api_prefix"           validate:"required,startswith=/"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins" validate:"required,min=1"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"     validate:"gt=0"`
}

// LLMConfig contains the completion backend settings. Provider selects which
// API key is required.
type LLMConfig struct {
	Provider       string        `mapstructure:"provider"        validate:"required,oneof=openai gemini"`
	OpenAIAPIKey   string        `mapstructure:"openai_api_key"  validate:"required_if=Provider openai"`
	OpenAIBaseURL  string        `mapstructure:"openai_base_url" validate:"omitempty,url"`
	GeminiAPIKey   string        `mapstructure:"gemini_api_key"  validate:"required_if=Provider gemini"`
	Model          string        `mapstructure:"model"           validate:"required"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
}

// GenerationConfig sizes the worker pool behind the verse and prayer
// aggregator. WorkerCount must cover every batch of one aggregate call.
type GenerationConfig struct {
	WorkerCount  int           `mapstructure:"worker_count"  validate:"min=6"`
	QueueSize    int           `mapstructure:"queue_size"    validate:"min=6"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout" validate:"gt=0"`
	MergeOrder   string        `mapstructure:"merge_order"   validate:"required,oneof=completion submission"`
}

// SpeechConfig contains the transcription settings. Transcription always goes
// through the OpenAI API, so it needs LLM.OpenAIAPIKey.
type SpeechConfig struct {
	Model       string `mapstructure:"model"         validate:"required"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" validate:"gt=0,lte=25"`
}

// AudioConfig contains the text-to-speech and audio cache settings.
// An empty ElevenLabsAPIKey disables the audio endpoints.
type AudioConfig struct {
	ElevenLabsAPIKey string        `mapstructure:"elevenlabs_api_key"`
	VoiceID          string        `mapstructure:"voice_id"           validate:"required"`
	ModelID          string        `mapstructure:"model_id"           validate:"required"`
	Store            string        `mapstructure:"store"              validate:"required,oneof=memory nats"`
	TTL              time.Duration `mapstructure:"ttl"                validate:"gt=0"`
	NATSURL          string        `mapstructure:"nats_url"           validate:"required_if=Store nats"`
	NATSBucket       string        `mapstructure:"nats_bucket"        validate:"required_if=Store nats"`
}
