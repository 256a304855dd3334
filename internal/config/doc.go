// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional YAML file. It provides type-safe
// access to the settings needed by the HTTP server, the AI backends, the
// generation worker pool and the audio cache, while keeping configuration
// details separate from business logic.
package config
