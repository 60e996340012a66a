package config

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"

	"github.com/fuchsia74/bedrock-relay/common/env"
)

var (
	// Host is the listen address of the northbound HTTP server.
	Host = env.String("HOST", "127.0.0.1")
	// Port is the listen port of the northbound HTTP server. The --port flag
	// takes precedence, see common.Init.
	Port = env.Int("PORT", 8080)

	// AWSRegion selects both Bedrock hosts and the SigV4 signing region.
	AWSRegion = env.String("AWS_REGION", "us-east-1")

	// APIKey is the static bearer token required on every /v1 route. The
	// server refuses to start without it.
	APIKey = env.String("API_KEY", "")

	// ModelCacheTTL bounds the freshness of the model-resolution cache.
	ModelCacheTTL = time.Duration(env.Int("MODEL_CACHE_TTL", 300)) * time.Second

	// RequestTimeout bounds a single outbound completions call, including the
	// whole streamed body.
	RequestTimeout = time.Duration(env.Int("REQUEST_TIMEOUT", 600)) * time.Second
	// ModelsTimeout bounds a single control-plane listing call.
	ModelsTimeout = time.Duration(env.Int("MODELS_TIMEOUT", 30)) * time.Second

	// RetryTimes is the number of extra outbound attempts on 429/5xx.
	RetryTimes = env.Int("RETRY_TIMES", 2)

	// LogLevel maps onto the glog console logger levels.
	LogLevel = strings.ToLower(env.String("LOG_LEVEL", "info"))
	// DebugEnabled toggles verbose structured logging when DEBUG=true.
	DebugEnabled = env.Bool("DEBUG", false)

	// ShutdownTimeoutSec specifies the graceful shutdown timeout (seconds)
	// for the HTTP server and in-flight streams.
	ShutdownTimeoutSec = env.Int("SHUTDOWN_TIMEOUT", 360)

	// DefaultMaxToken is used when the client supplies neither max_tokens nor
	// max_completion_tokens.
	DefaultMaxToken = env.Int("DEFAULT_MAX_TOKEN", 8192)

	// Static AWS credentials. When unset the default credential chain is used.
	AWSAccessKeyID     = env.String("AWS_ACCESS_KEY_ID", "")
	AWSSecretAccessKey = env.String("AWS_SECRET_ACCESS_KEY", "")
	AWSSessionToken    = env.String("AWS_SESSION_TOKEN", "")
)

// File mirrors the recognized keys of the optional JSON config file.
// Environment variables take precedence over file values; CLI flags override
// both (applied in common.Init).
type File struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	AWSRegion      string `json:"aws_region"`
	APIKey         string `json:"api_key"`
	ModelCacheTTL  int    `json:"model_cache_ttl"`
	RequestTimeout int    `json:"request_timeout"`
	ModelsTimeout  int    `json:"models_timeout"`
	RetryTimes     int    `json:"retry_times"`
	LogLevel       string `json:"log_level"`

	AWSAccessKeyID     string `json:"aws_access_key_id"`
	AWSSecretAccessKey string `json:"aws_secret_access_key"`
	AWSSessionToken    string `json:"aws_session_token"`
}

// ApplyFile loads the JSON config file at path and fills in every value that
// was not already provided through the environment.
func ApplyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config file %q", path)
	}
	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return errors.Wrapf(err, "parse config file %q", path)
	}

	if f.Host != "" && !env.IsSet("HOST") {
		Host = f.Host
	}
	if f.Port != 0 && !env.IsSet("PORT") {
		Port = f.Port
	}
	if f.AWSRegion != "" && !env.IsSet("AWS_REGION") {
		AWSRegion = f.AWSRegion
	}
	if f.APIKey != "" && !env.IsSet("API_KEY") {
		APIKey = f.APIKey
	}
	if f.ModelCacheTTL != 0 && !env.IsSet("MODEL_CACHE_TTL") {
		ModelCacheTTL = time.Duration(f.ModelCacheTTL) * time.Second
	}
	if f.RequestTimeout != 0 && !env.IsSet("REQUEST_TIMEOUT") {
		RequestTimeout = time.Duration(f.RequestTimeout) * time.Second
	}
	if f.ModelsTimeout != 0 && !env.IsSet("MODELS_TIMEOUT") {
		ModelsTimeout = time.Duration(f.ModelsTimeout) * time.Second
	}
	if f.RetryTimes != 0 && !env.IsSet("RETRY_TIMES") {
		RetryTimes = f.RetryTimes
	}
	if f.LogLevel != "" && !env.IsSet("LOG_LEVEL") {
		LogLevel = strings.ToLower(f.LogLevel)
	}
	if f.AWSAccessKeyID != "" && !env.IsSet("AWS_ACCESS_KEY_ID") {
		AWSAccessKeyID = f.AWSAccessKeyID
	}
	if f.AWSSecretAccessKey != "" && !env.IsSet("AWS_SECRET_ACCESS_KEY") {
		AWSSecretAccessKey = f.AWSSecretAccessKey
	}
	if f.AWSSessionToken != "" && !env.IsSet("AWS_SESSION_TOKEN") {
		AWSSessionToken = f.AWSSessionToken
	}
	return nil
}

// RuntimeHost returns the Bedrock runtime host for the configured region.
func RuntimeHost() string {
	return "bedrock-runtime." + AWSRegion + ".amazonaws.com"
}

// ControlPlaneHost returns the Bedrock control-plane host for the configured
// region.
func ControlPlaneHost() string {
	return "bedrock." + AWSRegion + ".amazonaws.com"
}
