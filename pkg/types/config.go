package types

import "time"

// HTTPConfig holds shared HTTP settings used when fetching remote assets.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero leaves the transport default.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "docbundle/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries is the number of retries on HTTP 429 responses.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryDelay is the first backoff after an HTTP 429 without a
	// Retry-After header. It doubles on each retry.
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`
}

// ConversionConfig holds settings for the conversion pipeline.
type ConversionConfig struct {
	HTTPConfig `yaml:",inline"`

	// MarkitdownImage is the container image of the document converter.
	MarkitdownImage string `json:"markitdown_image" yaml:"markitdown_image"`

	// RasterizerImage is the container image that renders PDF pages to PNG.
	// Empty disables page rendering.
	RasterizerImage string `json:"rasterizer_image" yaml:"rasterizer_image"`

	// WorkDir is where temporary archives are created. Empty uses the OS
	// temp directory.
	WorkDir string `json:"work_dir" yaml:"work_dir"`

	// CaptionAPIKey enables the captioning-capable converter for image
	// inputs when set.
	CaptionAPIKey string `json:"-" yaml:"-"`
}

// ServerConfig holds settings for the HTTP front door.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `json:"addr" yaml:"addr"`

	// MaxUploadBytes caps the size of an uploaded document.
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes"`
}
