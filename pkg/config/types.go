package config

import "maps"

// DefaultServiceName is used when no service name is configured.
const DefaultServiceName = "directhost"

// DefaultContentType is the wire format used for typed request bodies.
const DefaultContentType = "application/json"

// HostConfig holds the settings a host exposes to the services it runs.
type HostConfig struct {
	// ServiceName identifies the host in logs and trace spans.
	ServiceName string `json:"serviceName" yaml:"serviceName" env:"DIRECTHOST_SERVICE_NAME"`

	// DebugMode includes stack traces in error response statuses.
	DebugMode bool `json:"debugMode" yaml:"debugMode" env:"DIRECTHOST_DEBUG"`

	// DefaultContentType is used when a request has no Content-Type header.
	DefaultContentType string `json:"defaultContentType,omitempty" yaml:"defaultContentType,omitempty" env:"DIRECTHOST_DEFAULT_CONTENT_TYPE"`

	// GlobalResponseHeaders are written to every response before the service runs.
	GlobalResponseHeaders map[string]string `json:"globalResponseHeaders,omitempty" yaml:"globalResponseHeaders,omitempty" env:"DIRECTHOST_RESPONSE_HEADERS"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty" env:"DIRECTHOST_LOG_LEVEL"`

	// LogFormat is text or json.
	LogFormat string `json:"logFormat,omitempty" yaml:"logFormat,omitempty" env:"DIRECTHOST_LOG_FORMAT"`
}

// Default returns a HostConfig with defaults applied.
func Default() *HostConfig {
	return &HostConfig{
		ServiceName:           DefaultServiceName,
		DefaultContentType:    DefaultContentType,
		GlobalResponseHeaders: map[string]string{},
		LogLevel:              "info",
		LogFormat:             "text",
	}
}

// Clone returns a deep copy so callers can adjust settings per fixture.
func (c *HostConfig) Clone() *HostConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.GlobalResponseHeaders = maps.Clone(c.GlobalResponseHeaders)
	return &out
}

// applyDefaults fills zero-valued fields that must never be empty.
func (c *HostConfig) applyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
	if c.DefaultContentType == "" {
		c.DefaultContentType = DefaultContentType
	}
	if c.GlobalResponseHeaders == nil {
		c.GlobalResponseHeaders = map[string]string{}
	}
}
