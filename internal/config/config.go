package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	// MaxMessageBytes caps a single frame; file chunks are the largest envelopes.
	MaxMessageBytes int64 `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	SendQueueSize   int   `mapstructure:"send_queue_size" yaml:"send_queue_size"`

	// RateLimit is inbound frames per second per connection. Zero disables limiting.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst" yaml:"rate_burst"`

	// AllowedOrigins are WebSocket origin patterns. Empty accepts any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	// AccessSecret enables operator access tokens when non-empty.
	AccessSecret   string `mapstructure:"access_secret" yaml:"access_secret"`
	AccessIssuer   string `mapstructure:"access_issuer" yaml:"access_issuer"`
	AccessAudience string `mapstructure:"access_audience" yaml:"access_audience"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		MaxMessageBytes:   16 << 20,
		SendQueueSize:     64,
		RateLimit:         0,
		RateBurst:         20,
		AccessIssuer:      "wirechat-relay",
		AccessAudience:    "wirechat-relay",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.SendQueueSize != 0 {
		c.SendQueueSize = other.SendQueueSize
	}
	if other.RateLimit != 0 {
		c.RateLimit = other.RateLimit
	}
	if other.RateBurst != 0 {
		c.RateBurst = other.RateBurst
	}
	if len(other.AllowedOrigins) > 0 {
		c.AllowedOrigins = other.AllowedOrigins
	}
	if other.AccessSecret != "" {
		c.AccessSecret = other.AccessSecret
	}
	if other.AccessIssuer != "" {
		c.AccessIssuer = other.AccessIssuer
	}
	if other.AccessAudience != "" {
		c.AccessAudience = other.AccessAudience
	}
}

// AccessEnabled reports whether /ws and /api require an operator token.
func (c *Config) AccessEnabled() bool {
	return c.AccessSecret != ""
}
