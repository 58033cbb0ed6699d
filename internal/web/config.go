package web

import "time"

// Config represents the web server configuration
type Config struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Limits LimitConfig  `mapstructure:"limits" yaml:"limits"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port            int           `mapstructure:"port" yaml:"port"`
	Host            string        `mapstructure:"host" yaml:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LimitConfig caps request sizes.
type LimitConfig struct {
	MaxTextBytes  int64 `mapstructure:"max_text_bytes" yaml:"max_text_bytes"`
	MaxImageBytes int64 `mapstructure:"max_image_bytes" yaml:"max_image_bytes"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Limits: LimitConfig{
			MaxTextBytes:  1 << 20,
			MaxImageBytes: 16 << 20,
		},
	}
}
