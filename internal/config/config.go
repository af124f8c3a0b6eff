package config

import "time"

// Config holds client and reference-server configuration values.
type Config struct {
	LogLevel string        `mapstructure:"log_level" yaml:"log_level"`
	Client   ClientConfig  `mapstructure:"client" yaml:"client"`
	Storage  StorageConfig `mapstructure:"storage" yaml:"storage"`
	Server   ServerConfig  `mapstructure:"server" yaml:"server"`
}

// ClientConfig controls the chat client.
type ClientConfig struct {
	APIURL         string        `mapstructure:"api_url" yaml:"api_url"`
	Room           string        `mapstructure:"room" yaml:"room"`
	PollInterval   time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	WarmupDelay    time.Duration `mapstructure:"warmup_delay" yaml:"warmup_delay"`
	WarmupTick     time.Duration `mapstructure:"warmup_tick" yaml:"warmup_tick"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	Push           bool          `mapstructure:"push" yaml:"push"`
	MetricsAddr    string        `mapstructure:"metrics_addr" yaml:"metrics_addr"`
}

// StorageConfig selects the durable key-value backend for identity.
type StorageConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	Path   string `mapstructure:"path" yaml:"path"`
}

// ServerConfig controls the reference message backend.
type ServerConfig struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	ColdStart         time.Duration `mapstructure:"cold_start" yaml:"cold_start"`
	IdleAfter         time.Duration `mapstructure:"idle_after" yaml:"idle_after"`
	RateLimit         int           `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverPebble = "pebble"
	DriverMemory = "memory"
)

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		LogLevel: "info",
		Client: ClientConfig{
			APIURL:         "http://localhost:8080/messages",
			Room:           "",
			PollInterval:   3 * time.Second,
			WarmupDelay:    2 * time.Second,
			WarmupTick:     time.Second,
			RequestTimeout: 60 * time.Second,
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
			Path:   "chatsy.db",
		},
		Server: ServerConfig{
			Addr:              ":8080",
			DatabasePath:      "chatsy-server.db",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   5 * time.Second,
			IdleAfter:         15 * time.Minute,
			RateLimit:         60,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}

	if other.Client.APIURL != "" {
		c.Client.APIURL = other.Client.APIURL
	}
	if other.Client.Room != "" {
		c.Client.Room = other.Client.Room
	}
	if other.Client.PollInterval != 0 {
		c.Client.PollInterval = other.Client.PollInterval
	}
	if other.Client.WarmupDelay != 0 {
		c.Client.WarmupDelay = other.Client.WarmupDelay
	}
	if other.Client.WarmupTick != 0 {
		c.Client.WarmupTick = other.Client.WarmupTick
	}
	if other.Client.RequestTimeout != 0 {
		c.Client.RequestTimeout = other.Client.RequestTimeout
	}
	if other.Client.Push {
		c.Client.Push = true
	}
	if other.Client.MetricsAddr != "" {
		c.Client.MetricsAddr = other.Client.MetricsAddr
	}

	if other.Storage.Driver != "" {
		c.Storage.Driver = other.Storage.Driver
	}
	if other.Storage.Path != "" {
		c.Storage.Path = other.Storage.Path
	}

	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	if other.Server.DatabasePath != "" {
		c.Server.DatabasePath = other.Server.DatabasePath
	}
	if other.Server.ReadHeaderTimeout != 0 {
		c.Server.ReadHeaderTimeout = other.Server.ReadHeaderTimeout
	}
	if other.Server.ShutdownTimeout != 0 {
		c.Server.ShutdownTimeout = other.Server.ShutdownTimeout
	}
	if other.Server.ColdStart != 0 {
		c.Server.ColdStart = other.Server.ColdStart
	}
	if other.Server.IdleAfter != 0 {
		c.Server.IdleAfter = other.Server.IdleAfter
	}
	if other.Server.RateLimit != 0 {
		c.Server.RateLimit = other.Server.RateLimit
	}
}
