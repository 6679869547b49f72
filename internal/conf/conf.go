package conf

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultPath is the configuration file used when none is given on the command line
const DefaultPath = "config.toml"

// Config represents application configuration
type Config struct {
	// Query server connection
	RawQuery RawQueryConfig `toml:"raw_query" yaml:"raw_query"`

	// Virtual server selection and filtering
	Server ServerConfig `toml:"server" yaml:"server"`

	// Pipeline tuning
	Misc MiscConfig `toml:"misc" yaml:"misc"`

	// Telegram sink
	Telegram TelegramConfig `toml:"telegram" yaml:"telegram"`

	// Feishu sink (optional)
	Feishu FeishuConfig `toml:"feishu" yaml:"feishu"`

	// Event history (optional)
	History HistoryConfig `toml:"history" yaml:"history"`
}

// RawQueryConfig contains the ServerQuery login
type RawQueryConfig struct {
	Server   string `toml:"server" yaml:"server"`
	Port     int    `toml:"port" yaml:"port"`
	User     string `toml:"user" yaml:"user"`
	Password string `toml:"password" yaml:"password"`
}

// ServerConfig contains the virtual server id and the ignore list
type ServerConfig struct {
	ServerID   int64    `toml:"server_id" yaml:"server_id"`
	IgnoreUser []string `toml:"ignore_user" yaml:"ignore_user"` // nicknames or unique ids
}

// MiscConfig contains timing and queue settings
type MiscConfig struct {
	Interval    int    `toml:"interval" yaml:"interval"`         // milliseconds between polls
	QueueSize   int    `toml:"queue_size" yaml:"queue_size"`     // notification queue capacity
	Keepalive   int    `toml:"keepalive" yaml:"keepalive"`       // seconds
	ReadTimeout int    `toml:"read_timeout" yaml:"read_timeout"` // seconds
	LogLevel    string `toml:"log_level" yaml:"log_level"`
}

// TelegramConfig contains the bot credentials and destination chat
type TelegramConfig struct {
	APIKey    string `toml:"api_key" yaml:"api_key"`
	APIServer string `toml:"api_server" yaml:"api_server"`
	Target    int64  `toml:"target" yaml:"target"`
}

// FeishuConfig contains Feishu configuration
type FeishuConfig struct {
	AppID     string `toml:"app_id" yaml:"app_id"`
	AppSecret string `toml:"app_secret" yaml:"app_secret"`
	ChatID    string `toml:"chat_id" yaml:"chat_id"`
}

// HistoryConfig contains the event log location
type HistoryConfig struct {
	DBPath string `toml:"db_path" yaml:"db_path"`
}

// Default returns a configuration holding only default values
func Default() *Config {
	return &Config{
		RawQuery: RawQueryConfig{
			Server: "127.0.0.1",
			Port:   10011,
		},
		Server: ServerConfig{
			ServerID: 1,
		},
		Misc: MiscConfig{
			Interval:    20,
			QueueSize:   4096,
			Keepalive:   30,
			ReadTimeout: 2,
			LogLevel:    "info",
		},
		Telegram: TelegramConfig{
			APIServer: "https://api.telegram.org/",
		},
	}
}

// Enabled reports whether the Feishu sink has all its settings
func (c *FeishuConfig) Enabled() bool {
	return c.AppID != "" && c.AppSecret != "" && c.ChatID != ""
}

// IntervalDuration returns the inter-poll sleep
func (c *MiscConfig) IntervalDuration() time.Duration {
	return time.Duration(c.Interval) * time.Millisecond
}

// KeepaliveDuration returns the liveness probe period
func (c *MiscConfig) KeepaliveDuration() time.Duration {
	return time.Duration(c.Keepalive) * time.Second
}

// ReadTimeoutDuration returns the per-read polling window
func (c *MiscConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Second
}

// ApplyEnv overrides secrets and operational settings from environment variables
func (c *Config) ApplyEnv() error {
	if val := os.Getenv("TSNB_QUERY_USER"); val != "" {
		c.RawQuery.User = val
	}
	if val := os.Getenv("TSNB_QUERY_PASSWORD"); val != "" {
		c.RawQuery.Password = val
	}
	if val := os.Getenv("TSNB_TELEGRAM_API_KEY"); val != "" {
		c.Telegram.APIKey = val
	}
	if val := os.Getenv("TSNB_TELEGRAM_TARGET"); val != "" {
		target, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return &ConfigError{Field: "TSNB_TELEGRAM_TARGET", Message: "must be a chat id"}
		}
		c.Telegram.Target = target
	}
	if val := os.Getenv("TSNB_FEISHU_APP_ID"); val != "" {
		c.Feishu.AppID = val
	}
	if val := os.Getenv("TSNB_FEISHU_APP_SECRET"); val != "" {
		c.Feishu.AppSecret = val
	}
	if val := os.Getenv("TSNB_HISTORY_DB"); val != "" {
		c.History.DBPath = val
	}
	if val := os.Getenv("TSNB_LOG_LEVEL"); val != "" {
		c.Misc.LogLevel = val
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.RawQuery.User == "" {
		return &ConfigError{Field: "raw_query.user", Message: "required"}
	}
	if c.RawQuery.Port < 1 || c.RawQuery.Port > 65535 {
		return &ConfigError{Field: "raw_query.port", Message: "must be between 1 and 65535"}
	}
	if c.Misc.Interval <= 0 {
		return &ConfigError{Field: "misc.interval", Message: "must be positive"}
	}
	if c.Misc.QueueSize <= 0 {
		return &ConfigError{Field: "misc.queue_size", Message: "must be positive"}
	}
	if c.Misc.Keepalive <= 0 {
		return &ConfigError{Field: "misc.keepalive", Message: "must be positive"}
	}
	if c.Misc.ReadTimeout <= 0 {
		return &ConfigError{Field: "misc.read_timeout", Message: "must be positive"}
	}
	switch strings.ToLower(c.Misc.LogLevel) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return &ConfigError{Field: "misc.log_level", Message: "unknown level " + strconv.Quote(c.Misc.LogLevel)}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
