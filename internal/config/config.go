package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/adnankhan0111/StrangerMeet/internal/logging"
	"github.com/adnankhan0111/StrangerMeet/internal/protocol"
)

// Default configuration values
const (
	DefaultPort            = "3000"
	DefaultLogLevel        = "info"
	DefaultReadBufferSize  = 64 * 1024
	DefaultWriteBufferSize = 64 * 1024
	DefaultMaxMessageSize  = 64 * 1024
	DefaultSendBuffer      = 256
	DefaultServerURL       = "ws://localhost:3000/ws"

	// EnvPrefix namespaces environment variables, e.g. STRANGERMEET_LOG_LEVEL.
	EnvPrefix = "STRANGERMEET"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds application configuration
type Config struct {
	// Addr is the full listen address. When empty the server listens on Port.
	Addr string `mapstructure:"addr"`
	Port string `mapstructure:"port"`

	LogLevel string `mapstructure:"log_level"`

	// AllowedOrigins restricts websocket upgrades by Origin header.
	// Empty allows every origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	ReadBufferSize  int   `mapstructure:"read_buffer_size"`
	WriteBufferSize int   `mapstructure:"write_buffer_size"`
	MaxMessageSize  int64 `mapstructure:"max_message_size"`
	SendBuffer      int   `mapstructure:"send_buffer"`

	// ServerURL and Codec are used by the chat client.
	ServerURL string `mapstructure:"server_url"`
	Codec     string `mapstructure:"codec"`
}

// Options controls where Load looks for settings.
type Options struct {
	// Flags are bound by name with dashes mapped to underscores, so
	// --log-level sets log_level. Only flags the user changed take
	// precedence over the environment.
	Flags *pflag.FlagSet

	// File is an optional YAML config file.
	File string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables (STRANGERMEET_*, and PORT)
// 3. Config file
// 4. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	v := viper.New()

	v.SetDefault("addr", "")
	v.SetDefault("port", DefaultPort)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("allowed_origins", []string{})
	v.SetDefault("read_buffer_size", DefaultReadBufferSize)
	v.SetDefault("write_buffer_size", DefaultWriteBufferSize)
	v.SetDefault("max_message_size", DefaultMaxMessageSize)
	v.SetDefault("send_buffer", DefaultSendBuffer)
	v.SetDefault("server_url", DefaultServerURL)
	v.SetDefault("codec", protocol.CodecJSON)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// Hosting platforms hand out the port as a bare PORT variable.
	if err := v.BindEnv("port", EnvPrefix+"_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("bind PORT: %w", err)
	}

	if opts.Flags != nil {
		var bindErr error
		opts.Flags.VisitAll(func(f *pflag.Flag) {
			if f.Name == "config" || bindErr != nil {
				return
			}
			bindErr = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
		})
		if bindErr != nil {
			return nil, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.File, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := protocol.LookupCodec(c.Codec); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Addr == "" && c.Port == "" {
		return fmt.Errorf("%w: no listen address or port", ErrInvalidConfig)
	}
	if c.ReadBufferSize <= 0 || c.WriteBufferSize <= 0 || c.MaxMessageSize <= 0 || c.SendBuffer <= 0 {
		return fmt.Errorf("%w: buffer sizes must be positive", ErrInvalidConfig)
	}
	return nil
}

// ListenAddr returns the address the HTTP server binds to.
func (c *Config) ListenAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	return ":" + c.Port
}

// WebSocketURL returns ServerURL as a websocket URL. http and https schemes
// map to ws and wss, a bare host gets ws, and an empty path becomes /ws.
func (c *Config) WebSocketURL() (string, error) {
	raw := c.ServerURL
	if !strings.Contains(raw, "://") {
		raw = "ws://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: server url: %v", ErrInvalidConfig, err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("%w: unsupported server url scheme %q", ErrInvalidConfig, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: server url has no host", ErrInvalidConfig)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	return u.String(), nil
}

// OriginAllowed reports whether a websocket upgrade from origin is accepted.
func (c *Config) OriginAllowed(origin string) bool {
	if len(c.AllowedOrigins) == 0 {
		return true
	}
	origin = strings.TrimSuffix(origin, "/")
	for _, allowed := range c.AllowedOrigins {
		if strings.TrimSuffix(allowed, "/") == origin {
			return true
		}
	}
	return false
}
