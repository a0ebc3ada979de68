package main

import (
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"google.golang.org/grpc/credentials"

	"github.com/hugr-lab/restapi-airport/rest"
)

// envPrefix prefixes environment overrides, e.g. RESTAPI_LOG_LEVEL.
const envPrefix = "RESTAPI"

type config struct {
	Address        string   `mapstructure:"address"`
	PublicAddress  string   `mapstructure:"public_address"`
	Descriptors    []string `mapstructure:"descriptors"`
	MetricsAddress string   `mapstructure:"metrics_address"`
	MaxMessageSize int      `mapstructure:"max_message_size"`
	BatchSize      int      `mapstructure:"batch_size"`

	Auth struct {
		// Tokens maps accepted bearer tokens to identities.
		Tokens map[string]string `mapstructure:"tokens"`
	} `mapstructure:"auth"`

	TLS struct {
		Cert string `mapstructure:"cert"`
		Key  string `mapstructure:"key"`
	} `mapstructure:"tls"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Breaker struct {
		ConsecutiveFailures uint32        `mapstructure:"consecutive_failures"`
		OpenTimeout         time.Duration `mapstructure:"open_timeout"`
		HalfOpenRequests    uint32        `mapstructure:"half_open_requests"`
	} `mapstructure:"breaker"`
}

func registerFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (yaml, json or toml)")
	fs.String("address", ":50051", "gRPC listen address")
	fs.String("public-address", "", "address advertised in flight endpoints")
	fs.StringSlice("descriptors", []string{"descriptors"}, "descriptor files or directories")
	fs.String("metrics-address", "", "prometheus metrics listen address, empty to disable")
	fs.Int("max-message-size", 16<<20, "maximum gRPC message size in bytes")
	fs.Int("batch-size", 0, "rows per Arrow record, 0 for the default")
	fs.String("auth-token", "", "single bearer token accepted by the server")
	fs.String("tls-cert", "", "TLS certificate file")
	fs.String("tls-key", "", "TLS private key file")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
	fs.String("log-format", "text", "log format: text or json")
}

// flagKeys binds flags to nested config keys.
var flagKeys = map[string]string{
	"address":          "address",
	"public-address":   "public_address",
	"descriptors":      "descriptors",
	"metrics-address":  "metrics_address",
	"max-message-size": "max_message_size",
	"batch-size":       "batch_size",
	"tls-cert":         "tls.cert",
	"tls-key":          "tls.key",
	"log-level":        "log.level",
	"log-format":       "log.format",
}

func loadConfig(fs *pflag.FlagSet) (*config, error) {
	v := viper.New()
	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if token, _ := fs.GetString("auth-token"); token != "" {
		if cfg.Auth.Tokens == nil {
			cfg.Auth.Tokens = make(map[string]string)
		}
		cfg.Auth.Tokens[token] = "default"
	}
	return &cfg, nil
}

func (c *config) logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(c.Log.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", c.Log.Format)
	}
}

func (c *config) breaker() rest.BreakerConfig {
	return rest.BreakerConfig{
		ConsecutiveFailures: c.Breaker.ConsecutiveFailures,
		OpenTimeout:         c.Breaker.OpenTimeout,
		HalfOpenRequests:    c.Breaker.HalfOpenRequests,
	}
}

// transportCredentials returns nil when TLS is not configured.
func (c *config) transportCredentials() (credentials.TransportCredentials, error) {
	if c.TLS.Cert == "" && c.TLS.Key == "" {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(c.TLS.Cert, c.TLS.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS key pair: %w", err)
	}
	return credentials.NewTLS(&tls.Config{
		Certificates: []tls.Certificate{cert},
		ClientAuth:   tls.NoClientCert,
		MinVersion:   tls.VersionTLS12,
	}), nil
}
