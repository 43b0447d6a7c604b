// Package config loads server settings from defaults, an optional YAML file,
// BATCHXLATE_* environment variables and bound command-line flags.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dasmlab/batchxlate/pkg/transport"
)

// EnvPrefix prefixes every environment variable, e.g. BATCHXLATE_GRPC_PORT.
const EnvPrefix = "BATCHXLATE"

// Keys understood by Load.
const (
	KeyGRPCPort           = "grpc.port"
	KeyHTTPPort           = "http.port"
	KeyLogLevel           = "log.level"
	KeyTranslateEndpoint  = "translate.endpoint"
	KeyTranslateTimeout   = "translate.timeout"
	KeyTranslateUserAgent = "translate.user_agent"
	KeyTranslateReferer   = "translate.referer"
)

// Config is the effective server configuration.
type Config struct {
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Log       LogConfig       `mapstructure:"log"`
	Translate TranslateConfig `mapstructure:"translate"`
}

type GRPCConfig struct {
	Port int `mapstructure:"port"`
}

// HTTPConfig configures the JSON front. Port 0 disables it.
type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// TranslateConfig configures the upstream batchexecute endpoint.
type TranslateConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
	Referer   string        `mapstructure:"referer"`
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyGRPCPort, 50051)
	v.SetDefault(KeyHTTPPort, 8080)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyTranslateEndpoint, transport.DefaultEndpoint)
	v.SetDefault(KeyTranslateTimeout, transport.DefaultTimeout)
	v.SetDefault(KeyTranslateUserAgent, transport.DefaultUserAgent)
	v.SetDefault(KeyTranslateReferer, transport.DefaultReferer)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds command-line flags to their configuration keys. Flags
// missing from fs are skipped.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	bindings := map[string]string{
		KeyGRPCPort:          "port",
		KeyHTTPPort:          "http-port",
		KeyLogLevel:          "log-level",
		KeyTranslateEndpoint: "endpoint",
		KeyTranslateTimeout:  "timeout",
	}
	for key, name := range bindings {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads cfgFile (if not empty) into v and returns the validated result.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
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

// Validate checks ranges that viper cannot express.
func (c *Config) Validate() error {
	if c.GRPC.Port <= 0 || c.GRPC.Port > 65535 {
		return fmt.Errorf("%s: port %d out of range", KeyGRPCPort, c.GRPC.Port)
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("%s: port %d out of range", KeyHTTPPort, c.HTTP.Port)
	}
	if c.Translate.Timeout <= 0 {
		return fmt.Errorf("%s: must be positive, got %s", KeyTranslateTimeout, c.Translate.Timeout)
	}
	return nil
}

// fileView mirrors Config in the shape of a config file. Durations are
// written as strings so the output can be read back by Load.
type fileView struct {
	GRPC struct {
		Port int `yaml:"port"`
	} `yaml:"grpc"`
	HTTP struct {
		Port int `yaml:"port"`
	} `yaml:"http"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Translate struct {
		Endpoint  string `yaml:"endpoint"`
		Timeout   string `yaml:"timeout"`
		UserAgent string `yaml:"user_agent"`
		Referer   string `yaml:"referer"`
	} `yaml:"translate"`
}

// Dump writes c as YAML.
func Dump(w io.Writer, c *Config) error {
	var view fileView
	view.GRPC.Port = c.GRPC.Port
	view.HTTP.Port = c.HTTP.Port
	view.Log.Level = c.Log.Level
	view.Translate.Endpoint = c.Translate.Endpoint
	view.Translate.Timeout = c.Translate.Timeout.String()
	view.Translate.UserAgent = c.Translate.UserAgent
	view.Translate.Referer = c.Translate.Referer

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&view); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
