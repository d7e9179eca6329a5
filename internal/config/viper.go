package config

import (
	"errors"
	"fmt"
	"strings"

	"fjacquet/freelog/pkg/logbridge"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Sink types understood by the container.
const (
	SinkLogrus = "logrus"
	SinkCSV    = "csv"
	SinkJSONL  = "jsonl"
	SinkYAML   = "yaml"
	SinkNone   = "none"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Native struct {
		// Level is the minimum severity the native engine dispatches.
		Level string `mapstructure:"level" yaml:"level"`
	} `mapstructure:"native" yaml:"native"`

	Bridge struct {
		// Domain is the default domain for entries written by the CLI and
		// the logrus hook.
		Domain string `mapstructure:"domain" yaml:"domain"`
	} `mapstructure:"bridge" yaml:"bridge"`

	Sink struct {
		Type     string `mapstructure:"type" yaml:"type"`
		Path     string `mapstructure:"path" yaml:"path"`
		Compress bool   `mapstructure:"compress" yaml:"compress"`
	} `mapstructure:"sink" yaml:"sink"`
}

// NativeLevel returns the parsed native filter level.
func (c *Config) NativeLevel() logbridge.Level {
	level, err := logbridge.ParseLevel(c.Native.Level)
	if err != nil {
		return logbridge.LevelInformation
	}
	return level
}

// Load initializes configuration from defaults, the config file at path (or
// the standard search locations when path is empty) and FREELOG_* variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.freelog")
		v.AddConfigPath(".freelog")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FREELOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration obtained from defaults alone.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	_ = v.Unmarshal(&config)
	return &config
}

// Validate checks c the way Load does. Use it after overriding loaded values.
func (c *Config) Validate() error {
	return validateConfig(c)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("native.level", "information")

	v.SetDefault("bridge.domain", "freelog")

	v.SetDefault("sink.type", SinkLogrus)
	v.SetDefault("sink.path", "")
	v.SetDefault("sink.compress", false)
}

func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if _, err := logbridge.ParseLevel(config.Native.Level); err != nil {
		return fmt.Errorf("invalid native level: %w", err)
	}

	if config.Bridge.Domain == "" {
		return fmt.Errorf("bridge.domain must not be empty")
	}

	switch config.Sink.Type {
	case SinkLogrus, SinkNone:
	case SinkCSV, SinkJSONL, SinkYAML:
		if config.Sink.Compress && config.Sink.Type != SinkJSONL {
			return fmt.Errorf("sink.compress is only supported by the %s sink", SinkJSONL)
		}
		if config.Sink.Compress && (config.Sink.Path == "" || config.Sink.Path == "-") {
			return fmt.Errorf("sink.compress requires sink.path to name a file")
		}
	default:
		return fmt.Errorf("invalid sink type: %s (must be one of %s, %s, %s, %s, %s)",
			config.Sink.Type, SinkLogrus, SinkCSV, SinkJSONL, SinkYAML, SinkNone)
	}

	return nil
}
