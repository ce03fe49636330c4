// Package config loads runtime settings from flags, MPDHUB_* environment
// variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const EnvPrefix = "MPDHUB"

type Config struct {
	DBPath        string        `mapstructure:"db_path" validate:"required"`
	ListenAddr    string        `mapstructure:"listen_addr" validate:"required"`
	MigrationsDir string        `mapstructure:"migrations_dir"`
	SecretKey     string        `mapstructure:"secret_key" validate:"omitempty,base64"`
	LogLevel      string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat     string        `mapstructure:"log_format" validate:"oneof=text json logfmt"`
	PollInterval  time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	CORSOrigin    string        `mapstructure:"cors_origin"`
	// FlowRateLimit is config flow submissions allowed per client per minute.
	// Zero disables the limit.
	FlowRateLimit int `mapstructure:"flow_rate_limit" validate:"gte=0"`
}

var defaults = map[string]any{
	"db_path":         "./data/mpdhub.db",
	"listen_addr":     ":7936",
	"migrations_dir":  "",
	"secret_key":      "",
	"log_level":       "info",
	"log_format":      "text",
	"poll_interval":   "5s",
	"cors_origin":     "",
	"flow_rate_limit": 10,
}

// Load reads the configuration into v. Flags already bound to v take
// precedence over the environment, which takes precedence over file.
func Load(v *viper.Viper, file string) (Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
