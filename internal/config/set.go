package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SetValue updates one dotted key in the config file at path, validates the
// result, and writes it back. The value is converted to the type of the
// key's default; keys without a default are stored as strings.
func SetValue(path, key, value string) (*Config, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return nil, configError("key", "must not be empty")
	}

	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	typed, err := convert(v.Get(key), value)
	if err != nil {
		return nil, configError(key, "%v", err)
	}
	v.Set(key, typed)

	cfg, err := FromViper(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := Save(path, cfg); err != nil {
		return nil, err
	}
	cfg.File = path
	return cfg, nil
}

func convert(current any, value string) (any, error) {
	switch current.(type) {
	case bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("want a boolean, got %q", value)
		}
		return b, nil
	case int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("want an integer, got %q", value)
		}
		return n, nil
	case time.Duration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("want a duration such as 90s, got %q", value)
		}
		return d, nil
	case []string:
		var out []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	default:
		return value, nil
	}
}
