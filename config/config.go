package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultPrefix is prepended to every environment variable name unless
// LoadOptions overrides it.
const DefaultPrefix = "STREAMURL_"

// ErrNotStructPointer is returned when Load is given anything but a pointer to a struct.
var ErrNotStructPointer = errors.New("config: target must be a pointer to a struct")

// LoadOptions defines options for loading configuration from environment variables.
type LoadOptions struct {
	Prefix  string   // Prefix to prepend to environment variable names (default: "STREAMURL_")
	Debug   bool     // Print every resolved variable to stdout
	EnvFile []string // .env files to load before reading the environment (default: ".env")
}

// MissingError reports required variables that were neither set nor defaulted.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return "config: required environment variables not set: " + strings.Join(e.Names, ", ")
}

// Load populates a struct from .env files and environment variables using reflection.
//
// Field tags control the mapping:
//   - `env:"VAR_NAME"`: maps the field to PREFIX+VAR_NAME
//   - `env:"VAR_NAME,default:value"`: value used when the variable is unset or empty
//   - `env:"VAR_NAME,required"`: Load fails with *MissingError when no value resolves
//
// Variables already present in the process environment win over .env entries.
//
// Example:
//
//	type Config struct {
//	    Addr    string        `env:"ADDR,default::3001"`
//	    Timeout time.Duration `env:"TIMEOUT,default:30s"`
//	}
//
//	var cfg Config
//	err := config.Load(&cfg, config.LoadOptions{Prefix: "MYAPP_"})
func Load(cfg interface{}, opts ...LoadOptions) error {
	options := LoadOptions{Prefix: DefaultPrefix}
	if len(opts) > 0 {
		options = opts[0]
	}

	// A missing .env file is not an error.
	_ = godotenv.Load(options.EnvFile...)

	rv := reflect.ValueOf(cfg)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return ErrNotStructPointer
	}
	v := rv.Elem()
	t := v.Type()
	printDebug := options.Debug || os.Getenv(options.Prefix+"CONFIG_DEBUG") == "true"

	var missing []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		envTag := field.Tag.Get("env")
		if envTag == "" || !v.Field(i).CanSet() {
			continue
		}

		envName, defaultValue, required := parseTag(envTag)
		fullEnvName := options.Prefix + envName

		value := os.Getenv(fullEnvName)
		if value == "" {
			value = defaultValue
		}
		if printDebug {
			fmt.Printf("[STREAMURL] %s=%s\n", fullEnvName, redact(fullEnvName, value))
		}

		if value == "" {
			if required {
				missing = append(missing, fullEnvName)
			}
			continue
		}
		if err := setFieldValue(v.Field(i), value); err != nil {
			return fmt.Errorf("config: %s: %w", fullEnvName, err)
		}
	}

	if len(missing) > 0 {
		return &MissingError{Names: missing}
	}
	return nil
}

// parseTag splits `NAME,default:value,required`. Unknown options are ignored.
func parseTag(tag string) (name, def string, required bool) {
	parts := strings.Split(tag, ",")
	name = parts[0]
	for _, part := range parts[1:] {
		switch {
		case part == "required":
			required = true
		case strings.HasPrefix(part, "default:"):
			def = strings.TrimPrefix(part, "default:")
		}
	}
	return name, def, required
}

func redact(name, value string) string {
	upper := strings.ToUpper(name)
	if value != "" && (strings.Contains(upper, "KEY") || strings.Contains(upper, "PASSWORD") ||
		strings.Contains(upper, "SECRET") || strings.Contains(upper, "TOKEN")) {
		return "******"
	}
	return value
}

// setFieldValue converts the raw string into the field's type.
//
// Supported types: string, int, int64, bool, time.Duration and []string
// (comma separated, blanks dropped). Unsupported kinds are skipped.
func setFieldValue(field reflect.Value, value string) error {
	if field.Type() == reflect.TypeOf(time.Duration(0)) {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return nil
		}
		var items []string
		for _, s := range strings.Split(value, ",") {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
		field.Set(reflect.ValueOf(items))
	default:
		return nil
	}
	return nil
}
