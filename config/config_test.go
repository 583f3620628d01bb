package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// Test struct with various field types
type TestConfig struct {
	StringField   string        `env:"STRING"`
	IntField      int           `env:"INT"`
	Int64Field    int64         `env:"INT64"`
	BoolField     bool          `env:"BOOL"`
	DurationField time.Duration `env:"DURATION,default:30s"`
	ListField     []string      `env:"LIST"`
	DefaultField  string        `env:"DEFAULT,default:defaultValue"`
	NoTagField    string        // Field without env tag
}

var testOpts = LoadOptions{Prefix: "CFGTEST_"}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		expected TestConfig
		wantErr  bool
	}{
		{
			name: "all fields set from environment",
			envVars: map[string]string{
				"CFGTEST_STRING":   "hello",
				"CFGTEST_INT":      "42",
				"CFGTEST_INT64":    "9223372036854775807",
				"CFGTEST_BOOL":     "true",
				"CFGTEST_DURATION": "2m",
				"CFGTEST_LIST":     "a, b,,c",
			},
			expected: TestConfig{
				StringField:   "hello",
				IntField:      42,
				Int64Field:    9223372036854775807,
				BoolField:     true,
				DurationField: 2 * time.Minute,
				ListField:     []string{"a", "b", "c"},
				DefaultField:  "defaultValue",
			},
		},
		{
			name: "override default value",
			envVars: map[string]string{
				"CFGTEST_DEFAULT": "overridden",
			},
			expected: TestConfig{
				DurationField: 30 * time.Second,
				DefaultField:  "overridden",
			},
		},
		{
			name: "invalid int value",
			envVars: map[string]string{
				"CFGTEST_INT": "not-a-number",
			},
			wantErr: true,
		},
		{
			name: "invalid duration value",
			envVars: map[string]string{
				"CFGTEST_DURATION": "soon",
			},
			wantErr: true,
		},
		{
			name:    "empty environment leaves zero values",
			envVars: map[string]string{},
			expected: TestConfig{
				DurationField: 30 * time.Second,
				DefaultField:  "defaultValue",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"STRING", "INT", "INT64", "BOOL", "DURATION", "LIST", "DEFAULT"} {
				t.Setenv("CFGTEST_"+k, "")
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := &TestConfig{}
			err := Load(cfg, testOpts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(*cfg, tt.expected) {
				t.Errorf("Load() = %+v, want %+v", *cfg, tt.expected)
			}
		})
	}
}

func TestLoadRequired(t *testing.T) {
	type required struct {
		Key  string `env:"KEY,required"`
		Addr string `env:"ADDR,default::3001,required"`
	}
	t.Setenv("CFGTEST_KEY", "")

	err := Load(&required{}, testOpts)
	var missing *MissingError
	if !errors.As(err, &missing) {
		t.Fatalf("Load() error = %v, want *MissingError", err)
	}
	if len(missing.Names) != 1 || missing.Names[0] != "CFGTEST_KEY" {
		t.Errorf("missing = %v, want [CFGTEST_KEY]", missing.Names)
	}

	t.Setenv("CFGTEST_KEY", "abc")
	cfg := &required{}
	if err := Load(cfg, testOpts); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr != ":3001" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, ":3001")
	}
}

func TestLoadRejectsNonPointer(t *testing.T) {
	if err := Load(TestConfig{}, testOpts); !errors.Is(err, ErrNotStructPointer) {
		t.Errorf("Load() error = %v, want ErrNotStructPointer", err)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("CFGTEST_ENVFILE_ONLY=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("CFGTEST_ENVFILE_ONLY") })

	var cfg struct {
		Value string `env:"ENVFILE_ONLY"`
	}
	if err := Load(&cfg, LoadOptions{Prefix: "CFGTEST_", EnvFile: []string{path}}); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Value != "from-file" {
		t.Errorf("Value = %q, want %q", cfg.Value, "from-file")
	}
}

func TestComplexEnvTag(t *testing.T) {
	type ComplexConfig struct {
		Field1 string `env:"COMPLEX_FIELD1,default:value1"`
		Field2 string `env:"COMPLEX_FIELD2,default:value2,other:ignored"`
		Field3 string `env:"COMPLEX_FIELD3,something,default:value3"`
	}

	cfg := &ComplexConfig{}
	if err := Load(cfg, testOpts); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Field1 != "value1" {
		t.Errorf("Field1 = %v, want %v", cfg.Field1, "value1")
	}
	if cfg.Field2 != "value2" {
		t.Errorf("Field2 = %v, want %v", cfg.Field2, "value2")
	}
	if cfg.Field3 != "value3" {
		t.Errorf("Field3 = %v, want %v", cfg.Field3, "value3")
	}
}

func TestUnsupportedFieldType(t *testing.T) {
	type UnsupportedConfig struct {
		FloatField float64 `env:"FLOAT"`
	}
	t.Setenv("CFGTEST_FLOAT", "3.14")

	cfg := &UnsupportedConfig{}
	if err := Load(cfg, testOpts); err != nil {
		t.Errorf("Load() should not error for unsupported types, got: %v", err)
	}
	if cfg.FloatField != 0 {
		t.Errorf("FloatField = %v, want %v", cfg.FloatField, 0)
	}
}

func TestRedact(t *testing.T) {
	if got := redact("STREAMURL_JWT_KEY", "s3cret"); got != "******" {
		t.Errorf("redact() = %q", got)
	}
	if got := redact("STREAMURL_ADDR", ":3001"); got != ":3001" {
		t.Errorf("redact() = %q", got)
	}
}
