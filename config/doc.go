// Package config loads configuration structs from environment variables
// and .env files.
//
// Define a configuration struct with environment variable tags:
//
//	type Config struct {
//	    Addr    string        `env:"ADDR,default::3001"`
//	    DataDir string        `env:"DATA_DIR,default:."`
//	    JWTKey  string        `env:"JWT_KEY"`
//	    Timeout time.Duration `env:"TIMEOUT,default:30s"`
//	    Origins []string      `env:"CORS_ORIGINS,default:*"`
//	}
//
// Load it with the default STREAMURL_ prefix:
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//	    return fmt.Errorf("failed to load config: %w", err)
//	}
//
// or with a custom one:
//
//	err := config.Load(&cfg, config.LoadOptions{Prefix: "MYAPP_"})
//
// # Supported Types
//
//   - string
//   - int, int64
//   - bool ("true", "false", "1", "0", ...)
//   - time.Duration ("1h30m", "45s", ...)
//   - []string (comma separated)
//
// Fields of any other type are left untouched.
//
// # Field Tags
//
//   - `env:"NAME"`: variable name, prefixed with LoadOptions.Prefix
//   - `env:"NAME,default:value"`: fallback when the variable is unset or empty
//   - `env:"NAME,required"`: Load returns *MissingError when nothing resolves
//
// # Environment Files
//
// A .env file in the working directory (or the files named in
// LoadOptions.EnvFile) is read first. Variables already set in the process
// environment take precedence.
//
// # Debug Mode
//
// Set STREAMURL_CONFIG_DEBUG=true (or LoadOptions.Debug) to print every
// resolved variable. Values of variables whose names mention KEY, SECRET,
// TOKEN or PASSWORD are masked.
//
// All streamurl packages load their settings through this package:
//   - database: STREAMURL_DB_*
//   - cache: STREAMURL_CACHE_*
//   - filekit: STREAMURL_EXPORT_*
//   - logging: STREAMURL_LOG_*
//   - history: STREAMURL_HISTORY_*
//   - api: STREAMURL_ADDR, STREAMURL_DATA_DIR, STREAMURL_JWT_KEY, ...
package config
