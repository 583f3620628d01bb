package database

import (
	"github.com/gobeaver/streamurl/config"
)

// Config holds database configuration
type Config struct {
	// Driver: sqlite, postgres, mysql, libsql (turso)
	Driver string `env:"DB_DRIVER,default:sqlite"`

	// Connection details (for server databases)
	Host     string `env:"DB_HOST,default:localhost"`
	Port     string `env:"DB_PORT"`
	Database string `env:"DB_DATABASE"` // file path for sqlite, empty means <data dir>/streamurl.db
	Username string `env:"DB_USERNAME"`
	Password string `env:"DB_PASSWORD"`

	// URL for direct connection string (overrides individual settings)
	URL string `env:"DB_URL"`

	// Auth token for Turso/LibSQL
	AuthToken string `env:"DB_AUTH_TOKEN"`

	SSLMode string `env:"DB_SSL_MODE,default:disable"` // PostgreSQL only

	// Connection Pool Settings
	MaxOpenConns    int `env:"DB_MAX_OPEN_CONNS,default:10"`
	MaxIdleConns    int `env:"DB_MAX_IDLE_CONNS,default:5"`
	ConnMaxLifetime int `env:"DB_CONN_MAX_LIFETIME,default:300"` // seconds
	ConnMaxIdleTime int `env:"DB_CONN_MAX_IDLE_TIME,default:60"` // seconds

	// Additional driver-specific parameters
	Params string `env:"DB_PARAMS"`

	// Log every SQL statement at verbosity 1
	Debug bool `env:"DB_DEBUG,default:false"`
}

// GetConfig loads configuration from environment variables
func GetConfig(opts ...config.LoadOptions) (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}
