package filekit

import (
	"context"
	"fmt"

	"github.com/gobeaver/streamurl/config"
)

type Config struct {
	// Driver to use (local, s3)
	Driver string `env:"EXPORT_DRIVER,default:local"`

	// Local driver root; empty means <data dir>/exports
	LocalBasePath string `env:"EXPORT_LOCAL_PATH"`

	// S3 driver configuration
	S3Region          string `env:"EXPORT_S3_REGION,default:us-east-1"`
	S3Bucket          string `env:"EXPORT_S3_BUCKET"`
	S3Prefix          string `env:"EXPORT_S3_PREFIX"`
	S3Endpoint        string `env:"EXPORT_S3_ENDPOINT"`
	S3AccessKeyID     string `env:"EXPORT_S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"EXPORT_S3_SECRET_ACCESS_KEY"`
	S3ForcePathStyle  bool   `env:"EXPORT_S3_FORCE_PATH_STYLE,default:false"`

	// Passphrase for sealing export files; empty stores them in clear text
	EncryptionKey string `env:"EXPORT_ENCRYPTION_KEY"`
}

// GetConfig returns config loaded from environment
func GetConfig(opts ...config.LoadOptions) (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// New builds the configured driver, wrapped in an EncryptedFS when an
// encryption key is set.
func New(ctx context.Context, cfg Config) (FileSystem, error) {
	var (
		fs  FileSystem
		err error
	)
	switch cfg.Driver {
	case "", "local":
		fs, err = NewLocal(cfg.LocalBasePath)
	case "s3":
		fs, err = NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.EncryptionKey != "" {
		return NewEncryptedFS(fs, cfg.EncryptionKey)
	}
	return fs, nil
}
