package core

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"mnyama/internal/blob"
)

// Config holds process level settings read from MNYAMA_* environment variables.
type Config struct {
	StorageDriver StorageDriver `env:"MNYAMA_STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath    string        `env:"MNYAMA_SQLITE_PATH" envDefault:"mnyama.db"`
	PostgresDSN   string        `env:"MNYAMA_POSTGRES_DSN"`

	BlobDriver      string `env:"MNYAMA_BLOB_DRIVER" envDefault:"fs"`
	BlobFSRoot      string `env:"MNYAMA_BLOB_FS_ROOT" envDefault:"./blobdata"`
	BlobS3Bucket    string `env:"MNYAMA_BLOB_S3_BUCKET"`
	BlobS3Region    string `env:"MNYAMA_BLOB_S3_REGION" envDefault:"us-east-1"`
	BlobS3Endpoint  string `env:"MNYAMA_BLOB_S3_ENDPOINT"`
	BlobS3PathStyle bool   `env:"MNYAMA_BLOB_S3_PATH_STYLE"`

	// Static S3 credentials; the default AWS chain is used when unset.
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSSessionToken    string `env:"AWS_SESSION_TOKEN"`

	LogLevel string `env:"MNYAMA_LOG_LEVEL" envDefault:"info"`

	// MetricsEnabled registers Prometheus collectors on the default registerer.
	MetricsEnabled   bool   `env:"MNYAMA_METRICS_ENABLED"`
	MetricsNamespace string `env:"MNYAMA_METRICS_NAMESPACE" envDefault:"mnyama"`
	// TracingEnabled starts OpenTelemetry spans on the global tracer provider.
	TracingEnabled bool `env:"MNYAMA_TRACING_ENABLED"`
}

// LoadConfig parses the environment.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Blob converts the artifact settings into a blob factory configuration.
func (c Config) Blob() blob.Config {
	return blob.Config{
		Driver: blob.Driver(c.BlobDriver),
		FSRoot: c.BlobFSRoot,
		S3: blob.S3Config{
			Bucket:          c.BlobS3Bucket,
			Region:          c.BlobS3Region,
			Endpoint:        c.BlobS3Endpoint,
			PathStyle:       c.BlobS3PathStyle,
			AccessKeyID:     c.AWSAccessKeyID,
			SecretAccessKey: c.AWSSecretAccessKey,
			SessionToken:    c.AWSSessionToken,
		},
	}
}
