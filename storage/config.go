package storage

import "github.com/kbukum/audioscribe/validation"

// Provider constants for supported storage backends.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// Default configuration values.
const (
	DefaultProvider = ProviderLocal
	DefaultRegion   = "us-east-1"
)

// Config holds storage configuration.
type Config struct {
	// Provider selects the storage backend: "local" or "s3".
	Provider string `mapstructure:"provider" json:"provider" validate:"omitempty,oneof=local s3"`

	// BasePath is the root directory for local storage. Defaults to
	// <user data dir>/audioscribe/transcripts, resolved by the caller.
	BasePath string `mapstructure:"base_path" json:"base_path"`

	// Bucket is the S3 bucket name.
	Bucket string `mapstructure:"bucket" json:"bucket"`

	// Prefix is prepended to every S3 object key.
	Prefix string `mapstructure:"prefix" json:"prefix"`

	// Region is the AWS region for S3.
	Region string `mapstructure:"region" json:"region"`

	// Endpoint is a custom S3-compatible endpoint (e.g. MinIO).
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`

	// AccessKey is the AWS access key ID. Empty uses the default AWS credential chain.
	AccessKey string `mapstructure:"access_key" json:"-"`

	// SecretKey is the AWS secret access key.
	SecretKey string `mapstructure:"secret_key" json:"-"`

	// ForcePathStyle forces path-style URLs; always on with a custom endpoint.
	ForcePathStyle bool `mapstructure:"force_path_style" json:"force_path_style"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

// Validate checks that the configuration is valid for the selected provider.
func (c *Config) Validate() error {
	v := validation.New().OneOf("storage.provider", c.Provider, []string{ProviderLocal, ProviderS3})
	switch c.Provider {
	case ProviderLocal:
		v.Required("storage.base_path", c.BasePath)
	case ProviderS3:
		v.Required("storage.bucket", c.Bucket).
			Required("storage.region", c.Region).
			Custom((c.AccessKey == "") == (c.SecretKey == ""), "storage.access_key", "must be set together with secret_key")
	}
	return v.Validate()
}
