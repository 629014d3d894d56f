package storage

import (
	"context"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Default configuration values.
const DefaultRegion = "us-east-1"

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	// Bucket is the default bucket for keys without an explicit bucket.
	Bucket string `yaml:"bucket" env:"S3_BUCKET"`

	// AccessKey is the AWS access key ID (required).
	AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY"`

	// SecretKey is the AWS secret access key (required).
	SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY"`

	// Endpoint is the custom S3 endpoint URL (optional, for MinIO or other S3-compatible services).
	Endpoint string `yaml:"endpoint" env:"S3_ENDPOINT"`

	// Region is the AWS region (default: us-east-1).
	Region string `yaml:"region" env:"S3_REGION"`

	// PathStyle enables path-style URLs (required for MinIO).
	PathStyle bool `yaml:"path_style" env:"S3_PATH_STYLE"`
}

// Enabled reports whether credentials are configured.
func (c S3Config) Enabled() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}

func (c *S3Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

func (c *S3Config) validate() error {
	if c.AccessKey == "" || c.SecretKey == "" {
		return ErrInvalidConfig
	}
	return nil
}

// S3Storage reads objects from S3-compatible object storage.
type S3Storage struct {
	client *s3.Client
	cfg    S3Config
}

// NewS3 creates a new S3Storage with the given configuration.
func NewS3(cfg S3Config) (*S3Storage, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = cfg.Region
			o.Credentials = credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			)
		},
	}

	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		})
	}

	return &S3Storage{
		client: s3.New(s3.Options{}, opts...),
		cfg:    cfg,
	}, nil
}

// WithBucket returns a copy of the storage bound to another bucket.
// The underlying client is shared.
func (s *S3Storage) WithBucket(bucket string) *S3Storage {
	cp := *s
	cp.cfg.Bucket = bucket
	return &cp
}

// Open retrieves an object from the configured bucket.
func (s *S3Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := s.check(key); err != nil {
		return nil, err
	}

	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrReadFailed)
	}

	return output.Body, nil
}

// Stat checks that the object exists and returns its metadata without downloading it.
func (s *S3Storage) Stat(ctx context.Context, key string) (*FileInfo, error) {
	if err := s.check(key); err != nil {
		return nil, err
	}

	output, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrReadFailed)
	}

	contentType := aws.ToString(output.ContentType)
	if contentType == "" || normalizeMIME(contentType) == MIMEOctetStream {
		contentType = DetectMIME(key, nil)
	}

	return &FileInfo{
		Key:         key,
		Name:        path.Base(key),
		ContentType: contentType,
		Size:        aws.ToInt64(output.ContentLength),
	}, nil
}

func (s *S3Storage) check(key string) error {
	if s.cfg.Bucket == "" {
		return ErrInvalidConfig
	}
	if key == "" {
		return ErrInvalidKey
	}
	return nil
}

var _ Storage = (*S3Storage)(nil)
