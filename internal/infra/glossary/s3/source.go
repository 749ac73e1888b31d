// Package s3 provides a glossary source reading a JSON document from an
// S3-compatible object store (AWS S3 or MinIO).
package s3

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"refmap/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.GlossarySource = (*Source)(nil)

// ReferenceEntity aliases domain.ReferenceEntity decoded from the object.
type ReferenceEntity = domain.ReferenceEntity

// Config holds explicit construction parameters (mostly for tests). For prod
// we rely primarily on environment variables.
type Config struct {
	Region          string
	Bucket          string
	Key             string
	Endpoint        string // optional; if set enables custom endpoint (e.g. MinIO)
	AccessKeyID     string // optional (falls back to default credentials chain)
	SecretAccessKey string // optional
	SessionToken    string // optional
	PathStyle       bool
}

// Environment variables:
//   REFMAP_GLOSSARY_DRIVER=s3
//   REFMAP_GLOSSARY_S3_BUCKET=<bucket> (required)
//   REFMAP_GLOSSARY_S3_KEY=<object key> (required)
//   REFMAP_GLOSSARY_S3_REGION=<region> (default us-east-1)
//   REFMAP_GLOSSARY_S3_ENDPOINT=<url> (optional, for MinIO)
//   REFMAP_GLOSSARY_S3_PATH_STYLE=true|false (default false)
//   AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / AWS_SESSION_TOKEN (optional)

// Source reads the complete glossary from a single JSON object. Every load
// fetches the object again, so publishing a new document and calling Reload
// picks up a new glossary generation.
type Source struct {
	client *s3.Client
	bucket string
	key    string
}

// New creates an S3 glossary source from Config.
func New(ctx context.Context, cfg Config) (*Source, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("s3 object key required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Source{client: client, bucket: cfg.Bucket, key: cfg.Key}, nil
}

// OpenFromEnv constructs an S3 source from process environment.
func OpenFromEnv(ctx context.Context) (*Source, error) {
	bucket := os.Getenv("REFMAP_GLOSSARY_S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("REFMAP_GLOSSARY_S3_BUCKET required for s3 driver")
	}
	key := os.Getenv("REFMAP_GLOSSARY_S3_KEY")
	if key == "" {
		return nil, fmt.Errorf("REFMAP_GLOSSARY_S3_KEY required for s3 driver")
	}
	cfg := Config{
		Bucket:    bucket,
		Key:       key,
		Region:    os.Getenv("REFMAP_GLOSSARY_S3_REGION"),
		Endpoint:  os.Getenv("REFMAP_GLOSSARY_S3_ENDPOINT"),
		PathStyle: strings.EqualFold(os.Getenv("REFMAP_GLOSSARY_S3_PATH_STYLE"), "true"),
	}
	return New(ctx, cfg)
}

// LoadGlossary fetches and decodes the glossary object.
func (s *Source) LoadGlossary(ctx context.Context) ([]ReferenceEntity, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &s.key})
	if err != nil {
		return nil, fmt.Errorf("get glossary object %s/%s: %w", s.bucket, s.key, err)
	}
	defer func() { _ = out.Body.Close() }()
	payload, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read glossary object: %w", err)
	}
	var entities []ReferenceEntity
	if err := json.Unmarshal(payload, &entities); err != nil {
		return nil, fmt.Errorf("decode glossary object: %w", err)
	}
	return entities, nil
}
