package assets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var ErrS3NotConfigured = errors.New("s3 assets not configured")

const DefaultPresignTTL = 15 * time.Minute

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // MinIO / compatible
	AccessKey string
	SecretKey string
	TTL       time.Duration
}

func (c S3Config) IsConfigured() bool {
	return strings.TrimSpace(c.Bucket) != "" && strings.TrimSpace(c.Region) != ""
}

type presignFunc func(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)

// S3 firma GETs temporales sobre el bucket de assets.
type S3 struct {
	bucket  string
	ttl     time.Duration
	presign presignFunc
}

func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if !cfg.IsConfigured() {
		return nil, ErrS3NotConfigured
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}

	return &S3{
		bucket:  cfg.Bucket,
		ttl:     ttl,
		presign: s3.NewPresignClient(client).PresignGetObject,
	}, nil
}

func (s *S3) URL(ctx context.Context, key string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	req, err := s.presign(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}
