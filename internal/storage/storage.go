package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	intconfig "charter/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var ErrDisabled = errors.New("object storage is not configured")

// Store keeps avatars and driver documents. Paths stored in the database are
// object keys; readers get a time-limited signed URL.
type Store interface {
	Upload(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string) (string, error)
}

// S3Store works against AWS S3 or any S3-compatible endpoint such as
// Supabase storage.
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
}

func NewS3Store(ctx context.Context, cfg intconfig.StorageConfig) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	ttl := cfg.SignedTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &S3Store{client: client, presign: s3.NewPresignClient(client), bucket: cfg.Bucket, ttl: ttl}, nil
}

func (s *S3Store) Upload(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

func (s *S3Store) SignedURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	r, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(po *s3.PresignOptions) {
		po.Expires = s.ttl
	})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return r.URL, nil
}

// Disabled is used when no bucket is configured. Reads resolve to no URL and
// writes fail.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, string, []byte) error { return ErrDisabled }
func (Disabled) Delete(context.Context, string) error                 { return nil }
func (Disabled) SignedURL(context.Context, string) (string, error)    { return "", nil }

// ObjectKey builds "<folder>/<owner>/<uuid><ext>" keeping only a safe
// extension from the uploaded file name.
func ObjectKey(folder, owner, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 6 || strings.ContainsAny(ext, "/\\ ") {
		ext = ""
	}
	return path.Join(folder, owner, uuid.NewString()+ext)
}
