package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	cfg "github.com/teamx/teamfinder/internal/config"
)

// Storage is the object store behind profile avatars.
type Storage interface {
	Save(ctx context.Context, path, contentType string, body io.Reader) error
	Delete(ctx context.Context, path string) error
	// URL returns a time-limited GET URL for the object.
	URL(ctx context.Context, path string) (string, error)
}

// S3Storage works with AWS S3 and S3-compatible services (MinIO, R2, DO Spaces).
type S3Storage struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	presignExpiry time.Duration
}

type S3Config struct {
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	Endpoint      string // Optional: for S3-compatible services
	PresignExpiry time.Duration
}

// New creates S3 storage from app config and makes sure the bucket exists.
func New(ctx context.Context, c *cfg.Config) (*S3Storage, error) {
	slog.Info("initializing S3 storage",
		"bucket", c.S3Bucket,
		"region", c.S3Region,
		"endpoint", c.S3Endpoint,
	)

	s, err := NewS3Storage(ctx, S3Config{
		Region:        c.S3Region,
		Bucket:        c.S3Bucket,
		AccessKey:     c.S3AccessKey,
		SecretKey:     c.S3SecretKey,
		Endpoint:      c.S3Endpoint,
		PresignExpiry: c.S3PresignExpiry,
	})
	if err != nil {
		return nil, err
	}

	err = s.ensureBucket(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return s, nil
}

// NewS3Storage builds the client without touching the network.
func NewS3Storage(ctx context.Context, c S3Config) (*S3Storage, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}

	if c.AccessKey != "" && c.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true // MinIO and most S3-compatible services
		}
	})

	expiry := c.PresignExpiry
	if expiry <= 0 {
		expiry = 7 * 24 * time.Hour
	}

	return &S3Storage{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        c.Bucket,
		presignExpiry: expiry,
	}, nil
}

func (s *S3Storage) ensureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %q does not exist and could not be created: %w", s.bucket, err)
	}

	slog.Info("created S3 bucket", "bucket", s.bucket)
	return nil
}

func (s *S3Storage) Save(ctx context.Context, path, contentType string, body io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	return nil
}

func (s *S3Storage) Delete(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}

	return nil
}

// URL presigns a GET for the configured expiry (7 days by default).
func (s *S3Storage) URL(ctx context.Context, path string) (string, error) {
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.presignExpiry
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign URL: %w", err)
	}

	return req.URL, nil
}
