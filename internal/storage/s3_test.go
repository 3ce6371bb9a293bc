package storage

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLIsPresignedAgainstEndpoint(t *testing.T) {
	s, err := NewS3Storage(context.Background(), S3Config{
		Region:        "us-east-1",
		Bucket:        "avatars",
		AccessKey:     "minio",
		SecretKey:     "minio-secret",
		Endpoint:      "http://localhost:9000",
		PresignExpiry: time.Hour,
	})
	require.NoError(t, err)

	raw, err := s.URL(context.Background(), "public/avatars/a.png")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/avatars/public/avatars/a.png", u.Path)
	assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestDefaultPresignExpiry(t *testing.T) {
	s, err := NewS3Storage(context.Background(), S3Config{
		Region:    "us-east-1",
		Bucket:    "avatars",
		AccessKey: "k",
		SecretKey: "s",
	})
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, s.presignExpiry)
}
