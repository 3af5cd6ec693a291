package generate

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/carboni123/nanobanana/internal/config"
)

// R2Uploader stores generated images in a Cloudflare R2 bucket through the
// S3-compatible API and returns the object's public URL.
type R2Uploader struct {
	client    *s3.Client
	bucket    string
	publicURL string
	logger    *zap.Logger
}

func NewR2Uploader(cfg *config.R2Config, logger *zap.Logger) *R2Uploader {
	client := s3.New(s3.Options{
		BaseEndpoint: aws.String(cfg.Endpoint),
		Region:       "auto",
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
		// R2 rejects the SDK's default streaming checksum trailers.
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
	})

	return &R2Uploader{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: r2PublicBase(cfg),
		logger:    logger.Named("R2Uploader"),
	}
}

var _ Uploader = (*R2Uploader)(nil)

func (u *R2Uploader) Upload(ctx context.Context, imageBytes []byte, filename string) (string, error) {
	key := "images/" + filename

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(imageBytes),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return "", fmt.Errorf("r2 put object: %w", err)
	}

	u.logger.Debug("Uploaded image to R2", zap.String("key", key))
	return u.publicURL + "/" + key, nil
}

// r2PublicBase resolves the base URL objects are served from. Without an
// explicit PublicURL, R2's public development URL is derived from the
// S3 endpoint (<account>.r2.cloudflarestorage.com -> <account>.r2.dev).
func r2PublicBase(cfg *config.R2Config) string {
	base := cfg.PublicURL
	if base == "" {
		base = strings.Replace(cfg.Endpoint, ".r2.cloudflarestorage.com", ".r2.dev", 1)
	}
	return strings.TrimSuffix(base, "/")
}
