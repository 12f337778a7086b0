package save

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

var ErrInvalidS3Destination = errors.New("invalid S3 destination")

// Uploader is the part of manager.Uploader that S3 needs.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3 uploads archives to a bucket under an optional key prefix.
type S3 struct {
	Bucket   string
	Prefix   string
	uploader Uploader
}

// ParseS3Destination splits "s3://bucket/prefix" or "bucket/prefix".
func ParseS3Destination(dest string) (string, string, error) {
	dest = strings.TrimPrefix(dest, "s3://")
	bucket, prefix, _ := strings.Cut(dest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidS3Destination, dest)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// NewS3 builds an S3 saver using the named shared-config profile.
func NewS3(ctx context.Context, dest, profile string) (*S3, error) {
	bucket, prefix, err := ParseS3Destination(dest)
	if err != nil {
		return nil, err
	}
	opts := []func(*config.LoadOptions) error{config.WithRetryMode(aws.RetryModeAdaptive)}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}
	return NewS3WithUploader(bucket, prefix, manager.NewUploader(s3.NewFromConfig(cfg))), nil
}

func NewS3WithUploader(bucket, prefix string, uploader Uploader) *S3 {
	return &S3{Bucket: bucket, Prefix: prefix, uploader: uploader}
}

func (s *S3) Key(name string) string {
	if s.Prefix == "" {
		return name
	}
	return path.Join(s.Prefix, name)
}

func (s *S3) Save(ctx context.Context, name string, data []byte) (string, error) {
	key := s.Key(name)
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("application/zip"),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("error uploading archive: %w", err)
	}
	location := fmt.Sprintf("s3://%s/%s", s.Bucket, key)
	log.Info().Str("op", "save/s3").Int("bytes", len(data)).Msgf("archive uploaded to %s", location)
	return location, nil
}
