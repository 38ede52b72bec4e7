package design

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// s3API is the subset of *s3.Client used by the store.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// s3Store implements Store on an S3 bucket.
type s3Store struct {
	client s3API
	bucket string
	region string
	prefix string
	logger zerolog.Logger
}

// NewS3Store creates an S3-backed store. Keys are written below prefix.
func NewS3Store(ctx context.Context, bucket, region, prefix string, logger zerolog.Logger) (Store, error) {
	logger = logger.With().Str("component", "design-s3-store").Logger()

	// Load AWS configuration
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Str("prefix", prefix).
		Msg("S3 design store initialised")

	return newS3Store(s3.NewFromConfig(cfg), bucket, region, prefix, logger), nil
}

func newS3Store(client s3API, bucket, region, prefix string, logger zerolog.Logger) *s3Store {
	return &s3Store{
		client: client,
		bucket: bucket,
		region: region,
		prefix: prefix,
		logger: logger,
	}
}

func (s *s3Store) key(key string) string {
	return s.prefix + strings.TrimLeft(key, "/")
}

func (s *s3Store) Put(ctx context.Context, obj Object) (string, error) {
	key := s.key(obj.Key)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        obj.Body,
		ContentType: aws.String(obj.ContentType),
	}
	if obj.Size > 0 {
		input.ContentLength = aws.Int64(obj.Size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", key).
			Msg("failed to put object to S3")
		return "", fmt.Errorf("failed to put object to S3 (bucket=%s, key=%s): %w", s.bucket, key, err)
	}

	s.logger.Info().
		Str("bucket", s.bucket).
		Str("key", key).
		Int64("bytes", obj.Size).
		Msg("design stored in S3")

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

func (s *s3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	full := s.key(key)

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(full),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrObjectNotFound
		}
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", full).
			Msg("failed to get object from S3")
		return nil, fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", s.bucket, full, err)
	}

	return result.Body, nil
}

func (s *s3Store) Delete(ctx context.Context, key string) error {
	full := s.key(key)

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(full),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", full).
			Msg("failed to delete object from S3")
		return fmt.Errorf("failed to delete object from S3 (bucket=%s, key=%s): %w", s.bucket, full, err)
	}

	return nil
}

// fallbackStore writes to S3 and falls back to the local file system when
// S3 is disabled or fails.
type fallbackStore struct {
	s3Store   Store
	fileStore Store
	s3Enabled bool
	logger    zerolog.Logger
}

// NewFallbackStore creates a store that tries S3 first, then the local file
// system. If s3Store is nil, only the file store is used.
func NewFallbackStore(s3Store, fileStore Store, s3Enabled bool, logger zerolog.Logger) Store {
	return &fallbackStore{
		s3Store:   s3Store,
		fileStore: fileStore,
		s3Enabled: s3Enabled,
		logger:    logger.With().Str("component", "design-fallback-store").Logger(),
	}
}

func (s *fallbackStore) useS3() bool {
	return s.s3Enabled && s.s3Store != nil
}

func (s *fallbackStore) Put(ctx context.Context, obj Object) (string, error) {
	if s.useS3() {
		url, err := s.s3Store.Put(ctx, obj)
		if err == nil {
			return url, nil
		}

		// The body may be partly consumed; only retry when it can be rewound.
		seeker, ok := obj.Body.(io.Seeker)
		if !ok {
			return "", err
		}
		if _, seekErr := seeker.Seek(0, io.SeekStart); seekErr != nil {
			return "", err
		}

		s.logger.Warn().
			Err(err).
			Str("key", obj.Key).
			Msg("failed to store in S3, falling back to local file system")
	}

	return s.fileStore.Put(ctx, obj)
}

func (s *fallbackStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.useS3() {
		body, err := s.s3Store.Open(ctx, key)
		if err == nil {
			return body, nil
		}
		s.logger.Debug().Err(err).Str("key", key).Msg("not in S3, trying local file system")
	}

	return s.fileStore.Open(ctx, key)
}

func (s *fallbackStore) Delete(ctx context.Context, key string) error {
	var s3Err error
	if s.useS3() {
		s3Err = s.s3Store.Delete(ctx, key)
	}
	return errors.Join(s3Err, s.fileStore.Delete(ctx, key))
}
