package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"coverletter-backend/internal/shared/storage/object"
)

// MaxObjectBytes caps a single upload; bodies are buffered to send an exact
// Content-Length.
const MaxObjectBytes = 8 << 20

// DefaultCacheControl is attached to every upload. Previews are overwritten
// in place on regeneration, so caches must revalidate.
const DefaultCacheControl = "private, no-cache"

// ErrMissingBucket is returned when the store is configured without a bucket.
var ErrMissingBucket = errors.New("s3 bucket is required")

// API is the subset of the S3 client used by Store.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config selects the bucket layout and encryption.
type Config struct {
	Region   string
	Bucket   string
	Prefix   string
	KMSKeyID string
}

// Store keeps objects in one S3 bucket under an optional key prefix.
type Store struct {
	client   API
	bucket   string
	prefix   string
	kmsKeyID string
}

// New loads the default AWS config and builds a Store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, ErrMissingBucket
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithClient(s3.NewFromConfig(awsCfg), cfg), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client API, cfg Config) *Store {
	return &Store{
		client:   client,
		bucket:   strings.TrimSpace(cfg.Bucket),
		prefix:   strings.Trim(strings.TrimSpace(cfg.Prefix), "/"),
		kmsKeyID: strings.TrimSpace(cfg.KMSKeyID),
	}
}

// Open streams the object body. Missing keys report os.ErrNotExist.
func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	objectKey, err := s.objectKey(storageKey)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var missing *s3types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("s3 get %s: %w", objectKey, os.ErrNotExist)
		}
		return nil, fmt.Errorf("s3 get bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	return out.Body, nil
}

// SaveWithKey uploads r with server-side encryption: KMS when a key is
// configured, AES256 otherwise.
func (s *Store) SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error) {
	objectKey, err := s.objectKey(storageKey)
	if err != nil {
		return 0, err
	}
	body, err := io.ReadAll(io.LimitReader(r, MaxObjectBytes+1))
	if err != nil {
		return 0, fmt.Errorf("read object body: %w", err)
	}
	if len(body) > MaxObjectBytes {
		return 0, fmt.Errorf("object %s exceeds %d bytes", storageKey, MaxObjectBytes)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String(DefaultCacheControl),
	}
	if s.kmsKeyID != "" {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAwsKms
		input.SSEKMSKeyId = aws.String(s.kmsKeyID)
	} else {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAes256
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return 0, fmt.Errorf("s3 put bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	return int64(len(body)), nil
}

// Delete removes the object. S3 treats deleting a missing key as success.
func (s *Store) Delete(ctx context.Context, storageKey string) error {
	objectKey, err := s.objectKey(storageKey)
	if err != nil {
		return err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}); err != nil {
		return fmt.Errorf("s3 delete bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	return nil
}

func (s *Store) objectKey(storageKey string) (string, error) {
	key := strings.TrimLeft(strings.TrimSpace(storageKey), "/")
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", object.ErrInvalidKey, storageKey)
	}
	return applyPrefix(s.prefix, key), nil
}

func applyPrefix(prefix, key string) string {
	cleanPrefix := strings.Trim(prefix, "/")
	cleanKey := strings.TrimLeft(key, "/")
	if cleanPrefix == "" {
		return cleanKey
	}
	if cleanKey == "" {
		return cleanPrefix
	}
	return cleanPrefix + "/" + cleanKey
}

var _ object.ObjectStore = (*Store)(nil)
