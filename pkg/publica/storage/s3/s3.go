package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/publica-dev/publica/pkg/publica"
	"github.com/publica-dev/publica/pkg/publica/objectkey"
)

// Config options for the S3 image store
type Config struct {
	Region          string // AWS region
	Bucket          string // S3 bucket name
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (default: false)

	// PublicBaseURL overrides the derived public URL prefix (e.g. a CDN
	// in front of the bucket). Objects are addressed as
	// {PublicBaseURL}/{key}.
	PublicBaseURL string

	// ContentType stored on uploaded objects (default: image/jpeg)
	ContentType string

	// KeyGenerator controls object key layout (default: flat
	// {folder}/{uuid}.jpg)
	KeyGenerator objectkey.Generator

	// MinIO/S3-compatible service options
	CreateBucketIfNotExist bool
}

// Store is an S3-compatible implementation of the publica.ImageStore
// interface. Uploaded objects are marked publicly readable and addressed by
// a deterministic HTTPS URL derived from bucket, region/endpoint and key.
type Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
	keys    objectkey.Generator
	config  Config
	logger  *slog.Logger
}

// New creates a new S3-compatible image store
func New(config Config) (*Store, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	if config.Region == "" {
		config.Region = "us-east-1"
	}
	if config.ContentType == "" {
		config.ContentType = "image/jpeg"
	}
	if config.KeyGenerator == nil {
		config.KeyGenerator = objectkey.NewRecommendedGenerator()
	}

	var awsCfg aws.Config
	var err error

	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				config.AccessKeyID,
				config.SecretAccessKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
		)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)

	store := &Store{
		client:  client,
		bucket:  config.Bucket,
		baseURL: publicBaseURL(config),
		keys:    config.KeyGenerator,
		config:  config,
		logger:  slog.Default(),
	}

	if config.CreateBucketIfNotExist {
		if err := store.createBucketIfNotExists(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return store, nil
}

// publicBaseURL derives the URL prefix public objects are served from.
func publicBaseURL(config Config) string {
	if config.PublicBaseURL != "" {
		return strings.TrimSuffix(config.PublicBaseURL, "/")
	}
	if config.Endpoint != "" {
		// S3-compatible services serve objects path-style under the
		// endpoint.
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(config.Endpoint, "/"), config.Bucket)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", config.Bucket, config.Region)
}

// createBucketIfNotExists creates the bucket if it doesn't exist
func (s *Store) createBucketIfNotExists(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) &&
		!strings.Contains(err.Error(), "BadRequest") &&
		!strings.Contains(err.Error(), "NoSuchBucket") {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	createInput := &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	}
	if s.config.Region != "us-east-1" {
		createInput.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.config.Region),
		}
	}

	_, err = s.client.CreateBucket(ctx, createInput)
	if err != nil {
		if strings.Contains(err.Error(), "BucketAlreadyExists") ||
			strings.Contains(err.Error(), "BucketAlreadyOwnedByYou") {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}

// Upload stores the image under a generated key inside folder, marks it
// publicly readable and returns its retrieval URL.
func (s *Store) Upload(ctx context.Context, data []byte, folder string) (string, error) {
	key := s.keys.GenerateKey(folder)

	uploader := manager.NewUploader(s.client)
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(s.config.ContentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", &publica.StorageError{Backend: "s3", Key: key, Op: "upload", Err: err}
	}

	return fmt.Sprintf("%s/%s", s.baseURL, key), nil
}

// Delete removes the object the URL points at. Failures (including URLs this
// store does not recognize) are reported as false and logged, never
// propagated.
func (s *Store) Delete(ctx context.Context, imageURL string) bool {
	key, err := s.keyFromURL(imageURL)
	if err != nil {
		s.logger.Warn("cannot derive object key from image url", "image_url", imageURL, "error", err)
		return false
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			s.logger.Warn("image object delete failed",
				"key", key, "code", apiErr.ErrorCode(), "error", apiErr.ErrorMessage())
		} else {
			s.logger.Warn("image object delete failed", "key", key, "error", err)
		}
		return false
	}

	return true
}

// keyFromURL reverses the URL derivation done at upload time.
func (s *Store) keyFromURL(imageURL string) (string, error) {
	if rest, ok := strings.CutPrefix(imageURL, s.baseURL+"/"); ok && rest != "" {
		return rest, nil
	}

	// Fall back to locating the bucket segment in the path, which also
	// covers URLs minted under a different addressing style.
	u, err := url.Parse(imageURL)
	if err != nil {
		return "", fmt.Errorf("invalid image url: %w", err)
	}
	path := strings.TrimPrefix(u.Path, "/")
	if rest, ok := strings.CutPrefix(path, s.bucket+"/"); ok && rest != "" {
		return rest, nil
	}
	if strings.HasPrefix(u.Host, s.bucket+".") && path != "" {
		return path, nil
	}

	return "", fmt.Errorf("url does not address bucket %s", s.bucket)
}
