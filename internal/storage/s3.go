package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ThienHoan/Web-TramHuong-sub001/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads to an S3-compatible bucket.
type S3Store struct {
	client  putObjectAPI
	bucket  string
	baseURL string
	log     *zap.Logger
}

// NewS3Store builds an S3 client from the storage config. Static credentials
// are used when both keys are set, otherwise the default AWS chain applies.
func NewS3Store(cfg config.Config, log *zap.Logger) (*S3Store, error) {
	sc := cfg.Storage
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(sc.Region),
	}
	if sc.AccessKeyID != "" && sc.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(sc.AccessKeyID, sc.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if sc.Endpoint != "" {
			o.BaseEndpoint = aws.String(sc.Endpoint)
		}
		o.UsePathStyle = sc.UsePathStyle
	})

	return newS3Store(client, sc, log), nil
}

func newS3Store(client putObjectAPI, sc config.StorageConfig, log *zap.Logger) *S3Store {
	return &S3Store{
		client:  client,
		bucket:  sc.Bucket,
		baseURL: publicBaseURL(sc),
		log:     log.Named("storage.s3"),
	}
}

func (s *S3Store) Upload(ctx context.Context, obj Object) (string, error) {
	key := strings.TrimLeft(strings.TrimSpace(obj.Key), "/")
	if key == "" {
		return "", ErrEmptyKey
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   obj.Body,
	}
	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}
	if obj.Size >= 0 {
		input.ContentLength = aws.Int64(obj.Size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("upload object %q: %w", key, err)
	}

	s.log.Debug("object uploaded", zap.String("bucket", s.bucket), zap.String("key", key))
	return s.baseURL + "/" + escapeKey(key), nil
}

// publicBaseURL resolves the prefix under which uploaded keys are served.
func publicBaseURL(sc config.StorageConfig) string {
	if sc.PublicBaseURL != "" {
		return sc.PublicBaseURL + "/" + sc.Bucket
	}
	if sc.Endpoint != "" {
		return strings.TrimRight(sc.Endpoint, "/") + "/" + sc.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", sc.Bucket, sc.Region)
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
