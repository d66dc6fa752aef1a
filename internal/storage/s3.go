package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Store persists image assets in an S3 bucket. Objects are publicly
// readable through baseURL; the store itself applies no access control.
type S3Store struct {
	api     *s3.Client
	bucket  string
	baseURL string
}

// NewS3Store initialises an S3Store from the environment. Besides the
// standard AWS variables it honours:
//   - S3_ENDPOINT: alternative S3-compatible endpoint (host:port or URL).
//   - S3_ACCESS_KEY / S3_SECRET_KEY: static credentials.
//   - S3_REGION (default "us-east-1").
//   - S3_FORCE_PATH_STYLE (bool; default true when an endpoint is set).
func NewS3Store(ctx context.Context, bucket, baseURL string) (*S3Store, error) {
	if bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if baseURL == "" {
		return nil, errors.New("s3 public base url is required")
	}

	region := os.Getenv("S3_REGION")
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
		awsconfig.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
	}
	if accessKey := os.Getenv("S3_ACCESS_KEY"); accessKey != "" {
		secretKey := os.Getenv("S3_SECRET_KEY")
		loadOpts = append(loadOpts,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimSpace(os.Getenv("S3_ENDPOINT"))
	pathStyle := endpoint != ""
	if v := os.Getenv("S3_FORCE_PATH_STYLE"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			pathStyle = parsed
		}
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = pathStyle
		if endpoint != "" {
			if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
				endpoint = "https://" + endpoint
			}
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return &S3Store{
		api:     client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *S3Store) Save(ctx context.Context, up Upload) (string, error) {
	name := uuid.New().String() + strings.ToLower(filepath.Ext(up.Filename))

	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &name,
		Body:          up.Reader,
		ContentLength: &up.Size,
		ContentType:   &up.ContentType,
	})
	if err != nil {
		return "", err
	}
	return name, nil
}

func (s *S3Store) Delete(ctx context.Context, filename string) error {
	// DeleteObject succeeds for absent keys, which matches the idempotency
	// contract of Store.
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &filename,
	})
	return err
}

func (s *S3Store) Resolve(filename string) string {
	return fmt.Sprintf("%s/%s", s.baseURL, filename)
}
