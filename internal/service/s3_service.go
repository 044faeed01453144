package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sony/gobreaker/v2"

	"document-ingestion-service/config"
	"document-ingestion-service/internal/metrics"
	"document-ingestion-service/internal/model"
	"document-ingestion-service/internal/util"
)

const (
	breakerConsecutiveFailures = 5
	breakerOpenTimeout         = 30 * time.Second
)

// S3Service : storage gateway backed by S3 or any S3 compatible store (MinIO locally)
type S3Service struct {
	client   *s3.Client
	bucket   string
	psClient *s3.PresignClient
	breaker  *gobreaker.CircuitBreaker[any]
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewS3Service(ctx context.Context, cfg *config.S3Config, m *metrics.Metrics) (*S3Service, error) {
	var client *s3.Client

	if cfg.Local {
		accessKey, secretKey := cfg.AccessKey, cfg.SecretKey
		if accessKey == "" {
			accessKey, secretKey = "minioadmin", "minioadmin"
		}
		client = s3.New(s3.Options{
			Region:       cfg.Region,
			Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
			BaseEndpoint: aws.String(cfg.Endpoint),
			UsePathStyle: true,
		})

		if err := createBucketIfNotExists(ctx, client, cfg.Bucket); err != nil {
			return nil, util.LogError("[S3Service] create bucket", err)
		}
	} else {
		loaders := []func(*awsConfig.LoadOptions) error{awsConfig.WithRegion(cfg.Region)}
		if cfg.AccessKey != "" {
			loaders = append(loaders, awsConfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
			))
		}
		awsCfg, err := awsConfig.LoadDefaultConfig(ctx, loaders...)
		if err != nil {
			return nil, util.LogError("[S3Service] load AWS config", err)
		}
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
				o.UsePathStyle = true
			}
		})
	}

	return newS3Service(client, cfg.Bucket, m), nil
}

func newS3Service(client *s3.Client, bucket string, m *metrics.Metrics) *S3Service {
	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "object-storage",
		Timeout: breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("[S3Service] circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &S3Service{
		client:   client,
		bucket:   bucket,
		psClient: s3.NewPresignClient(client),
		breaker:  breaker,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func createBucketIfNotExists(ctx context.Context, client *s3.Client, bucket string) error {
	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err == nil {
		return nil
	}

	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return err
	}

	slog.Info("[S3Service] bucket created", "bucket", bucket)
	return nil
}

// call : runs fn through the breaker and records its latency
func (s *S3Service) call(operation string, fn func() (any, error)) (any, error) {
	start := time.Now()
	result, err := s.breaker.Execute(fn)
	s.metrics.ObserveStorageCall(operation, err, time.Since(start))
	return result, err
}

// SignUpload : presigned PUT bound to contentType
func (s *S3Service) SignUpload(ctx context.Context, path, contentType string, ttl time.Duration) (*model.SignedURL, error) {
	expiresAt := s.now().Add(ttl)
	result, err := s.call("sign_upload", func() (any, error) {
		return s.psClient.PresignPutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(path),
			ContentType: aws.String(contentType),
		}, func(opts *s3.PresignOptions) {
			opts.Expires = ttl
		})
	})
	if err != nil {
		return nil, util.LogError("[S3Service] presign PUT url", err)
	}

	return &model.SignedURL{URL: result.(*v4.PresignedHTTPRequest).URL, ExpiresAt: expiresAt}, nil
}

// SignDownload : presigned GET
func (s *S3Service) SignDownload(ctx context.Context, path string, ttl time.Duration) (*model.SignedURL, error) {
	expiresAt := s.now().Add(ttl)
	result, err := s.call("sign_download", func() (any, error) {
		return s.psClient.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(path),
		}, func(opts *s3.PresignOptions) {
			opts.Expires = ttl
		})
	})
	if err != nil {
		return nil, util.LogError("[S3Service] presign GET url", err)
	}

	return &model.SignedURL{URL: result.(*v4.PresignedHTTPRequest).URL, ExpiresAt: expiresAt}, nil
}

// StatObject : returns nil, nil when the store answers HEAD with any 4xx
func (s *S3Service) StatObject(ctx context.Context, path string) (*model.ObjectInfo, error) {
	result, err := s.call("stat", func() (any, error) {
		out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(path),
		})
		if err != nil {
			if isClientError(err) {
				return (*model.ObjectInfo)(nil), nil
			}
			return nil, err
		}
		return &model.ObjectInfo{
			SizeBytes:   aws.ToInt64(out.ContentLength),
			ContentType: aws.ToString(out.ContentType),
		}, nil
	})
	if err != nil {
		return nil, util.LogError("[S3Service] head object", err)
	}

	return result.(*model.ObjectInfo), nil
}

// DeletePrefix : removes every object under prefix, one DeleteObjects call per listed page
func (s *S3Service) DeletePrefix(ctx context.Context, prefix string) error {
	_, err := s.call("delete_prefix", func() (any, error) {
		paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
			Bucket: aws.String(s.bucket),
			Prefix: aws.String(prefix),
		})

		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, fmt.Errorf("list objects: %w", err)
			}
			if len(page.Contents) == 0 {
				continue
			}

			objects := make([]types.ObjectIdentifier, 0, len(page.Contents))
			for _, object := range page.Contents {
				objects = append(objects, types.ObjectIdentifier{Key: object.Key})
			}

			out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(s.bucket),
				Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
			})
			if err != nil {
				return nil, fmt.Errorf("delete objects: %w", err)
			}
			if len(out.Errors) > 0 {
				first := out.Errors[0]
				return nil, fmt.Errorf("delete %s: %s", aws.ToString(first.Key), aws.ToString(first.Message))
			}
		}
		return nil, nil
	})
	if err != nil {
		return util.LogError("[S3Service] delete prefix", err)
	}
	return nil
}

func isClientError(err error) bool {
	var responseErr *awshttp.ResponseError
	if !errors.As(err, &responseErr) {
		return false
	}
	status := responseErr.HTTPStatusCode()
	return status >= 400 && status < 500
}
