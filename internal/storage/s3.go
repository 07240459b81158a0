package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"golang.org/x/time/rate"

	appconfig "optioncatalog/config"
	"optioncatalog/logger"
)

// S3API is the subset of the S3 client the blob uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Blob stores objects in a bucket under an optional prefix. Every request
// waits on a shared token bucket.
type S3Blob struct {
	client  S3API
	bucket  string
	prefix  string
	limiter *rate.Limiter
	timeout time.Duration
	meta    map[string]string
	log     *logger.Log
}

// NewS3Blob builds an S3 client from the storage configuration.
func NewS3Blob(ctx context.Context, cfg appconfig.S3Config, version string) (*S3Blob, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	b := NewS3BlobWithClient(client, cfg.Bucket, cfg.Prefix, cfg.RequestsPerSecond, cfg.Burst)
	if cfg.Timeout > 0 {
		b.timeout = cfg.Timeout
	}
	b.meta["catalog-version"] = version
	return b, nil
}

// NewS3BlobWithClient wires an existing client, e.g. a fake in tests.
func NewS3BlobWithClient(client S3API, bucket, prefix string, rps float64, burst int) *S3Blob {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &S3Blob{
		client:  client,
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
		limiter: rate.NewLimiter(limit, burst),
		timeout: 2 * time.Minute,
		meta:    map[string]string{"content-type": "parquet"},
		log:     logger.GetLogger(),
	}
}

func (b *S3Blob) key(k string) string {
	if b.prefix == "" {
		return k
	}
	return b.prefix + "/" + k
}

func (b *S3Blob) wait(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("s3 rate limiter: %w", err)
	}
	c, cancel := context.WithTimeout(ctx, b.timeout)
	return c, cancel, nil
}

func (b *S3Blob) Write(ctx context.Context, key string, data []byte) error {
	ctx, cancel, err := b.wait(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	input := &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(b.key(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
		Metadata:    b.meta,
	}
	if _, err := b.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	b.log.WithComponent("storage").WithFields(logger.Fields{
		"bucket": b.bucket,
		"key":    b.key(key),
		"size":   len(data),
	}).Debug("object uploaded")
	return nil
}

func (b *S3Blob) Read(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel, err := b.wait(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(key)),
	})
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("read %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	return data, nil
}

func (b *S3Blob) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	p := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(b.key(prefix)),
	})
	strip := ""
	if b.prefix != "" {
		strip = b.prefix + "/"
	}
	for p.HasMorePages() {
		pctx, cancel, err := b.wait(ctx)
		if err != nil {
			return nil, err
		}
		page, err := p.NextPage(pctx)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(obj.Key), strip))
		}
	}
	return keys, nil
}

// notFound reports a missing object. S3 compatible stores do not always
// return the typed NoSuchKey, only the error code.
func notFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
