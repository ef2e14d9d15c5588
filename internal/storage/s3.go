package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const defaultRegion = "us-east-1"

// putObjectAPI is the subset of *s3.Client used by S3.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 uploads each object on Close. Objects are buffered in memory until then.
type S3 struct {
	client putObjectAPI
	bucket string
	prefix string
}

// NewS3 loads AWS configuration. Static credentials are used when both keys are set; otherwise the default chain (env, shared config, IAM role) applies.
func NewS3(ctx context.Context, cfg Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage: s3 sink requires a bucket")
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3WithClient(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3WithClient(client putObjectAPI, bucket, prefix string) *S3 {
	return &S3{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	return &s3Object{ctx: ctx, sink: s, key: s.key(name)}, nil
}

func (s *S3) Location(name string) string {
	return "s3://" + s.bucket + "/" + s.key(name)
}

func (s *S3) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

type s3Object struct {
	ctx    context.Context
	sink   *S3
	key    string
	buf    bytes.Buffer
	closed bool
}

func (o *s3Object) Write(p []byte) (int, error) {
	if o.closed {
		return 0, errors.New("storage: write to closed object")
	}
	return o.buf.Write(p)
}

func (o *s3Object) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true
	_, err := o.sink.client.PutObject(o.ctx, &s3.PutObjectInput{
		Bucket:      aws.String(o.sink.bucket),
		Key:         aws.String(o.key),
		Body:        bytes.NewReader(o.buf.Bytes()),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("storage: upload s3://%s/%s: %w", o.sink.bucket, o.key, err)
	}
	return nil
}
