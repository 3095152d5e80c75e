// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pdiddy/deep-research/pkg/types"
)

// ObjectPutter is the slice of the S3 client the mirror uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Mirror uploads reports to an S3 (or S3-compatible) bucket.
type S3Mirror struct {
	Client ObjectPutter
	Bucket string
	Prefix string
}

// NewS3Mirror builds a mirror from the default AWS credential chain.
func NewS3Mirror(ctx context.Context, cfg types.ReportConfig) (*S3Mirror, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, config.WithRegion(cfg.S3Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3PathStyle
	})
	return &S3Mirror{Client: client, Bucket: cfg.S3Bucket, Prefix: cfg.S3Prefix}, nil
}

// Upload stores data under Prefix/name.
func (m *S3Mirror) Upload(ctx context.Context, name string, data []byte, contentType string) error {
	key := name
	if m.Prefix != "" {
		key = path.Join(m.Prefix, name)
	}
	_, err := m.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", m.Bucket, key, err)
	}
	return nil
}
