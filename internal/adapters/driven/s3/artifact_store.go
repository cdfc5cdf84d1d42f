package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/licitaware/editais-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ArtifactStore = (*ArtifactStore)(nil)

// ArtifactStore uploads debug artifacts (parse dumps, raw LLM responses) to
// an S3 bucket keyed by {userId}/{documentId}/name.
type ArtifactStore struct {
	client *awss3.Client
	bucket string
}

// NewArtifactStore creates an S3-backed artifact store using the default
// credential chain.
func NewArtifactStore(ctx context.Context, bucket, region string) (*ArtifactStore, error) {
	if bucket == "" {
		return nil, errors.New("bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &ArtifactStore{
		client: awss3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

// Put stores body under key with the given content type.
func (s *ArtifactStore) Put(ctx context.Context, key, contentType string, body []byte) error {
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("uploading artifact %s: %w", key, err)
	}
	return nil
}
