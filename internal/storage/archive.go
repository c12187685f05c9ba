package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/burnout-monitor/internal/domain"
)

// S3PutAPI is the subset of the S3 client used by S3Archiver.
type S3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver writes each persisted prediction to S3 as a JSON report.
// It implements prediction.Observer.
type S3Archiver struct {
	api    S3PutAPI
	bucket string
}

// NewS3Archiver creates an archiver writing to bucket.
func NewS3Archiver(api S3PutAPI, bucket string) *S3Archiver {
	return &S3Archiver{api: api, bucket: bucket}
}

// NewS3ArchiverFromConfig creates an archiver with a client built from cfg.
func NewS3ArchiverFromConfig(cfg aws.Config, bucket string) *S3Archiver {
	return NewS3Archiver(s3.NewFromConfig(cfg), bucket)
}

func (a *S3Archiver) Name() string { return "s3-archive" }

// ArchiveKey returns the object key for p.
func ArchiveKey(p *domain.PredictionResult) string {
	return fmt.Sprintf("predictions/%s/%s/%s.json",
		p.Timestamp.UTC().Format("2006/01/02"), p.SubjectID, p.ID)
}

// PredictionCreated saves p to S3.
func (a *S3Archiver) PredictionCreated(ctx context.Context, p *domain.PredictionResult) error {
	jsonData, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling data: %w", err)
	}

	_, err = a.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(ArchiveKey(p)),
		Body:        bytes.NewReader(jsonData),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("putting object to S3 bucket %s: %w", a.bucket, err)
	}
	return nil
}
