package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// ExportStore uploads generated CSV exports to S3 and hands back public URLs.
type ExportStore struct {
	client *s3.Client
	bucket string
	region string
}

func NewExportStore(ctx context.Context, bucket, region string) (*ExportStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %v", err)
	}

	return &ExportStore{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		region: region,
	}, nil
}

// UploadCSV stores the export under exports/<name>/<date>-<uuid>.csv.
func (s *ExportStore) UploadCSV(ctx context.Context, name string, data []byte) (string, error) {
	key := fmt.Sprintf("exports/%s/%s-%s.csv",
		slug.Make(name),
		time.Now().Format("2006-01-02-150405"),
		uuid.New().String(),
	)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("could not upload to S3: %v", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}
