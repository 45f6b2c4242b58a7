package artifacts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

// S3Config locates the bucket artifacts are uploaded to
type S3Config struct {
	Bucket string `mapstructure:"bucket"`
	Region string `mapstructure:"region"`
	Prefix string `mapstructure:"prefix"`
}

// S3Store uploads artifacts to S3
type S3Store struct {
	uploader s3manageriface.UploaderAPI
	cfg      S3Config
}

// NewS3Store creates an uploader from the default credential chain
func NewS3Store(cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 artifact store requires a bucket")
	}
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}
	return NewS3StoreWithUploader(s3manager.NewUploader(sess), cfg), nil
}

// NewS3StoreWithUploader uses the given uploader
func NewS3StoreWithUploader(uploader s3manageriface.UploaderAPI, cfg S3Config) *S3Store {
	return &S3Store{uploader: uploader, cfg: cfg}
}

// Save uploads data and returns the object location
func (s *S3Store) Save(ctx context.Context, name string, data []byte) (string, error) {
	if name == "" || path.Base(name) != name {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	key := path.Join(s.cfg.Prefix, name)
	result, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return result.Location, nil
}
