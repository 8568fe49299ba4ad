package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store uploads images to an S3 bucket and hands back the public URL they
// are served from.
type S3Store struct {
	client         *s3.Client
	bucket         string
	publicEndpoint *url.URL
}

func NewS3Store(client *s3.Client, bucket, publicBaseURL string) (*S3Store, error) {
	base, err := url.Parse(publicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse public base url: %w", err)
	}
	return &S3Store{client: client, bucket: bucket, publicEndpoint: base}, nil
}

func (s *S3Store) Save(ctx context.Context, name, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", name, err)
	}
	u := *s.publicEndpoint
	u.Path = path.Join(u.Path, name)
	return u.String(), nil
}
