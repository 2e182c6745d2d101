// Package results fetches job output payloads from their declared output
// locations. Jobs on the cluster write results either to the shared
// filesystem or to an s3:// location.
package results

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

// Store reads result payloads by location. Locations starting with s3://
// are fetched from object storage, everything else from the shared
// filesystem.
type Store struct {
	s3Client *s3.Client
}

// NewStore creates a result store. The S3 client is built from the ambient
// AWS configuration.
func NewStore(ctx context.Context, region string) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS configuration")
	}
	return &Store{s3Client: s3.NewFromConfig(cfg)}, nil
}

// NewFilesystemStore creates a store without object storage access; s3://
// locations will fail to fetch.
func NewFilesystemStore() *Store {
	return &Store{}
}

// Fetch reads the payload at the given location.
func (s *Store) Fetch(ctx context.Context, location string) ([]byte, error) {
	if strings.HasPrefix(location, "s3://") {
		return s.fetchS3(ctx, location)
	}

	payload, err := os.ReadFile(location)
	return payload, errors.Wrapf(err, "failed to read result %s", location)
}

func (s *Store) fetchS3(ctx context.Context, location string) ([]byte, error) {
	if s.s3Client == nil {
		return nil, errors.Errorf("no object storage client configured for %s", location)
	}

	bucket, key, err := splitS3URI(location)
	if err != nil {
		return nil, err
	}

	output, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch result %s", location)
	}
	defer output.Body.Close()

	payload, err := io.ReadAll(output.Body)
	return payload, errors.Wrapf(err, "failed to read result %s", location)
}

func splitS3URI(uri string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.Errorf("malformed s3 location: %s", uri)
	}
	return parts[0], parts[1], nil
}
