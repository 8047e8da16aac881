package bundle

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used by the fetcher.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher downloads bundle artifacts from S3 into a local cache
// directory.
//
// Example:
//
//	cfg, _ := config.LoadDefaultConfig(context.Background())
//	fetcher := bundle.NewS3Fetcher(s3.NewFromConfig(cfg), ".vuego/cache")
//	resolver := bundle.NewResolver(bundle.WithS3(fetcher))
type S3Fetcher struct {
	client   S3API
	cacheDir string
}

// NewS3Fetcher creates a fetcher caching downloads under cacheDir.
func NewS3Fetcher(client S3API, cacheDir string) *S3Fetcher {
	return &S3Fetcher{client: client, cacheDir: cacheDir}
}

// Fetch downloads s3://bucket/key into the cache and returns the local
// path. The download goes through a temp file so a partial write never
// shows up as a usable bundle.
func (f *S3Fetcher) Fetch(ctx context.Context, bucket, key string) (string, error) {
	if err := os.MkdirAll(f.cacheDir, 0755); err != nil {
		return "", fmt.Errorf("bundle: creating cache dir: %w", err)
	}

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("bundle: fetching s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	dest := filepath.Join(f.cacheDir, filepath.Base(key))
	tmp, err := os.CreateTemp(f.cacheDir, ".bundle-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, out.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("bundle: downloading s3://%s/%s: %w", bucket, key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", err
	}
	return dest, nil
}
