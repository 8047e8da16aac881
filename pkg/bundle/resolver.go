package bundle

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Resolver maps a bundle reference onto a local file path.
type Resolver struct {
	s3 *S3Fetcher
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithS3 enables s3:// references.
func WithS3(f *S3Fetcher) ResolverOption {
	return func(r *Resolver) {
		r.s3 = f
	}
}

// NewResolver creates a resolver. Without options only local paths are
// accepted.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns a local path for ref. Local paths must exist;
// s3://bucket/key references are downloaded to the fetcher's cache
// directory and the cached path is returned.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("bundle: empty reference")
	}

	if bucket, key, ok := splitS3Ref(ref); ok {
		if r.s3 == nil {
			return "", fmt.Errorf("bundle: %q is an S3 reference but no S3 client is configured", ref)
		}
		return r.s3.Fetch(ctx, bucket, key)
	}

	info, err := os.Stat(ref)
	if err != nil {
		return "", fmt.Errorf("bundle: %q: %w", ref, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("bundle: %q is a directory, expected the built server bundle file", ref)
	}
	return ref, nil
}

// splitS3Ref parses s3://bucket/key into its parts.
func splitS3Ref(ref string) (bucket, key string, ok bool) {
	const scheme = "s3://"
	if !strings.HasPrefix(ref, scheme) {
		return "", "", false
	}
	rest := strings.TrimPrefix(ref, scheme)
	i := strings.IndexByte(rest, '/')
	if i <= 0 || i == len(rest)-1 {
		return "", "", false
	}
	return rest[:i], rest[i+1:], true
}
