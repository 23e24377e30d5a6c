// Package blob archives oversized RawJob payloads outside Postgres, adapted
// from the teacher's pkg/storage.S3LogStore/LocalLogStore pair (same
// bucket/prefix/local-cache shape, repointed from per-execution logs to
// per-raw-job documents keyed by BlobKey instead of executionID).
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Store archives a raw payload and returns a BlobKey, and fetches one back
// by that key. A RawJob whose serialized size exceeds the configured
// threshold gets its RawPayload column emptied in favor of a blob key
// (spec.md's discovery-and-ingest design notes on oversized documents).
type Store interface {
	Put(ctx context.Context, key string, payload []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// S3Store stores blobs in S3-compatible storage (AWS S3, or MinIO via a
// custom endpoint), with an optional local read-through cache.
type S3Store struct {
	client     *s3.Client
	bucket     string
	prefix     string
	localCache string
}

type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	LocalCacheDir   string
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	optFns := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		optFns = append(optFns, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), optFns...)
	if err != nil {
		return nil, fmt.Errorf("blob: load aws config: %w", err)
	}

	clientOpts := []func(*s3.Options){}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	client := s3.NewFromConfig(awsCfg, clientOpts...)

	if cfg.LocalCacheDir != "" {
		if err := os.MkdirAll(cfg.LocalCacheDir, 0755); err != nil {
			return nil, fmt.Errorf("blob: create cache dir: %w", err)
		}
	}

	return &S3Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix, localCache: cfg.LocalCacheDir}, nil
}

// BuildKey generates a time-sharded key for a raw job document, mirroring
// the teacher's buildKey shape for executions.
func BuildKey(prefix, rawJobID string) string {
	timestamp := time.Now().Format("2006/01/02")
	return fmt.Sprintf("%s%s/%s.json", prefix, timestamp, rawJobID)
}

func (s *S3Store) Put(ctx context.Context, key string, payload []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.prefix + key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("blob: put object: %w", err)
	}
	if s.localCache != "" {
		cachePath := filepath.Join(s.localCache, filepath.Base(key))
		_ = os.WriteFile(cachePath, payload, 0644)
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	if s.localCache != "" {
		cachePath := filepath.Join(s.localCache, filepath.Base(key))
		if data, err := os.ReadFile(cachePath); err == nil {
			return data, nil
		}
	}

	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + key),
	})
	if err != nil {
		return nil, fmt.Errorf("blob: get object: %w", err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("blob: read object body: %w", err)
	}
	if s.localCache != "" {
		cachePath := filepath.Join(s.localCache, filepath.Base(key))
		_ = os.WriteFile(cachePath, data, 0644)
	}
	return data, nil
}

// LocalStore stores blobs on the local filesystem, used when no S3
// credentials are configured (development / single-node runs).
type LocalStore struct {
	basePath string
}

func NewLocalStore(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("blob: create local store dir: %w", err)
	}
	return &LocalStore{basePath: basePath}, nil
}

func (l *LocalStore) Put(ctx context.Context, key string, payload []byte) error {
	path := filepath.Join(l.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("blob: create parent dirs: %w", err)
	}
	if err := os.WriteFile(path, payload, 0644); err != nil {
		return fmt.Errorf("blob: write local blob: %w", err)
	}
	return nil
}

func (l *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	path := filepath.Join(l.basePath, filepath.FromSlash(key))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("blob: read local blob: %w", err)
	}
	return data, nil
}

var (
	_ Store = (*S3Store)(nil)
	_ Store = (*LocalStore)(nil)
)
