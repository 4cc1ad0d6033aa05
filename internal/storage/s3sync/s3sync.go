// Package s3sync uploads the written output tree to an S3 bucket.
//
// The pipeline always writes locally first; when a bucket is configured
// the finished tree is mirrored object-for-object after the run. The S3
// client is built once at process start from static access-key credentials
// in the run configuration (no teardown needed).
package s3sync

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"songlake/internal/config"
)

// Syncer mirrors a local directory tree into an S3 bucket.
type Syncer struct {
	client *s3.Client
	bucket string
	prefix string
	log    *slog.Logger
}

// New builds a Syncer from the run configuration.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Syncer, error) {
	creds := credentials.NewStaticCredentialsProvider(
		cfg.AWS.AccessKeyID,
		cfg.AWS.SecretAccessKey,
		"",
	)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWS.Region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var client *s3.Client
	if cfg.AWS.EndpointURL != "" {
		endpoint := cfg.AWS.EndpointURL
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
			o.UsePathStyle = true // MinIO and similar services
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return &Syncer{
		client: client,
		bucket: cfg.AWS.Bucket,
		prefix: cfg.AWS.KeyPrefix,
		log:    log,
	}, nil
}

// SyncDir uploads every regular file under root, keyed by its path
// relative to root (with the configured prefix prepended). Returns the
// number of objects uploaded.
func (s *Syncer) SyncDir(ctx context.Context, root string) (int, error) {
	uploaded := 0
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		key := path.Join(s.prefix, filepath.ToSlash(rel))

		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("open %s: %w", p, err)
		}
		defer f.Close()

		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: &s.bucket,
			Key:    &key,
			Body:   f,
		})
		if err != nil {
			return fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
		}
		uploaded++
		s.log.Debug("uploaded", "key", key)
		return nil
	})
	if err != nil {
		return uploaded, err
	}
	return uploaded, nil
}
