// Package storage publishes export artifacts to S3-compatible object
// storage.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/JonMunkholm/authorworks/internal/config"
)

// API is the part of the S3 client the publisher uses.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// NewClient builds an S3 client from cfg. A custom endpoint switches to
// path-style addressing, which most S3-compatible stores expect.
func NewClient(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Publisher uploads finished files under a prefix and keeps the newest
// Keep copies of each file name.
type Publisher struct {
	Client API
	Bucket string
	Prefix string
	Keep   int

	// Now stamps object keys; nil means time.Now.
	Now func() time.Time
}

// NewPublisher returns a publisher for cfg using client.
func NewPublisher(client API, cfg config.S3Config) *Publisher {
	return &Publisher{Client: client, Bucket: cfg.Bucket, Prefix: cfg.Prefix, Keep: cfg.Keep}
}

// ObjectKey returns the key a file is stored under at time t:
// prefix + UTC timestamp + "-" + base name.
func (p *Publisher) ObjectKey(path string, t time.Time) string {
	return p.Prefix + t.UTC().Format("20060102T150405Z") + "-" + filepath.Base(path)
}

// Publish uploads the file at path and prunes older copies. It returns the
// s3:// location of the new object. A failed prune is logged, not returned.
func (p *Publisher) Publish(ctx context.Context, path string) (string, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	key := p.ObjectKey(path, now())

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	_, err = p.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(p.Bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	slog.Info("artifact published", "bucket", p.Bucket, "key", key)

	if p.Keep > 0 {
		if err := p.prune(ctx, filepath.Base(path)); err != nil {
			slog.Warn("artifact prune failed", "bucket", p.Bucket, "error", err)
		}
	}
	return "s3://" + p.Bucket + "/" + key, nil
}

// prune deletes copies of base beyond the newest Keep.
func (p *Publisher) prune(ctx context.Context, base string) error {
	var objects []types.Object
	pages := s3.NewListObjectsV2Paginator(p.Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(p.Bucket),
		Prefix: aws.String(p.Prefix),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("list artifacts: %w", err)
		}
		objects = append(objects, page.Contents...)
	}

	for _, key := range Expired(objects, base, p.Keep) {
		_, err := p.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(p.Bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			slog.Warn("delete artifact failed", "key", key, "error", err)
			continue
		}
		slog.Info("old artifact deleted", "key", key)
	}
	return nil
}

// Expired returns the keys of copies of base that fall outside the newest
// keep, newest first. Objects for other file names are ignored.
func Expired(objects []types.Object, base string, keep int) []string {
	var mine []types.Object
	for _, o := range objects {
		if o.Key != nil && strings.HasSuffix(*o.Key, "-"+base) {
			mine = append(mine, o)
		}
	}
	if keep <= 0 || len(mine) <= keep {
		return nil
	}

	// Keys embed the upload time, so they order correctly even when the
	// store reports no modification time.
	sort.Slice(mine, func(i, j int) bool {
		ti, tj := aws.ToTime(mine[i].LastModified), aws.ToTime(mine[j].LastModified)
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return aws.ToString(mine[i].Key) > aws.ToString(mine[j].Key)
	})

	keys := make([]string, 0, len(mine)-keep)
	for _, o := range mine[keep:] {
		keys = append(keys, *o.Key)
	}
	return keys
}
