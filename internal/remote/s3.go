package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/dukerupert/notesync/internal/apperr"
	"github.com/dukerupert/notesync/internal/model"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadBucket(ctx context.Context, input *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// Configured reports whether enough settings are present to build a client.
func (c S3Config) Configured() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// S3Store keeps note documents as objects in an S3-compatible bucket.
type S3Store struct {
	client s3Client
	bucket string
	ids    IdentitySource
	logger *slog.Logger
}

// NewS3Store creates a store backed by the bucket in cfg.
func NewS3Store(cfg S3Config, ids IdentitySource, logger *slog.Logger) *S3Store {
	return newS3StoreWithClient(newS3Client(cfg), cfg.Bucket, ids, logger)
}

func newS3StoreWithClient(client s3Client, bucket string, ids IdentitySource, logger *slog.Logger) *S3Store {
	return &S3Store{client: client, bucket: bucket, ids: ids, logger: logger}
}

func newS3Client(cfg S3Config) *s3.Client {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := s3.Options{
		Region:       region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func (s *S3Store) Upload(ctx context.Context, n model.Note) error {
	uid, err := currentUID(s.ids)
	if err != nil {
		return err
	}

	data, err := Encode(n, uid)
	if err != nil {
		return apperr.Sync(apperr.SyncDecode, n.ID, err)
	}

	key := DocumentKey(uid, n.ID)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return apperr.Sync(apperr.SyncNetwork, n.ID, fmt.Errorf("put %s: %w", key, err))
	}

	s.logger.Debug("uploaded note", "id", n.ID, "uid", uid)
	return nil
}

func (s *S3Store) DownloadAll(ctx context.Context) ([]model.Note, error) {
	uid, err := currentUID(s.ids)
	if err != nil {
		return nil, err
	}

	prefix := CollectionPrefix(uid)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var notes []model.Note
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, apperr.Sync(apperr.SyncNetwork, "", fmt.Errorf("list %s: %w", prefix, err))
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.Contains(strings.TrimPrefix(key, prefix), "/") {
				continue
			}

			data, err := s.get(ctx, key)
			if isNotFound(err) {
				// Deleted between list and get.
				continue
			}
			if err != nil {
				return nil, apperr.Sync(apperr.SyncNetwork, "", fmt.Errorf("get %s: %w", key, err))
			}

			n, err := Decode(key, data)
			if err != nil {
				s.logger.Warn("skipping malformed remote note", "key", key, "error", err)
				continue
			}
			notes = append(notes, n)
		}
	}

	s.logger.Debug("downloaded notes", "uid", uid, "count", len(notes))
	return notes, nil
}

func (s *S3Store) get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *S3Store) Delete(ctx context.Context, id string) error {
	uid, err := currentUID(s.ids)
	if err != nil {
		return err
	}

	key := DocumentKey(uid, id)
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return apperr.Sync(apperr.SyncNetwork, id, fmt.Errorf("delete %s: %w", key, err))
	}
	return nil
}

func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return apperr.Sync(apperr.SyncNetwork, "", fmt.Errorf("head bucket %s: %w", s.bucket, err))
	}
	return nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
