package storage

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// S3Client uploads finished export artifacts to S3 so downstream tooling
// can pick them up for board import.
type S3Client struct {
	uploader   *manager.Uploader
	bucketName string
}

// NewS3Client creates a new S3 client using the default credential chain.
func NewS3Client(ctx context.Context, bucketName string) (*S3Client, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	cli := s3.NewFromConfig(cfg)
	return &S3Client{
		uploader:   manager.NewUploader(cli),
		bucketName: bucketName,
	}, nil
}

// UploadFile puts a local file under the given key prefix, keyed by its
// base name. Returns the s3:// URL of the uploaded object.
func (s *S3Client) UploadFile(ctx context.Context, prefix, localPath string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", localPath, err)
	}

	key := path.Join(prefix, filepath.Base(localPath))
	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	url := fmt.Sprintf("s3://%s/%s", s.bucketName, key)
	log.Info().
		Str("key", key).
		Int("size", len(data)).
		Str("content_type", contentType).
		Msg("uploaded artifact to S3")
	return url, nil
}

// UploadAll uploads every file in order under the prefix, stopping at the
// first failure. Returns the uploaded URLs.
func (s *S3Client) UploadAll(ctx context.Context, prefix string, files []string) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := s.UploadFile(ctx, prefix, f)
		if err != nil {
			return urls, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// SanitizePrefix builds a safe key prefix from a base prefix and job ID.
func SanitizePrefix(base, jobID string) string {
	base = strings.Trim(base, "/")
	if base == "" {
		return jobID
	}
	return base + "/" + jobID
}
