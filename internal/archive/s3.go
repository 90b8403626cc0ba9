package archive

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

const uploadPartSize = 16 * 1024 * 1024

type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type S3Uploader struct {
	uploader objectUploader
}

// NewS3Uploader builds an uploader from the shared AWS config. An empty
// profile falls back to $AWS_PROFILE and then the default profile.
func NewS3Uploader(ctx context.Context, profile string) (*S3Uploader, error) {
	if profile == "" {
		profile = os.Getenv("AWS_PROFILE")
	}
	opts := []func(*config.LoadOptions) error{config.WithRetryMode(aws.RetryModeAdaptive)}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %v", err)
	}
	client := s3.NewFromConfig(cfg)
	return &S3Uploader{
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = uploadPartSize
			u.Concurrency = 4
		}),
	}, nil
}

// ParseS3URL splits s3://bucket/prefix into its bucket and key prefix.
func ParseS3URL(url string) (string, string, error) {
	if !strings.HasPrefix(url, "s3://") {
		return "", "", fmt.Errorf("invalid S3 URL %q: must start with s3://", url)
	}
	bucket, prefix, _ := strings.Cut(strings.TrimPrefix(url, "s3://"), "/")
	if bucket == "" {
		return "", "", fmt.Errorf("invalid S3 URL %q: missing bucket", url)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// UploadFiles uploads files under prefix, keyed by their path relative to
// baseDir. It stops at the first error and returns how many were uploaded.
func (u *S3Uploader) UploadFiles(ctx context.Context, bucket, prefix, baseDir string, files []string) (int, error) {
	uploaded := 0
	for _, file := range files {
		key := path.Join(prefix, memberName(baseDir, file))
		if err := u.uploadFile(ctx, bucket, key, file); err != nil {
			return uploaded, err
		}
		uploaded++
		log.Debug().Str("op", "archive/s3").Msgf("uploaded %s to s3://%s/%s", file, bucket, key)
	}
	return uploaded, nil
}

func (u *S3Uploader) uploadFile(ctx context.Context, bucket, key, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("error opening %s: %v", file, err)
	}
	defer f.Close()
	_, err = u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("error uploading %s: %v", file, err)
	}
	return nil
}
