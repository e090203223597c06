package media

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store 保存到S3，返回的路径是对象key
type S3Store struct {
	client     *s3.Client
	bucketName string
	prefix     string
}

var _ Store = (*S3Store)(nil)

// NewS3Store 从环境加载AWS配置（AWS_REGION、凭证链等）
func NewS3Store(ctx context.Context, bucketName, prefix string) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &S3Store{
		client:     s3.NewFromConfig(cfg),
		bucketName: bucketName,
		prefix:     prefix,
	}, nil
}

func (s *S3Store) StorePending(ctx context.Context, data []byte, declaredMimeType string) (string, error) {
	name, err := fileName(data, declaredMimeType)
	if err != nil {
		return "", err
	}
	key := s.prefix + name
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(declaredMimeType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return key, nil
}

// S3的DeleteObject对不存在的key也返回成功，天然幂等
func (s *S3Store) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}
