package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ShengNW/interviewer/internal/config"
)

// Client 封装 MinIO 客户端，保存简历的原始上传文档。
// 对象按节点 ID 组织：resume-docs/<nodeID>/<uuid>.pdf。
type Client struct {
	client     *minio.Client
	bucketName string
}

// NewClient 根据配置初始化 MinIO 客户端，并确保目标 Bucket 存在。
func NewClient(cfg config.MinIOConfig) (*Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket %q: %w", cfg.Bucket, err)
		}
	}

	return &Client{
		client:     client,
		bucketName: cfg.Bucket,
	}, nil
}

// DocumentPrefix 返回某个节点全部文档的对象前缀。
func DocumentPrefix(nodeID string) string {
	return fmt.Sprintf("resume-docs/%s/", nodeID)
}

// UploadDocument 上传一份原始文档，返回对象 Key。
func (c *Client) UploadDocument(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (string, error) {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := c.client.PutObject(ctx, c.bucketName, objectKey, reader, size, opts); err != nil {
		return "", fmt.Errorf("put object %q: %w", objectKey, err)
	}
	return objectKey, nil
}

// GeneratePresignedURL 生成对象的限时下载链接。
func (c *Client) GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error) {
	presignedURL, err := c.client.PresignedGetObject(ctx, c.bucketName, objectKey, duration, nil)
	if err != nil {
		return "", fmt.Errorf("generate presigned url for %q: %w", objectKey, err)
	}
	return presignedURL.String(), nil
}

// ListDocuments 列出某个节点前缀下的对象 Key。
func (c *Client) ListDocuments(ctx context.Context, nodeID string) ([]string, error) {
	prefix := DocumentPrefix(nodeID)
	objCh := c.client.ListObjects(ctx, c.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	keys := make([]string, 0, 8)
	for object := range objCh {
		if object.Err != nil {
			return nil, fmt.Errorf("list objects under %q: %w", prefix, object.Err)
		}
		if strings.TrimSpace(object.Key) != "" {
			keys = append(keys, object.Key)
		}
	}
	return keys, nil
}

// DeleteDocuments 删除某个节点前缀下的全部对象。
// 对象已不存在视为成功（幂等）。
func (c *Client) DeleteDocuments(ctx context.Context, nodeID string) error {
	keys, err := c.ListDocuments(ctx, nodeID)
	if err != nil {
		return err
	}

	var failed int
	for _, key := range keys {
		err := c.client.RemoveObject(ctx, c.bucketName, key, minio.RemoveObjectOptions{})
		if err != nil && !IsNoSuchKey(err) {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("delete documents for node %q: %d errors", nodeID, failed)
	}
	return nil
}
