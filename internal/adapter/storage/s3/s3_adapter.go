package s3

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"store-directory/internal/platform/logger"
	"store-directory/internal/store/domain"
)

// S3Storage stores processed listing photos in a MinIO/S3 bucket. It
// implements domain.PhotoStorage.
type S3Storage struct {
	client *minio.Client
	bucket string
	logger *logger.Logger
}

// NewS3Storage connects to the endpoint and ensures the bucket exists.
func NewS3Storage(endpoint, accessKey, secretKey, bucketName string, useSSL bool, log *logger.Logger) (*S3Storage, error) {
	log.Info("Initializing photo object storage",
		zap.String("endpoint", endpoint), zap.String("bucket", bucketName), zap.Bool("use_ssl", useSSL))

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client for %s: %w", endpoint, err)
	}

	err = client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{})
	if err != nil {
		exists, errBucketExists := client.BucketExists(context.Background(), bucketName)
		if errBucketExists != nil || !exists {
			return nil, fmt.Errorf("making/verifying bucket %s: (make: %v / exists: %v)", bucketName, err, errBucketExists)
		}
		log.Info("Bucket already exists", zap.String("bucket", bucketName))
	}

	return &S3Storage{
		client: client,
		bucket: bucketName,
		logger: log.Named("S3Storage"),
	}, nil
}

// Upload writes the photo bytes under objectName. The pipeline has already
// assigned a collision-free name, so this is a plain put.
func (s *S3Storage) Upload(ctx context.Context, objectName string, data []byte, contentType string) error {
	info, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		s.logger.Error("PutObject failed", zap.String("bucket", s.bucket), zap.String("key", objectName), zap.Error(err))
		return uploadErr(objectName, s.bucket, err)
	}

	s.logger.Info("Photo uploaded",
		zap.String("bucket", info.Bucket),
		zap.String("key", info.Key),
		zap.Int64("size", info.Size))
	return nil
}

// uploadErr wraps an object-store failure in the transient taxonomy error,
// so callers retry with backoff instead of matching on client internals.
func uploadErr(objectName, bucket string, err error) error {
	return fmt.Errorf("%w: uploading object %s to bucket %s: %v", domain.ErrStorageUnavailable, objectName, bucket, err)
}
