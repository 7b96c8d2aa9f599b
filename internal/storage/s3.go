package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client used by S3Service.
type S3API interface {
	manager.UploadAPIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Service stores pictures in Amazon S3 (or compatible APIs) under a key prefix.
type S3Service struct {
	client    S3API
	uploader  *manager.Uploader
	bucket    string
	keyPrefix string
}

func NewS3Service(client S3API, bucket, keyPrefix string) *S3Service {
	return &S3Service{
		client:    client,
		uploader:  manager.NewUploader(client),
		bucket:    bucket,
		keyPrefix: strings.Trim(keyPrefix, "/"),
	}
}

func (s *S3Service) objectKey(key string) (string, error) {
	if !ValidKey(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if s.keyPrefix == "" {
		return key, nil
	}
	return s.keyPrefix + "/" + key, nil
}

func (s *S3Service) Put(ctx context.Context, key string, body io.Reader) error {
	objKey, err := s.objectKey(key)
	if err != nil {
		return err
	}
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
		Body:   body,
		ACL:    types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", objKey, err)
	}
	return nil
}

func (s *S3Service) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	objKey, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%s: %w", objKey, ErrNotFound)
		}
		return nil, fmt.Errorf("get object %s: %w", objKey, err)
	}
	return out.Body, nil
}

func (s *S3Service) Rename(ctx context.Context, from, to string) error {
	src, err := s.objectKey(from)
	if err != nil {
		return err
	}
	dst, err := s.objectKey(to)
	if err != nil {
		return err
	}
	if err := s.exists(ctx, src); err != nil {
		return err
	}

	_, err = s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		CopySource: aws.String(s.bucket + "/" + escapeKey(src)),
		Key:        aws.String(dst),
		ACL:        types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	if err := s.remove(ctx, src); err != nil {
		return fmt.Errorf("remove renamed source: %w", err)
	}
	return nil
}

func (s *S3Service) Delete(ctx context.Context, key string) error {
	objKey, err := s.objectKey(key)
	if err != nil {
		return err
	}
	if err := s.exists(ctx, objKey); err != nil {
		return err
	}
	return s.remove(ctx, objKey)
}

func (s *S3Service) exists(ctx context.Context, objKey string) error {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return fmt.Errorf("%s: %w", objKey, ErrNotFound)
		}
		return fmt.Errorf("head object %s: %w", objKey, err)
	}
	return nil
}

func (s *S3Service) remove(ctx context.Context, objKey string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", objKey, err)
	}
	return nil
}

// escapeKey URL-encodes each segment of an object key for CopySource.
func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i := range parts {
		parts[i] = url.PathEscape(parts[i])
	}
	return strings.Join(parts, "/")
}

var _ Service = (*S3Service)(nil)
