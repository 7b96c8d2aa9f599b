package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidKey(t *testing.T) {
	for _, key := range []string{"alice", "Bob_2", ".trash-123"} {
		assert.True(t, ValidKey(key), key)
	}
	for _, key := range []string{"", ".", "..", "../etc", "a/b", `a\b`, "a\x00"} {
		assert.False(t, ValidKey(key), key)
	}
}

func readAll(t *testing.T, svc Service, key string) string {
	t.Helper()
	rc, err := svc.Open(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

// exerciseService runs the behaviour shared by every backend.
func exerciseService(t *testing.T, svc Service) {
	ctx := context.Background()

	_, err := svc.Open(ctx, "alice")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Put(ctx, "alice", strings.NewReader("v1")))
	assert.Equal(t, "v1", readAll(t, svc, "alice"))

	require.NoError(t, svc.Put(ctx, "alice", strings.NewReader("v2")))
	assert.Equal(t, "v2", readAll(t, svc, "alice"), "overwritten")

	require.NoError(t, svc.Rename(ctx, "alice", "alicia"))
	_, err = svc.Open(ctx, "alice")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "v2", readAll(t, svc, "alicia"))

	assert.ErrorIs(t, svc.Rename(ctx, "nobody", "somebody"), ErrNotFound)

	require.NoError(t, svc.Delete(ctx, "alicia"))
	assert.ErrorIs(t, svc.Delete(ctx, "alicia"), ErrNotFound)

	assert.ErrorIs(t, svc.Put(ctx, "../escape", strings.NewReader("x")), ErrInvalidKey)
	_, err = svc.Open(ctx, "..")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, svc.Rename(ctx, "a", "b/c"), ErrInvalidKey)
	assert.ErrorIs(t, svc.Delete(ctx, ""), ErrInvalidKey)
}

func TestLocalService(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads", "profile_pictures")
	svc, err := NewLocalService(root)
	require.NoError(t, err)

	exerciseService(t, svc)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "no temp files left behind")
}

func TestLocalService_OpenDirectoryIsNotFound(t *testing.T) {
	root := t.TempDir()
	svc, err := NewLocalService(root)
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(root, "subdir"), 0o755))

	_, err = svc.Open(context.Background(), "subdir")
	assert.ErrorIs(t, err, ErrNotFound)
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) CopyObject(_ context.Context, in *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[aws.ToString(in.CopySource)]
	if !ok {
		return nil, errors.New("copy source missing: " + aws.ToString(in.CopySource))
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = body
	return &s3.CopyObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errors.New("multipart not supported by fake")
}

func (f *fakeS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errors.New("multipart not supported by fake")
}

func (f *fakeS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errors.New("multipart not supported by fake")
}

func (f *fakeS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return nil, errors.New("multipart not supported by fake")
}

func TestS3Service(t *testing.T) {
	fake := newFakeS3()
	svc := NewS3Service(fake, "pictures", "/profile_pictures/")

	exerciseService(t, svc)

	require.NoError(t, svc.Put(context.Background(), "bob", strings.NewReader("png")))
	fake.mu.Lock()
	_, ok := fake.objects["pictures/profile_pictures/bob"]
	fake.mu.Unlock()
	assert.True(t, ok, "objects live under the key prefix")
}

func TestS3Service_NoPrefix(t *testing.T) {
	svc := NewS3Service(newFakeS3(), "pictures", "")
	key, err := svc.objectKey("carol")
	require.NoError(t, err)
	assert.Equal(t, "carol", key)
}
