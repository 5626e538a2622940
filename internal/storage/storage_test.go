package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	key, err := objectKey("documents", "application/pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "documents/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))

	key, err = objectKey("../../etc", "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "etc/"), "traversal is flattened: %s", key)

	_, err = objectKey("/", "image/png")
	assert.ErrorIs(t, err, ErrInvalidFolder)
}

func TestInMemory(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	url, err := s.Put(ctx, []byte("%PDF"), "application/pdf", "documents")
	require.NoError(t, err)
	data, mimeType, ok := s.Get(url)
	require.True(t, ok)
	assert.Equal(t, []byte("%PDF"), data)
	assert.Equal(t, "application/pdf", mimeType)

	deleted, err := s.Delete(ctx, url)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.Delete(ctx, url)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = s.Put(ctx, nil, "image/png", "documents")
	assert.ErrorIs(t, err, ErrEmptyObject)
}

func TestLocal(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewLocal(dir, "http://localhost:5000/")
	require.NoError(t, err)

	url, err := s.Put(ctx, []byte{0xFF, 0xD8}, "image/jpeg", "documents")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "http://localhost:5000/uploads/documents/"), url)
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	key := strings.TrimPrefix(url, "http://localhost:5000/uploads/")
	onDisk, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8}, onDisk)

	t.Run("delete removes the file", func(t *testing.T) {
		deleted, err := s.Delete(ctx, url)
		require.NoError(t, err)
		assert.True(t, deleted)
		_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(key)))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("missing file is not an error", func(t *testing.T) {
		deleted, err := s.Delete(ctx, url)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("foreign or escaping urls are ignored", func(t *testing.T) {
		for _, u := range []string{
			"https://bucket.s3.us-east-1.amazonaws.com/documents/x.pdf",
			"http://localhost:5000/uploads/../../secret",
			"http://localhost:5000/uploads/",
		} {
			deleted, err := s.Delete(ctx, u)
			require.NoError(t, err, u)
			assert.False(t, deleted, u)
		}
	})
}

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	deletes []*s3.DeleteObjectInput
	err     error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, f.err
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, in)
	return &s3.DeleteObjectOutput{}, f.err
}

func TestS3(t *testing.T) {
	ctx := context.Background()

	t.Run("virtual hosted urls", func(t *testing.T) {
		client := &fakeS3{}
		s := newS3(client, S3Config{Bucket: "docs", Region: "eu-west-1"})

		url, err := s.Put(ctx, []byte("%PDF"), "application/pdf", "documents")
		require.NoError(t, err)
		require.Len(t, client.puts, 1)
		key := aws.ToString(client.puts[0].Key)
		assert.Equal(t, "https://docs.s3.eu-west-1.amazonaws.com/"+key, url)
		assert.Equal(t, "application/pdf", aws.ToString(client.puts[0].ContentType))

		deleted, err := s.Delete(ctx, url)
		require.NoError(t, err)
		assert.True(t, deleted)
		require.Len(t, client.deletes, 1)
		assert.Equal(t, key, aws.ToString(client.deletes[0].Key))
	})

	t.Run("custom endpoint uses path style urls", func(t *testing.T) {
		s := newS3(&fakeS3{}, S3Config{Bucket: "docs", Region: "us-east-1", Endpoint: "http://minio:9000/"})
		url, err := s.Put(ctx, []byte("x"), "image/png", "documents")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(url, "http://minio:9000/docs/documents/"), url)
	})

	t.Run("foreign url is skipped", func(t *testing.T) {
		client := &fakeS3{}
		s := newS3(client, S3Config{Bucket: "docs", Region: "us-east-1"})
		deleted, err := s.Delete(ctx, "http://localhost:5000/uploads/documents/a.pdf")
		require.NoError(t, err)
		assert.False(t, deleted)
		assert.Empty(t, client.deletes)
	})

	t.Run("put failure surfaces", func(t *testing.T) {
		s := newS3(&fakeS3{err: errors.New("boom")}, S3Config{Bucket: "docs", Region: "us-east-1"})
		_, err := s.Put(ctx, []byte("x"), "image/png", "documents")
		require.Error(t, err)
	})
}
