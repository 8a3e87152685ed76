package media

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUploader struct {
	mu       sync.Mutex
	calls    map[string]int
	failures map[string]int
}

func newStubUploader() *stubUploader {
	return &stubUploader{calls: make(map[string]int), failures: make(map[string]int)}
}

func (s *stubUploader) UploadFromURL(ctx context.Context, srcURL, destPath string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[destPath]++
	if s.failures[destPath] > 0 {
		s.failures[destPath]--
		return "", errors.New("transfer failed")
	}
	return "https://cdn.test/" + destPath, nil
}

func TestUploadAllKeepsOrder(t *testing.T) {
	up := newStubUploader()
	pool := NewPool(up, 3, 0, time.Millisecond, nil)

	tasks := []Task{
		{SrcURL: "s1", DestPath: "a/1.jpg"},
		{SrcURL: "s2", DestPath: "a/2.jpg"},
		{SrcURL: "s3", DestPath: "a/3.jpg"},
	}
	got := pool.UploadAll(context.Background(), tasks)
	assert.Equal(t, []string{
		"https://cdn.test/a/1.jpg",
		"https://cdn.test/a/2.jpg",
		"https://cdn.test/a/3.jpg",
	}, got)
}

func TestUploadAllRetriesThenGivesUp(t *testing.T) {
	up := newStubUploader()
	up.failures["a/1.jpg"] = 1
	up.failures["a/2.jpg"] = 5

	pool := NewPool(up, 2, 1, time.Millisecond, nil)
	got := pool.UploadAll(context.Background(), []Task{
		{SrcURL: "s1", DestPath: "a/1.jpg"},
		{SrcURL: "s2", DestPath: "a/2.jpg"},
	})

	// First task succeeds on the retry, second exhausts its budget.
	assert.Equal(t, "https://cdn.test/a/1.jpg", got[0])
	assert.Equal(t, "", got[1])
	assert.Equal(t, 2, up.calls["a/1.jpg"])
	assert.Equal(t, 2, up.calls["a/2.jpg"])
}

func TestUploadAllNilUploader(t *testing.T) {
	pool := NewPool(nil, 2, 0, time.Millisecond, nil)
	got := pool.UploadAll(context.Background(), []Task{{SrcURL: "s", DestPath: "d"}})
	require.Len(t, got, 1)
	assert.Equal(t, "", got[0])
}
