package uploader

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/marmos91/dittosync/internal/bytesize"
	"github.com/marmos91/dittosync/pkg/dbgateway"
)

type fakeGateway struct {
	dbgateway.Gateway

	mu sync.Mutex

	batches     [][]dbgateway.ContentRef
	batchIndex  int
	completed   map[string]string
	failed      map[string]string
	skipped     map[string]string
	resetCalled bool
}

func (f *fakeGateway) ResetStuckUploads(context.Context) (int, error) {
	f.resetCalled = true
	return 0, nil
}

func (f *fakeGateway) DequeueUploadBatch(_ context.Context, _ int, _ []string) ([]dbgateway.ContentRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.batchIndex >= len(f.batches) {
		return nil, nil
	}
	batch := f.batches[f.batchIndex]
	f.batchIndex++
	return batch, nil
}

func (f *fakeGateway) MarkUploadComplete(_ context.Context, hash, storagePath, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed[hash] = storagePath
	return nil
}

func (f *fakeGateway) MarkUploadFailed(_ context.Context, hash, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[hash] = errMsg
	return nil
}

func (f *fakeGateway) MarkUploadSkipped(_ context.Context, hash, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.skipped[hash] = reason
	return nil
}

type fakeStore struct {
	mu   sync.Mutex
	puts map[string]int64
	fail bool
}

func (s *fakeStore) Put(_ context.Context, contentHash string, body io.Reader, size int64, _ string) (string, error) {
	if s.fail {
		return "", errors.New("put failed")
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.puts == nil {
		s.puts = make(map[string]int64)
	}
	s.puts[contentHash] = size
	return contentHash, nil
}

func newFakeGateway(batches ...[]dbgateway.ContentRef) *fakeGateway {
	return &fakeGateway{
		batches:   batches,
		completed: make(map[string]string),
		failed:    make(map[string]string),
		skipped:   make(map[string]string),
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blob.bin")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestProcessOneUploadsAndMarksComplete(t *testing.T) {
	path := writeTempFile(t, "hello")
	gw := newFakeGateway()
	store := &fakeStore{}
	u := New(gw, store, Config{})

	u.processOne(context.Background(), dbgateway.ContentRef{ContentHash: "abc123", FullPath: path, SizeBytes: 5, MimeType: "text/plain"})

	if gw.completed["abc123"] != "abc123" {
		t.Errorf("completed[abc123] = %q, want storage key abc123", gw.completed["abc123"])
	}
	if len(gw.failed) != 0 {
		t.Errorf("unexpected failures: %v", gw.failed)
	}
}

func TestProcessOneMissingFileMarksFailed(t *testing.T) {
	gw := newFakeGateway()
	store := &fakeStore{}
	u := New(gw, store, Config{})

	u.processOne(context.Background(), dbgateway.ContentRef{ContentHash: "missing", FullPath: "/does/not/exist", SizeBytes: 5})

	if gw.failed["missing"] != "file missing" {
		t.Errorf("failed[missing] = %q, want %q", gw.failed["missing"], "file missing")
	}
}

func TestProcessOneOversizeIsSkipped(t *testing.T) {
	path := writeTempFile(t, "0123456789")
	gw := newFakeGateway()
	store := &fakeStore{}
	u := New(gw, store, Config{UploadSizeLimit: 5 * bytesize.B})

	u.processOne(context.Background(), dbgateway.ContentRef{ContentHash: "big", FullPath: path, SizeBytes: 10})

	if _, ok := gw.skipped["big"]; !ok {
		t.Errorf("expected hash to be marked skipped")
	}
	if len(gw.completed) != 0 {
		t.Errorf("oversize content should not be uploaded")
	}
}

func TestProcessOneStoreFailureMarksFailed(t *testing.T) {
	path := writeTempFile(t, "hello")
	gw := newFakeGateway()
	store := &fakeStore{fail: true}
	u := New(gw, store, Config{})

	u.processOne(context.Background(), dbgateway.ContentRef{ContentHash: "abc123", FullPath: path, SizeBytes: 5})

	if _, ok := gw.failed["abc123"]; !ok {
		t.Errorf("expected upload failure to be marked failed")
	}
}

func TestRunOnceEmptyBatchReturnsPromptly(t *testing.T) {
	gw := newFakeGateway([]dbgateway.ContentRef{})
	u := New(gw, &fakeStore{}, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := u.runOnce(ctx); err != nil {
		t.Fatalf("runOnce: %v", err)
	}
}

func TestRunResetsStuckUploadsOnce(t *testing.T) {
	gw := newFakeGateway()
	u := New(gw, &fakeStore{}, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	u.Run(ctx)

	if !gw.resetCalled {
		t.Errorf("Run did not call ResetStuckUploads")
	}
}
