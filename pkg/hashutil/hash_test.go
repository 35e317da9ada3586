package hashutil

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestHashFileKnownDigest(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hello.txt", []byte("hello world"))

	got, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", got)
}

func TestHashFileEmpty(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty", nil)

	got, err := HashFile(path)
	require.NoError(t, err)
	// SHA-256 of zero bytes.
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", got)
}

func TestHashFileMultipleChunks(t *testing.T) {
	// Larger than ChunkSize so the streaming path crosses buffer boundaries.
	data := bytes.Repeat([]byte("dittosync"), 3*ChunkSize/8)
	path := writeFile(t, t.TempDir(), "big.bin", data)

	want := sha256.Sum256(data)

	got, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(want[:]), got)
}

func TestHashFileLowercaseHex(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", []byte("A"))

	got, err := HashFile(path)
	require.NoError(t, err)
	assert.Len(t, got, 64)
	assert.Equal(t, got, string(bytes.ToLower([]byte(got))))
}

func TestHashFileMissing(t *testing.T) {
	_, err := HashFile(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)

	var hashErr *HashError
	assert.True(t, errors.As(err, &hashErr))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
