package storage_test

import (
	"io"
	"strings"
	"testing"

	"esg_platform/esg_hub/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func read(t *testing.T, store storage.Storage, path string) string {
	r, err := store.Read(path)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func TestSharedDiskReadWrite(t *testing.T) {
	store := storage.NewSharedDisk(t.TempDir())

	exists, err := store.Exists("reports/org/report.json")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Write("reports/org/report.json", strings.NewReader(`{"a":1}`)))
	require.NoError(t, store.Write("reports/org/report.json", strings.NewReader(`{"b":2}`)))
	assert.Equal(t, `{"b":2}`, read(t, store, "reports/org/report.json"))

	exists, err = store.Exists("reports/org/report.json")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete("reports/org"))
	exists, err = store.Exists("reports/org/report.json")
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting something that was never written is fine.
	require.NoError(t, store.Delete("reports/missing"))
}

func TestSharedDiskRejectsEscapingPaths(t *testing.T) {
	store := storage.NewSharedDisk(t.TempDir())

	err := store.Write("../outside.json", strings.NewReader("x"))
	assert.ErrorIs(t, err, storage.ErrInvalidPath)

	_, err = store.Read("/etc/passwd")
	assert.ErrorIs(t, err, storage.ErrInvalidPath)
}

func TestSharedDiskUsage(t *testing.T) {
	store := storage.NewSharedDisk(t.TempDir())

	usage, err := store.Usage()
	require.NoError(t, err)
	assert.Greater(t, usage.TotalBytes, uint64(0))
	assert.LessOrEqual(t, usage.FreeBytes, usage.TotalBytes)
}
