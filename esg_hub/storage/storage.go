package storage

import (
	"io"
)

type UsageStats struct {
	TotalBytes uint64
	FreeBytes  uint64
}

type Storage interface {
	Read(path string) (io.ReadCloser, error)

	// Write replaces the file at path, creating parent directories as needed.
	Write(path string, data io.Reader) error

	// Delete removes the file or directory at path. Missing paths are not an error.
	Delete(path string) error

	Exists(path string) (bool, error)

	Usage() (UsageStats, error)
}
