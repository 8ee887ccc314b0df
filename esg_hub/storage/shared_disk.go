package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

var ErrInvalidPath = errors.New("path escapes storage root")

type SharedDiskStorage struct {
	basepath string
}

func NewSharedDisk(basepath string) Storage {
	slog.Info("creating new shared disk storage", "basepath", basepath)
	return &SharedDiskStorage{basepath: basepath}
}

func (s *SharedDiskStorage) fullpath(path string) (string, error) {
	if !filepath.IsLocal(path) {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, path)
	}
	return filepath.Join(s.basepath, path), nil
}

func (s *SharedDiskStorage) Read(path string) (io.ReadCloser, error) {
	fullpath, err := s.fullpath(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullpath)
	if err != nil {
		slog.Error("error opening file for read", "path", fullpath, "error", err)
		return nil, fmt.Errorf("error reading file %v: %w", path, err)
	}

	return file, nil
}

// Write goes through a temp file and a rename so readers never see a partial file.
func (s *SharedDiskStorage) Write(path string, data io.Reader) error {
	fullpath, err := s.fullpath(path)
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(fullpath), 0777)
	if err != nil {
		slog.Error("error creating parent directory", "path", fullpath, "error", err)
		return fmt.Errorf("error creating parent directory %v: %w", path, err)
	}

	file, err := os.CreateTemp(filepath.Dir(fullpath), ".tmp-"+filepath.Base(fullpath))
	if err != nil {
		slog.Error("error opening file for writing", "path", fullpath, "error", err)
		return fmt.Errorf("error opening file %v: %w", path, err)
	}
	tmpPath := file.Name()
	defer os.Remove(tmpPath)

	_, err = io.Copy(file, data)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		slog.Error("error writing to file", "path", fullpath, "error", err)
		return fmt.Errorf("error writing to file %v: %w", path, err)
	}

	if err := os.Rename(tmpPath, fullpath); err != nil {
		slog.Error("error moving file into place", "path", fullpath, "error", err)
		return fmt.Errorf("error writing to file %v: %w", path, err)
	}

	return nil
}

func (s *SharedDiskStorage) Delete(path string) error {
	fullpath, err := s.fullpath(path)
	if err != nil {
		return err
	}

	err = os.RemoveAll(fullpath)
	if err != nil {
		slog.Error("error deleting file", "path", fullpath, "error", err)
		return fmt.Errorf("error deleting file %v: %w", path, err)
	}
	return nil
}

func (s *SharedDiskStorage) Exists(path string) (bool, error) {
	fullpath, err := s.fullpath(path)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(fullpath)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	slog.Error("error checking if file exists", "path", fullpath, "error", err)
	return false, fmt.Errorf("error checking if file %v exists: %w", path, err)
}

func (s *SharedDiskStorage) Usage() (UsageStats, error) {
	var stat unix.Statfs_t

	err := unix.Statfs(s.basepath, &stat)
	if err != nil {
		slog.Error("error getting disk usage for shared storage", "path", s.basepath, "error", err)
		return UsageStats{}, fmt.Errorf("error getting disk usage stats: %w", err)
	}

	return UsageStats{
		TotalBytes: stat.Blocks * uint64(stat.Bsize),
		FreeBytes:  stat.Bavail * uint64(stat.Bsize),
	}, nil
}
