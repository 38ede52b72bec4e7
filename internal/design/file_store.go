package design

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// fileStore implements Store on the local file system.
type fileStore struct {
	root    string
	baseURL string
	logger  zerolog.Logger
}

// NewFileStore creates a store that writes below root. URLs are baseURL
// joined with the object key.
func NewFileStore(root, baseURL string, logger zerolog.Logger) Store {
	return &fileStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With().Str("component", "design-file-store").Logger(),
	}
}

func (s *fileStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

func (s *fileStore) Put(ctx context.Context, obj Object) (string, error) {
	path, err := s.path(obj.Key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("failed to create design directory")
		return "", fmt.Errorf("failed to create directory for %s: %w", obj.Key, err)
	}

	file, err := os.Create(path)
	if err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("failed to create design file")
		return "", fmt.Errorf("failed to create file %s: %w", path, err)
	}

	written, err := io.Copy(file, obj.Body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		s.logger.Error().Err(err).Str("path", path).Msg("failed to write design file")
		return "", fmt.Errorf("failed to write file %s: %w", path, err)
	}

	s.logger.Info().
		Str("key", obj.Key).
		Int64("bytes", written).
		Msg("design stored on local disk")

	return s.baseURL + "/" + strings.TrimLeft(obj.Key, "/"), nil
}

func (s *fileStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	return file, nil
}

func (s *fileStore) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Error().Err(err).Str("path", path).Msg("failed to delete design file")
		return fmt.Errorf("failed to delete file %s: %w", path, err)
	}
	return nil
}
