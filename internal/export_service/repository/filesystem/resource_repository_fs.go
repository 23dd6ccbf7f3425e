package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/osbi/saiku_services/internal/export_service/domain"
)

// FsResourceRepository serves repository entries from a directory tree.
// Keys are slash-separated and resolved below the root; keys that would escape it are not found.
type FsResourceRepository struct {
	fs     afero.Fs
	logger *slog.Logger
}

// NewFsResourceRepository roots the repository at root on the OS filesystem.
func NewFsResourceRepository(root string, logger *slog.Logger) domain.Repository {
	return NewFsResourceRepositoryWithFs(afero.NewBasePathFs(afero.NewOsFs(), root), logger)
}

// NewFsResourceRepositoryWithFs uses fsys as the repository root.
func NewFsResourceRepositoryWithFs(fsys afero.Fs, logger *slog.Logger) domain.Repository {
	return &FsResourceRepository{fs: fsys, logger: logger.With("component", "resource_repository_fs")}
}

func (r *FsResourceRepository) GetResource(ctx context.Context, key string) (*domain.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, ok := cleanKey(key)
	if !ok {
		r.logger.WarnContext(ctx, "Rejected repository key outside root", "path", key)
		return nil, fmt.Errorf("%w: %s", domain.ErrResourceNotFound, key)
	}

	info, err := r.fs.Stat(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrResourceNotFound, key)
		}
		return nil, fmt.Errorf("stat %s: %w", key, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotAFile, key)
	}

	content, err := afero.ReadFile(r.fs, name)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error reading repository file", "path", key, "error", err)
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return &domain.Resource{Path: key, ContentType: contentType(name), Content: content}, nil
}

// cleanKey maps a repository key onto a relative path below the root.
func cleanKey(key string) (string, bool) {
	if strings.ContainsRune(key, 0) || strings.Contains(key, `\`) {
		return "", false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", false
		}
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+key), "/")
	if cleaned == "" {
		return "", false
	}
	return filepath.FromSlash(cleaned), true
}

func contentType(name string) string {
	ext := filepath.Ext(name)
	if ext == ".saiku" {
		return "saiku"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
