package blobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"
)

// LocalBlobstore keeps objects as files under Dir. Keys may contain
// slashes but must stay inside Dir.
type LocalBlobstore struct {
	Dir string
}

var _ Blobstore = (*LocalBlobstore)(nil)

func (l *LocalBlobstore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(l.Dir, clean), nil
}

func (l *LocalBlobstore) Upload(ctx context.Context, sourcePath string, key string) error {
	log := klog.FromContext(ctx)

	dest, err := l.path(key)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dest); err == nil {
		log.Info("object already exists", "path", dest)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking %q: %w", dest, err)
	}

	src, err := os.Open(sourcePath) //nolint:gosec // G304: caller-chosen artifact
	if err != nil {
		return fmt.Errorf("opening source file: %w", err)
	}
	defer src.Close()

	n, err := writeToFile(ctx, src, dest)
	if err != nil {
		return fmt.Errorf("uploading to %q: %w", dest, err)
	}
	log.Info("stored artifact", "source", sourcePath, "destination", dest, "bytes", n)
	return nil
}

func (l *LocalBlobstore) Download(ctx context.Context, key string, destPath string) error {
	src, err := l.path(key)
	if err != nil {
		return err
	}
	f, err := os.Open(src) //nolint:gosec // G304: path is confined to Dir
	if err != nil {
		return fmt.Errorf("opening object %q: %w", src, err)
	}
	defer f.Close()

	n, err := writeToFile(ctx, f, destPath)
	if err != nil {
		return fmt.Errorf("copying %q: %w", src, err)
	}
	klog.FromContext(ctx).Info("fetched artifact", "source", src, "destination", destPath, "bytes", n)
	return nil
}
