package blobs

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// ParseLocation splits an artifact location into a store and an object key.
//
//	gs://bucket/models/best.born  -> GCSBlobstore{bucket}, "models/best.born"
//	https://host/models/best.born -> HTTPBlobReader{https://host/models}, "best.born"
//	file:///srv/models/best.born  -> LocalBlobstore{/srv/models}, "best.born"
//	models/best.born              -> LocalBlobstore{models}, "best.born"
//
// Only the HTTP reader is read-only; assert to Blobstore before uploading.
func ParseLocation(loc string) (BlobReader, string, error) {
	if !strings.Contains(loc, "://") {
		if loc == "" {
			return nil, "", fmt.Errorf("empty location")
		}
		return &LocalBlobstore{Dir: filepath.Dir(loc)}, filepath.Base(loc), nil
	}

	u, err := url.Parse(loc)
	if err != nil {
		return nil, "", fmt.Errorf("parsing location %q: %w", loc, err)
	}
	switch u.Scheme {
	case "gs":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return nil, "", fmt.Errorf("location %q must be gs://bucket/key", loc)
		}
		return &GCSBlobstore{Bucket: u.Host}, key, nil
	case "file":
		if u.Path == "" || strings.HasSuffix(u.Path, "/") {
			return nil, "", fmt.Errorf("location %q does not name a file", loc)
		}
		p := filepath.FromSlash(u.Path)
		return &LocalBlobstore{Dir: filepath.Dir(p)}, filepath.Base(p), nil
	case "http", "https":
		dir, key := path.Split(u.Path)
		if key == "" {
			return nil, "", fmt.Errorf("location %q does not name a file", loc)
		}
		base := *u
		base.Path = dir
		base.RawPath = ""
		return &HTTPBlobReader{BaseURL: &base}, key, nil
	default:
		return nil, "", fmt.Errorf("unsupported location scheme %q", u.Scheme)
	}
}

// Fetch makes the artifact at loc available locally. Plain paths are
// returned unchanged; anything else is downloaded into dir.
func Fetch(ctx context.Context, loc string, dir string) (string, error) {
	if !strings.Contains(loc, "://") {
		return loc, nil
	}
	r, key, err := ParseLocation(loc)
	if err != nil {
		return "", err
	}
	if local, ok := r.(*LocalBlobstore); ok {
		return filepath.Join(local.Dir, key), nil
	}
	dest := filepath.Join(dir, path.Base(key))
	if err := r.Download(ctx, key, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// Publish uploads the file at sourcePath to loc, a store prefix such as
// gs://bucket/models. The object key is the prefix joined with the file
// name. It returns the full location of the object.
func Publish(ctx context.Context, sourcePath string, loc string) (string, error) {
	target := strings.TrimSuffix(loc, "/") + "/" + filepath.Base(sourcePath)
	r, key, err := ParseLocation(target)
	if err != nil {
		return "", err
	}
	store, ok := r.(Blobstore)
	if !ok {
		return "", fmt.Errorf("location %q is read-only", loc)
	}
	if err := store.Upload(ctx, sourcePath, key); err != nil {
		return "", err
	}
	return target, nil
}
