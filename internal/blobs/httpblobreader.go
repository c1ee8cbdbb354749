package blobs

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"k8s.io/klog/v2"
)

// HTTPBlobReader downloads objects from a static file server, e.g. a
// bucket's public endpoint.
type HTTPBlobReader struct {
	// BaseURL is joined with the object key, e.g. https://host/models/.
	BaseURL *url.URL

	// Client defaults to http.DefaultClient.
	Client *http.Client
}

var _ BlobReader = &HTTPBlobReader{}

func (h *HTTPBlobReader) Download(ctx context.Context, key string, destPath string) error {
	u := h.BaseURL.JoinPath(key).String()
	log := klog.FromContext(ctx)

	log.Info("downloading from url", "url", u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	startedAt := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("blob %q not found: %w", u, os.ErrNotExist)
		}
		return fmt.Errorf("unexpected status downloading %q: %v", u, resp.Status)
	}

	n, err := writeToFile(ctx, resp.Body, destPath)
	if err != nil {
		return fmt.Errorf("downloading from %q: %w", u, err)
	}

	log.Info("downloaded blob", "url", u, "bytes", n, "duration", time.Since(startedAt))
	return nil
}
