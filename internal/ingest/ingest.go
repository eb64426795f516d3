// Package ingest fetches remote audio recordings into the local content
// store. It is the first pipeline stage: a failure here aborts the request
// before any inference or database access happens.
package ingest

import (
	"crypto/rand"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/callscribe/internal/errors"
)

// ContentHandle identifies one stored audio payload. The ID becomes the Call
// identifier if the pipeline completes.
type ContentHandle struct {
	ID   string
	Path string
}

// Ingestor downloads audio payloads into contentDir, keyed by a fresh ULID.
type Ingestor struct {
	contentDir string
	httpClient *http.Client
}

// New creates an Ingestor writing into contentDir.
func New(contentDir string) *Ingestor {
	return &Ingestor{
		contentDir: contentDir,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Fetch downloads the full payload at audioURL and stores it under a newly
// generated identifier. No overwrite, no dedup: every fetch is a fresh entry.
// Stored content is not cleaned up if the rest of the pipeline fails later.
func (ing *Ingestor) Fetch(audioURL string) (*ContentHandle, error) {
	resp, err := ing.httpClient.Get(audioURL)
	if err != nil {
		return nil, errors.NewIngestNetwork(audioURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, errors.NewIngestNetwork(audioURL, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewIngestStorage("", err)
	}

	path := filepath.Join(ing.contentDir, id)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return nil, errors.NewIngestStorage(id, err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return nil, errors.NewIngestStorage(id, err)
	}
	if err := f.Close(); err != nil {
		return nil, errors.NewIngestStorage(id, err)
	}

	return &ContentHandle{ID: id, Path: path}, nil
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
