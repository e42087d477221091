// Package corpus loads the static song-corpus asset and feeds it to the
// persistence store. A load either applies the whole corpus or none of it;
// there is no retry and no partial application.
package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	sberrors "github.com/songbook-app/songbook/internal/errors"
	"github.com/songbook-app/songbook/internal/store"
)

// document is the corpus asset shape: { "songs": [...] }.
type document struct {
	Songs []store.Song `json:"songs"`
}

// Loader fetches and decodes the corpus asset.
type Loader struct {
	client *http.Client
}

// NewLoader creates a Loader. Passing nil uses a client with a sane timeout.
func NewLoader(client *http.Client) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Loader{client: client}
}

// Fetch retrieves the corpus asset over HTTP. It verifies the status code
// and a JSON content-type before decoding, and fails without retry on any
// violation.
func (l *Loader) Fetch(ctx context.Context, url string) ([]store.Song, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, sberrors.New(sberrors.ErrCodeCorpusFetch, "failed to build corpus request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, sberrors.New(sberrors.ErrCodeCorpusFetch, "failed to fetch corpus", err).
			WithDetail("url", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, sberrors.New(sberrors.ErrCodeCorpusFetch,
			fmt.Sprintf("unexpected status %d fetching corpus", resp.StatusCode), nil).
			WithDetail("url", url)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		return nil, sberrors.New(sberrors.ErrCodeCorpusContentType,
			fmt.Sprintf("corpus response is not JSON (content-type %q)", contentType), nil).
			WithDetail("url", url)
	}

	return decode(resp.Body)
}

// ReadFile loads the corpus asset from disk. The common path for the CLI.
func (l *Loader) ReadFile(path string) ([]store.Song, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, sberrors.New(sberrors.ErrCodeCorpusFetch,
			fmt.Sprintf("failed to open corpus file %s", path), err)
	}
	defer f.Close()
	return decode(f)
}

// decode parses the corpus document and rejects payloads without a songs
// field. The store types coerce numeric strings during decoding.
func decode(r io.Reader) ([]store.Song, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, sberrors.New(sberrors.ErrCodeCorpusMalformed, "failed to parse corpus JSON", err)
	}
	if doc.Songs == nil {
		return nil, sberrors.New(sberrors.ErrCodeCorpusMalformed, "corpus document has no songs field", nil)
	}
	return doc.Songs, nil
}

// Apply replaces the store's corpus with songs in one atomic operation and
// logs the outcome. A failure leaves the previous corpus in place.
func Apply(ctx context.Context, st *store.Store, songs []store.Song) error {
	if err := st.ReplaceAllSongs(ctx, songs); err != nil {
		slog.Error("corpus_apply_failed", slog.Any("details", sberrors.FormatForLog(err)))
		return err
	}
	slog.Info("corpus_applied", slog.Int("songs", len(songs)))
	return nil
}
