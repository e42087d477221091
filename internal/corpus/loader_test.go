package corpus

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sberrors "github.com/songbook-app/songbook/internal/errors"
	"github.com/songbook-app/songbook/internal/store"
)

const corpusJSON = `{
	"songs": [
		{"n": 1, "title": "Осенний дождь", "body": [
			{"id": 0, "type": "verse", "content": "Дождь стучит", "repeatId": null}
		]},
		{"n": "2", "title": "Звезда", "body": [
			{"id": "0", "type": "chorus", "content": "Звезда горит", "repeatId": null}
		]}
	]
}`

func serveCorpus(t *testing.T, status int, contentType, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_Success(t *testing.T) {
	srv := serveCorpus(t, http.StatusOK, "application/json; charset=utf-8", corpusJSON)

	songs, err := NewLoader(srv.Client()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, songs, 2)

	// Numeric strings in the asset are coerced at the boundary
	assert.Equal(t, 1, songs[0].Number)
	assert.Equal(t, 2, songs[1].Number)
	assert.Equal(t, "Осенний дождь", songs[0].Title)
	assert.Equal(t, store.SegmentChorus, songs[1].Body[0].Type)
}

func TestFetch_HTTPErrorStatus(t *testing.T) {
	srv := serveCorpus(t, http.StatusNotFound, "application/json", "")

	_, err := NewLoader(srv.Client()).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, sberrors.New(sberrors.ErrCodeCorpusFetch, "", nil)))
}

func TestFetch_WrongContentType(t *testing.T) {
	srv := serveCorpus(t, http.StatusOK, "text/html", "<html></html>")

	_, err := NewLoader(srv.Client()).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, sberrors.New(sberrors.ErrCodeCorpusContentType, "", nil)))
}

func TestFetch_MalformedJSON(t *testing.T) {
	srv := serveCorpus(t, http.StatusOK, "application/json", "{not json")

	_, err := NewLoader(srv.Client()).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, sberrors.New(sberrors.ErrCodeCorpusMalformed, "", nil)))
}

func TestFetch_MissingSongsField(t *testing.T) {
	srv := serveCorpus(t, http.StatusOK, "application/json", `{"sections": []}`)

	_, err := NewLoader(srv.Client()).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, sberrors.New(sberrors.ErrCodeCorpusMalformed, "", nil)))
}

func TestFetch_EmptySongsListIsValid(t *testing.T) {
	srv := serveCorpus(t, http.StatusOK, "application/json", `{"songs": []}`)

	songs, err := NewLoader(srv.Client()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, songs)
	assert.NotNil(t, songs)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "songs.json")
	require.NoError(t, os.WriteFile(path, []byte(corpusJSON), 0644))

	songs, err := NewLoader(nil).ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, songs, 2)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := NewLoader(nil).ReadFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestApply_ReplacesCorpusAtomically(t *testing.T) {
	st, err := store.OpenMemory()
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	srv := serveCorpus(t, http.StatusOK, "application/json", corpusJSON)
	songs, err := NewLoader(srv.Client()).Fetch(ctx, srv.URL)
	require.NoError(t, err)

	require.NoError(t, Apply(ctx, st, songs))
	assert.Equal(t, 2, st.GetSongsCount(ctx))

	// A failed load must not partially apply
	err = Apply(ctx, st, nil)
	require.Error(t, err)
	assert.Equal(t, 2, st.GetSongsCount(ctx))
}
