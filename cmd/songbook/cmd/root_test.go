package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCorpus = `{
	"songs": [
		{"n": 1, "title": "Осенний дождь", "body": [
			{"id": 0, "type": "verse", "content": "Дождь стучит в окно", "repeatId": null}
		]},
		{"n": 2, "title": "Утренняя звезда", "body": [
			{"id": 0, "type": "chorus", "content": "Звезда горит на небе", "repeatId": null}
		]}
	]
}`

// execute runs the CLI against an isolated home and catalog.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// setupEnv isolates HOME and the catalog database for one test.
func setupEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	dbPath := filepath.Join(t.TempDir(), "songbook.db")
	t.Setenv("SONGBOOK_DB", dbPath)
	return dbPath
}

func writeCorpusFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "songs.json")
	require.NoError(t, os.WriteFile(path, []byte(testCorpus), 0644))
	return path
}

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	root := NewRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}

	for _, want := range []string{"load", "search", "song", "collections", "stats", "watch", "parse", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestVersionCmd(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "songbook")

	out, err = execute(t, "version", "--json")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "version")
}

func TestLoadCmd_RequiresSource(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "load")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no corpus source")
}

func TestLoadThenSearch(t *testing.T) {
	setupEnv(t)
	corpusPath := writeCorpusFile(t)

	out, err := execute(t, "load", "--file", corpusPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 2 songs")

	out, err = execute(t, "search", "дождь")
	require.NoError(t, err)
	assert.Contains(t, out, "№1")
	assert.Contains(t, out, "Осенний дождь")
	assert.NotContains(t, out, "№2")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	setupEnv(t)
	corpusPath := writeCorpusFile(t)
	_, err := execute(t, "load", "--file", corpusPath)
	require.NoError(t, err)

	out, err := execute(t, "search", "звезда", "--json")
	require.NoError(t, err)

	var results []struct {
		Number int     `json:"n"`
		Score  float64 `json:"score"`
		Title  string  `json:"title"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Number)
	assert.Equal(t, "Утренняя звезда", results[0].Title)
}

func TestSearchCmd_LimitFlag(t *testing.T) {
	setupEnv(t)
	t.Setenv("SONGBOOK_MAX_RESULTS", "1")
	corpusPath := writeCorpusFile(t)
	_, err := execute(t, "load", "--file", corpusPath)
	require.NoError(t, err)

	var results []struct {
		Number int `json:"n"`
	}

	// The configured cap applies when the flag is left at its default
	out, err := execute(t, "search", "дождь звезда", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	assert.Len(t, results, 1)

	// --limit -1 requests unlimited results past the configured cap
	out, err = execute(t, "search", "дождь звезда", "--limit=-1", "--json")
	require.NoError(t, err)
	results = nil
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	assert.Len(t, results, 2)
}

func TestSearchCmd_EmptyCatalogFails(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "search", "дождь")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog is empty")
}

func TestSongCmd(t *testing.T) {
	setupEnv(t)
	corpusPath := writeCorpusFile(t)
	_, err := execute(t, "load", "--file", corpusPath)
	require.NoError(t, err)

	out, err := execute(t, "song", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Осенний дождь")
	assert.Contains(t, out, "Дождь стучит в окно")

	_, err = execute(t, "song", "99")
	require.Error(t, err)

	_, err = execute(t, "song", "abc")
	require.Error(t, err)
}

func TestCollectionsFlow(t *testing.T) {
	setupEnv(t)
	corpusPath := writeCorpusFile(t)
	_, err := execute(t, "load", "--file", corpusPath)
	require.NoError(t, err)

	out, err := execute(t, "collections", "create", "Любимые")
	require.NoError(t, err)
	assert.Contains(t, out, "id 1")

	_, err = execute(t, "collections", "add", "1", "1")
	require.NoError(t, err)

	// Duplicate membership is a domain error
	_, err = execute(t, "collections", "add", "1", "1")
	require.Error(t, err)

	out, err = execute(t, "collections", "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Любимые")
	assert.Contains(t, out, "№1")

	out, err = execute(t, "collections", "for-song", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Любимые")

	out, err = execute(t, "collections", "available", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Любимые")

	_, err = execute(t, "collections", "remove", "1", "1")
	require.NoError(t, err)
	_, err = execute(t, "collections", "remove", "1", "1")
	require.Error(t, err)

	_, err = execute(t, "collections", "delete", "1")
	require.NoError(t, err)
	_, err = execute(t, "collections", "delete", "1")
	require.Error(t, err)
}

func TestStatsCmd(t *testing.T) {
	setupEnv(t)
	corpusPath := writeCorpusFile(t)
	_, err := execute(t, "load", "--file", corpusPath)
	require.NoError(t, err)
	_, err = execute(t, "collections", "create", "Любимые")
	require.NoError(t, err)

	out, err := execute(t, "stats", "--json")
	require.NoError(t, err)

	var stats StatsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 2, stats.Songs)
	require.Len(t, stats.Collections, 1)
	assert.Equal(t, "Любимые", stats.Collections[0].Name)
}

func TestParseCmd(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()

	hymnal := "РАЗДЕЛ\n1. 1. Дождь стучит в окно,\nЛистья кружатся.\nПрипев: Осень пришла.\n"
	textPath := filepath.Join(dir, "hymnal.txt")
	require.NoError(t, os.WriteFile(textPath, []byte(hymnal), 0644))

	namesPath := filepath.Join(dir, "names.tsv")
	require.NoError(t, os.WriteFile(namesPath, []byte("1\tОсенний дождь\n"), 0644))

	outPath := filepath.Join(dir, "songs.json")
	out, err := execute(t, "parse", textPath, "--names", namesPath, "--out", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Parsed 1 songs")

	// The produced asset is itself loadable
	_, err = execute(t, "load", "--file", outPath)
	require.NoError(t, err)

	res, err := execute(t, "song", "1")
	require.NoError(t, err)
	assert.Contains(t, res, "Осенний дождь")
}
