package search

import (
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/lang/ru"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/index/scorch"
	"github.com/blevesearch/bleve/v2/mapping"

	sberrors "github.com/songbook-app/songbook/internal/errors"
	"github.com/songbook-app/songbook/internal/store"
)

// LyricsAnalyzerName is the name of the Russian lyrics analyzer: unicode
// tokenizer, lowercase, snowball stemmer, and no stop-word filter. Song
// titles and lyrics lean on short function words for distinctiveness, so
// every token stays searchable.
const LyricsAnalyzerName = "lyrics_ru"

const (
	fieldTitle   = "title"
	fieldContent = "content"
)

// Query-time field boosts: a title hit outranks a body-only hit.
const (
	titleBoost   = 3.0
	contentBoost = 1.0
)

// Index is a built, immutable search index over one snapshot of the corpus.
// A handle must not be mutated concurrently with a query using it; rebuild
// into a fresh Index instead.
type Index struct {
	idx      bleve.Index
	docCount int
}

// Build constructs the index from a song list. It is a pure function of its
// input: identical songs yield an equivalent index. There is no incremental
// update path; any corpus change means a full rebuild.
func Build(songs []store.Song) (*Index, error) {
	indexMapping, err := createIndexMapping()
	if err != nil {
		return nil, err
	}

	// In-memory scorch index. Scorch measures fuzzy edit distance in runes,
	// so a single-character Cyrillic typo stays within distance 1; the
	// upsidedown backend counts bytes and would need distance 2.
	idx, err := bleve.NewUsing("", indexMapping, scorch.Name, scorch.Name, nil)
	if err != nil {
		return nil, sberrors.New(sberrors.ErrCodeInternal, "failed to create search index", err)
	}

	batch := idx.NewBatch()
	for _, song := range songs {
		// The document ref is the song number as decimal text.
		ref := strconv.Itoa(song.Number)
		if err := batch.Index(ref, prepareSong(song)); err != nil {
			_ = idx.Close()
			return nil, sberrors.New(sberrors.ErrCodeInternal,
				fmt.Sprintf("failed to index song %d", song.Number), err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, sberrors.New(sberrors.ErrCodeInternal, "failed to build search index", err)
	}

	return &Index{idx: idx, docCount: len(songs)}, nil
}

// createIndexMapping maps the title and content fields through the lyrics
// analyzer.
func createIndexMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomAnalyzer(LyricsAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": unicode.Name,
		"token_filters": []string{
			lowercase.Name,
			ru.SnowballStemmerName,
		},
	})
	if err != nil {
		return nil, sberrors.New(sberrors.ErrCodeInternal, "failed to add lyrics analyzer", err)
	}

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = LyricsAnalyzerName
	titleField.Store = false

	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = LyricsAnalyzerName
	contentField.Store = false

	songMapping := bleve.NewDocumentMapping()
	songMapping.AddFieldMappingsAt(fieldTitle, titleField)
	songMapping.AddFieldMappingsAt(fieldContent, contentField)

	indexMapping.DefaultMapping = songMapping
	indexMapping.DefaultAnalyzer = LyricsAnalyzerName

	return indexMapping, nil
}

// DocCount returns the number of indexed songs.
func (ix *Index) DocCount() int {
	if ix == nil {
		return 0
	}
	return ix.docCount
}

// Close releases the index. Safe on a nil receiver.
func (ix *Index) Close() error {
	if ix == nil || ix.idx == nil {
		return nil
	}
	return ix.idx.Close()
}
