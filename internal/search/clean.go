// Package search builds an in-memory inverted index over the song corpus
// and answers fuzzy, ranked queries against it. The index is derived state:
// rebuilt wholesale from the songs whenever the corpus changes, never
// persisted.
package search

import (
	"regexp"
	"strings"

	"github.com/songbook-app/songbook/internal/store"
)

var (
	// Punctuation and bracket characters are folded to spaces before
	// indexing so they never split or glue tokens.
	punctRe = regexp.MustCompile(`[\[\]()!?.,;:"'/-]`)

	whitespaceRe = regexp.MustCompile(`\s+`)
)

// CleanText strips punctuation and normalizes whitespace: the character
// class []()!?.,;:"'/- becomes a space, runs of whitespace collapse to one,
// and the ends are trimmed.
func CleanText(text string) string {
	text = punctRe.ReplaceAllString(text, " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// songDocument is the shape indexed per song: cleaned title and the cleaned
// concatenation of all segment contents in body order.
type songDocument struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// prepareSong flattens a song into its indexable document.
func prepareSong(song store.Song) songDocument {
	parts := make([]string, 0, len(song.Body))
	for _, seg := range song.Body {
		if seg.Content == nil {
			continue
		}
		parts = append(parts, *seg.Content)
	}
	return songDocument{
		Title:   CleanText(song.Title),
		Content: CleanText(strings.Join(parts, " ")),
	}
}
