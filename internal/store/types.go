// Package store is the persistence layer for the song catalog: the song
// corpus, user collections, and collection memberships, backed by SQLite.
package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	sberrors "github.com/songbook-app/songbook/internal/errors"
)

// SegmentType is the kind of a song body segment.
type SegmentType string

const (
	SegmentVerse  SegmentType = "verse"
	SegmentChorus SegmentType = "chorus"
)

// Segment is one unit of a song body, in body order.
type Segment struct {
	// ID is the segment's position within the song.
	ID int `json:"id"`

	// Type is verse or chorus.
	Type SegmentType `json:"type"`

	// Content is the segment text. Nil for "repeat previous chorus"
	// placeholder segments.
	Content *string `json:"content"`

	// RepeatID cross-references a prior chorus instance. It is stored and
	// round-tripped but never interpreted by this layer.
	RepeatID *string `json:"repeatId"`
}

// Song is a single catalog entry. Songs are immutable once loaded except via
// full-corpus replacement (ReplaceAllSongs).
type Song struct {
	// Number is the song's identity: positive, unique, the primary key.
	Number int `json:"number"`

	Title string `json:"title"`

	// Body is the ordered segment sequence.
	Body []Segment `json:"body"`
}

// Collection is a user-defined grouping of song references.
type Collection struct {
	// ID is auto-assigned, monotonically increasing, never reused.
	ID int64 `json:"id"`

	// Name is not required to be unique and may be empty.
	Name string `json:"name"`

	// CreatedAt and UpdatedAt are ISO-8601 (RFC 3339) UTC timestamps.
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Membership is one (collection, song) association row. The pair
// (CollectionID, SongNumber) is unique.
type Membership struct {
	ID           int64  `json:"id"`
	CollectionID int64  `json:"collectionId"`
	SongNumber   int    `json:"songNumber"`
	AddedAt      string `json:"addedAt"`
}

// flexInt decodes a JSON number or a numeric string. The original corpus
// asset carries numbers both ways, so the persistence boundary coerces.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if len(s) >= 2 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
	}
	if s == "null" || s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return sberrors.New(sberrors.ErrCodeInvalidNumber,
			fmt.Sprintf("not a numeric value: %q", s), err)
	}
	*f = flexInt(n)
	return nil
}

// segmentJSON is the lenient wire form of a Segment.
type segmentJSON struct {
	ID       flexInt     `json:"id"`
	Type     string      `json:"type"`
	Content  *string     `json:"content"`
	RepeatID interface{} `json:"repeatId"`
}

// UnmarshalJSON coerces segment fields to their canonical types: id to
// integer, type to string, content and repeatId to string-or-null.
func (s *Segment) UnmarshalJSON(data []byte) error {
	var raw segmentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.ID = int(raw.ID)
	s.Type = SegmentType(raw.Type)
	s.Content = normalizeText(raw.Content)
	s.RepeatID = coerceStringOrNil(raw.RepeatID)
	return nil
}

// songJSON is the lenient wire form of a Song. The corpus asset names the
// number field "n"; already-normalized records name it "number".
type songJSON struct {
	N      *flexInt  `json:"n"`
	Number *flexInt  `json:"number"`
	Title  string    `json:"title"`
	Body   []Segment `json:"body"`
}

// UnmarshalJSON coerces the song number to an integer, accepting either the
// asset field "n" or the canonical "number".
func (s *Song) UnmarshalJSON(data []byte) error {
	var raw songJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Number != nil:
		s.Number = int(*raw.Number)
	case raw.N != nil:
		s.Number = int(*raw.N)
	default:
		s.Number = 0
	}
	s.Title = raw.Title
	s.Body = raw.Body
	return nil
}

// normalizeText maps empty strings to nil so that absent and blank segment
// content are indistinguishable, as in the stored corpus.
func normalizeText(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// coerceStringOrNil coerces an arbitrary JSON value to string-or-nil.
func coerceStringOrNil(v interface{}) *string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
		return &t
	case float64:
		s := strconv.FormatFloat(t, 'f', -1, 64)
		return &s
	default:
		s := fmt.Sprintf("%v", t)
		return &s
	}
}

// validate checks a song before it is written.
func (s *Song) validate() error {
	if s.Number <= 0 {
		return sberrors.New(sberrors.ErrCodeInvalidNumber,
			fmt.Sprintf("song number must be positive, got %d", s.Number), nil)
	}
	return nil
}
