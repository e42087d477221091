package songtext

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sberrors "github.com/songbook-app/songbook/internal/errors"
)

const hymnalText = `ОБЩИЕ ПЕСНИ
1. 1. Дождь стучит в окно,
Листья кружатся.
Припев: Осень пришла,
Осень золотая.
2. Ветер шумит в саду,
Тихо поёт.
2. Припев: Звезда горит на небе.
1. Утром рано встану.

ДЕТСКИЕ
3. 1. Солнце светит ярко.
`

func TestParseNames(t *testing.T) {
	tsv := "1\tОсенний дождь\n\n2\tЗвезда\nbad line without tab\nx\tне число\n3\t\n"

	names, err := ParseNames(strings.NewReader(tsv))
	require.NoError(t, err)

	assert.Equal(t, map[int]string{1: "Осенний дождь", 2: "Звезда"}, names)
}

func TestParse_SectionsAndSongs(t *testing.T) {
	doc, err := Parse(hymnalText, nil)
	require.NoError(t, err)

	require.Len(t, doc.Sections, 2)
	assert.Equal(t, "ОБЩИЕ ПЕСНИ", doc.Sections[0].Title)
	assert.Equal(t, []int{1, 2}, doc.Sections[0].SongNs)
	assert.Equal(t, "ДЕТСКИЕ", doc.Sections[1].Title)
	assert.Equal(t, []int{3}, doc.Sections[1].SongNs)

	require.Len(t, doc.Songs, 3)
	assert.Equal(t, 1, doc.Songs[0].N)
	assert.Equal(t, 2, doc.Songs[1].N)
	assert.Equal(t, 3, doc.Songs[2].N)
}

func TestParse_SegmentTypesAndContent(t *testing.T) {
	doc, err := Parse(hymnalText, nil)
	require.NoError(t, err)

	body := doc.Songs[0].Body
	require.Len(t, body, 3)

	assert.Equal(t, segmentVerse, body[0].Type)
	require.NotNil(t, body[0].Content)
	assert.Equal(t, "Дождь стучит в окно,\nЛистья кружатся.", *body[0].Content)

	assert.Equal(t, segmentChorus, body[1].Type)
	require.NotNil(t, body[1].Content)
	assert.Equal(t, "Осень пришла,\nОсень золотая.", *body[1].Content)

	assert.Equal(t, segmentVerse, body[2].Type)
	require.NotNil(t, body[2].Content)
	assert.Equal(t, "Ветер шумит в саду,\nТихо поёт.", *body[2].Content)

	// Segment ids are positional within the song
	for i, seg := range body {
		assert.Equal(t, i, seg.ID)
	}
}

func TestParse_SongMayStartWithChorus(t *testing.T) {
	doc, err := Parse(hymnalText, nil)
	require.NoError(t, err)

	body := doc.Songs[1].Body
	require.Len(t, body, 2)
	assert.Equal(t, segmentChorus, body[0].Type)
	assert.Equal(t, segmentVerse, body[1].Type)
}

func TestParse_UppercaseLyricLineIsNotASectionHeader(t *testing.T) {
	// "Громкая строка." starts uppercase and precedes a numbered verse line,
	// but only fully uppercase lines open a section.
	text := "РАЗДЕЛ\n1. 1. Первый куплет,\nГромкая строка.\n2. Второй куплет.\n"

	doc, err := Parse(text, nil)
	require.NoError(t, err)

	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "РАЗДЕЛ", doc.Sections[0].Title)
	require.Len(t, doc.Songs, 1)
	require.Len(t, doc.Songs[0].Body, 2)
	assert.Equal(t, "Первый куплет,\nГромкая строка.", *doc.Songs[0].Body[0].Content)
	assert.Equal(t, "Второй куплет.", *doc.Songs[0].Body[1].Content)
}

func TestParse_TitlesFromNamesWithFallback(t *testing.T) {
	names := map[int]string{1: "Осенний дождь"}

	doc, err := Parse(hymnalText, names)
	require.NoError(t, err)

	assert.Equal(t, "Осенний дождь", doc.Songs[0].Title)
	// No names entry: the first line becomes the title
	assert.Equal(t, "Звезда горит на небе.", doc.Songs[1].Title)
}

func TestParse_FallbackTitleTruncated(t *testing.T) {
	longLine := strings.Repeat("дождь ", 20)
	text := "РАЗДЕЛ\n1. 1. " + longLine + "\n"

	doc, err := Parse(text, nil)
	require.NoError(t, err)
	require.Len(t, doc.Songs, 1)

	title := doc.Songs[0].Title
	assert.True(t, strings.HasSuffix(title, "..."))
	assert.LessOrEqual(t, len([]rune(title)), maxTitleLen+3)
}

func TestParse_NoSectionHeaders(t *testing.T) {
	_, err := Parse("1. 1. строка без раздела\n", nil)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, sberrors.New(sberrors.ErrCodeInvalidInput, "", nil)))
}

func TestCheck_NumberingSequence(t *testing.T) {
	ok := &Document{Songs: []Song{{ID: 0, N: 1}, {ID: 1, N: 2}}}
	require.NoError(t, Check(ok))

	gap := &Document{Songs: []Song{{ID: 0, N: 1}, {ID: 1, N: 3}}}
	require.Error(t, Check(gap))
}
