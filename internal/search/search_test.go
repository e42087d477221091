package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songbook-app/songbook/internal/store"
)

func strptr(s string) *string { return &s }

func song(n int, title string, contents ...string) store.Song {
	body := make([]store.Segment, 0, len(contents))
	for i, c := range contents {
		body = append(body, store.Segment{ID: i, Type: store.SegmentVerse, Content: strptr(c)})
	}
	return store.Song{Number: n, Title: title, Body: body}
}

func buildTestIndex(t *testing.T, songs []store.Song) *Index {
	t.Helper()
	ix, err := Build(songs)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "дождь идёт", "дождь идёт"},
		{"punctuation", "Дождь, дождь! (припев)", "Дождь дождь припев"},
		{"brackets and slashes", "[куплет] день/ночь", "куплет день ночь"},
		{"quotes and dashes", `"тихий" — нет, 'громкий'`, "тихий — нет громкий"},
		{"whitespace runs", "  много   пробелов \n тут ", "много пробелов тут"},
		{"empty", "", ""},
		{"only punctuation", "?!.,;:", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func TestPrepareSong_JoinsSegmentsSkippingNil(t *testing.T) {
	s := store.Song{
		Number: 5,
		Title:  "Название (первое)!",
		Body: []store.Segment{
			{ID: 0, Type: store.SegmentVerse, Content: strptr("первый куплет")},
			{ID: 1, Type: store.SegmentChorus, Content: nil, RepeatID: strptr("1")},
			{ID: 2, Type: store.SegmentVerse, Content: strptr("второй куплет")},
		},
	}

	doc := prepareSong(s)
	assert.Equal(t, "Название первое", doc.Title)
	assert.Equal(t, "первый куплет второй куплет", doc.Content)
}

func TestBuild_EmptyCorpus(t *testing.T) {
	ix := buildTestIndex(t, []store.Song{})
	assert.Equal(t, 0, ix.DocCount())
	assert.Empty(t, ix.Search("дождь", 0))
}

func TestSearch_NilIndexReturnsEmpty(t *testing.T) {
	var ix *Index
	assert.Empty(t, ix.Search("дождь", 0))
}

func TestSearch_BlankQueryReturnsEmpty(t *testing.T) {
	ix := buildTestIndex(t, []store.Song{song(1, "Дождь", "дождь идёт")})

	assert.Empty(t, ix.Search("", 0))
	assert.Empty(t, ix.Search("   ", 0))
	assert.Empty(t, ix.Search("\t\n", 0))
}

func TestSearch_FindsExactTerm(t *testing.T) {
	ix := buildTestIndex(t, []store.Song{
		song(1, "Осенний дождь", "дождь стучит в окно"),
		song(2, "Утренняя звезда", "звезда горит на небе"),
	})

	results := ix.Search("дождь", 0)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Number)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestSearch_TitleIsBlankInResults(t *testing.T) {
	// Display titles are resolved by the caller through the store.
	ix := buildTestIndex(t, []store.Song{song(1, "Дождь", "дождь идёт")})

	results := ix.Search("дождь", 0)
	require.NotEmpty(t, results)
	assert.Equal(t, "", results[0].Title)
}

func TestSearch_FuzzyMatchesSingleTypo(t *testing.T) {
	// Given: a corpus containing "дождь"
	ix := buildTestIndex(t, []store.Song{
		song(1, "Осенний дождь", "дождь стучит в окно"),
		song(2, "Утренняя звезда", "звезда горит на небе"),
	})

	// When: querying the misspelling "дожть"
	results := ix.Search("дожть", 0)

	// Then: the rain song still matches
	require.NotEmpty(t, results)
	assert.Equal(t, 1, results[0].Number)
}

func TestSearch_FuzzyTypoInTitleWord(t *testing.T) {
	// One substituted Cyrillic vowel is still a single edit
	ix := buildTestIndex(t, []store.Song{
		song(1, "Осенний дождь", "дождь стучит в окно"),
		song(2, "Утренняя звезда", "звезда горит на небе"),
	})

	results := ix.Search("звизда", 0)
	require.NotEmpty(t, results)
	assert.Equal(t, 2, results[0].Number)
}

func TestSearch_StemmingMatchesInflectedForms(t *testing.T) {
	ix := buildTestIndex(t, []store.Song{
		song(1, "Песня о дожде", "не было дождя весной"),
	})

	// Inflected query forms reduce to the same stem as the indexed text
	for _, q := range []string{"дождя", "дожде"} {
		results := ix.Search(q, 0)
		assert.NotEmpty(t, results, "query %q", q)
	}
}

func TestSearch_TitleOutranksBodyMatch(t *testing.T) {
	// Given: one song with the term in its title, one with it only in the body
	ix := buildTestIndex(t, []store.Song{
		song(1, "Дождь в городе", "город спит ночью"),
		song(2, "Тихая песня", "за окном дождь шумит"),
	})

	results := ix.Search("дождь", 0)
	require.Len(t, results, 2)

	// Then: the title match scores strictly higher
	assert.Equal(t, 1, results[0].Number)
	assert.Equal(t, 2, results[1].Number)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearch_ResultsDescendingByScore(t *testing.T) {
	ix := buildTestIndex(t, []store.Song{
		song(1, "Дождь", "дождь дождь дождь"),
		song(2, "Песня", "дождь прошёл"),
		song(3, "Другая", "солнце светит"),
	})

	results := ix.Search("дождь", 0)
	require.GreaterOrEqual(t, len(results), 2)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestSearch_LimitSemantics(t *testing.T) {
	corpus := []store.Song{
		song(1, "Дождь первый", "дождь"),
		song(2, "Дождь второй", "дождь"),
		song(3, "Дождь третий", "дождь"),
	}
	ix := buildTestIndex(t, corpus)

	// limit <= 0 means no limit, not no results
	assert.Len(t, ix.Search("дождь", 0), 3)
	assert.Len(t, ix.Search("дождь", -1), 3)

	// limit k > 0 returns min(k, total) from the head of the ranking
	all := ix.Search("дождь", 0)
	top2 := ix.Search("дождь", 2)
	require.Len(t, top2, 2)
	assert.Equal(t, all[0].Number, top2[0].Number)
	assert.Equal(t, all[1].Number, top2[1].Number)

	assert.Len(t, ix.Search("дождь", 10), 3)
}

func TestSearch_EndToEndRainCorpus(t *testing.T) {
	// Given: a corpus of three songs, two about rain
	ix := buildTestIndex(t, []store.Song{
		song(1, "Осенний дождь", "листья кружатся"),
		song(2, "Дождь в городе", "улицы мокрые"),
		song(3, "Утренняя звезда", "звезда горит на небе"),
	})

	// When: searching the shared term
	results := ix.Search("дождь", 0)

	// Then: both rain songs match, the unrelated one does not
	require.Len(t, results, 2)
	numbers := []int{results[0].Number, results[1].Number}
	assert.ElementsMatch(t, []int{1, 2}, numbers)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestBuild_IsPureFunctionOfInput(t *testing.T) {
	corpus := []store.Song{
		song(1, "Дождь", "дождь идёт"),
		song(2, "Звезда", "звезда горит"),
	}

	a := buildTestIndex(t, corpus)
	b := buildTestIndex(t, corpus)

	ra := a.Search("дождь", 0)
	rb := b.Search("дождь", 0)
	assert.Equal(t, ra, rb)
}
