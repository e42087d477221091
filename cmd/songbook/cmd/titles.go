package cmd

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/songbook-app/songbook/internal/store"
)

// titleCache memoizes song number to display title lookups. Search results
// carry no titles, so rendering a result list means one store read per hit;
// repeated queries in one session mostly hit the same songs.
type titleCache struct {
	st    *store.Store
	cache *lru.Cache[int, string]
}

func newTitleCache(st *store.Store, size int) (*titleCache, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[int, string](size)
	if err != nil {
		return nil, err
	}
	return &titleCache{st: st, cache: cache}, nil
}

// Title resolves the display title for a song number. Unknown numbers
// resolve to an empty string and are not cached.
func (tc *titleCache) Title(ctx context.Context, number int) string {
	if title, ok := tc.cache.Get(number); ok {
		return title
	}

	song, err := tc.st.GetSong(ctx, number)
	if err != nil || song == nil {
		return ""
	}
	tc.cache.Add(number, song.Title)
	return song.Title
}
