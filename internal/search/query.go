package search

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
)

// Result is one ranked hit. Title is deliberately left blank: the caller
// resolves display titles through the persistence store, keeping ranking
// decoupled from display-data fetch.
type Result struct {
	Number int     `json:"n"`
	Score  float64 `json:"score"`
	Title  string  `json:"title"`
}

// Search runs a fuzzy, ranked query against the index.
//
// An unbuilt (nil) index or a blank query yields an empty result without
// touching the underlying index. Each query term tolerates one edit
// (single-character typos still match). Results come back descending by
// score; ties keep the underlying ranking order. limit > 0 truncates after
// ordering; limit <= 0 means no limit.
//
// Search never propagates an index-level failure: search is best-effort UI
// functionality, so any error is logged and absorbed into an empty result.
func (ix *Index) Search(query string, limit int) []Result {
	if ix == nil || ix.idx == nil {
		return []Result{}
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []Result{}
	}

	titleQuery := bleve.NewMatchQuery(query)
	titleQuery.SetField(fieldTitle)
	titleQuery.SetFuzziness(1)
	titleQuery.SetBoost(titleBoost)

	contentQuery := bleve.NewMatchQuery(query)
	contentQuery.SetField(fieldContent)
	contentQuery.SetFuzziness(1)
	contentQuery.SetBoost(contentBoost)

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(titleQuery, contentQuery))
	if limit > 0 {
		req.Size = limit
	} else {
		req.Size = ix.docCount
	}

	res, err := ix.idx.Search(req)
	if err != nil {
		slog.Warn("search_failed",
			slog.String("query", query),
			slog.String("error", err.Error()))
		return []Result{}
	}

	results := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		n, err := strconv.Atoi(hit.ID)
		if err != nil {
			slog.Warn("search_bad_ref", slog.String("ref", hit.ID))
			continue
		}
		results = append(results, Result{Number: n, Score: hit.Score, Title: ""})
	}
	return results
}
