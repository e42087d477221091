package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/songbook-app/songbook/internal/output"
	"github.com/songbook-app/songbook/internal/search"
)

type searchOptions struct {
	limit      int
	jsonOutput bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search song lyrics",
		Long: `Search song titles and lyrics. Matching uses Russian stemming, so
inflected word forms match, and tolerates single-character typos.
Title matches rank above lyrics matches.

Examples:
  songbook search дождь
  songbook search "тихая ночь" --limit 5
  songbook search дождь --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (0 = config default, -1 = unlimited)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// 0 defers to the configured cap; a negative flag value requests
	// unlimited results even when the config caps them.
	if opts.limit == 0 {
		opts.limit = cfg.Search.MaxResults
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	songs := st.GetAllSongs(ctx)
	if len(songs) == 0 {
		return fmt.Errorf("catalog is empty. Run 'songbook load' first")
	}

	ix, err := search.Build(songs)
	if err != nil {
		return fmt.Errorf("failed to build search index: %w", err)
	}
	defer func() { _ = ix.Close() }()

	slog.Info("search_started", slog.String("query", query), slog.Int("limit", opts.limit))
	results := ix.Search(query, opts.limit)
	slog.Info("search_complete", slog.Int("results", len(results)))

	titles, err := newTitleCache(st, cfg.Search.TitleCacheSize)
	if err != nil {
		return err
	}
	for i := range results {
		results[i].Title = titles.Title(ctx, results[i].Number)
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		out.Status("", fmt.Sprintf("No results for %q", query))
		return nil
	}

	out.Statusf("🔍", "Found %d results for %q:", len(results), query)
	out.Newline()
	for i, r := range results {
		out.Statusf("", "%d. №%d %s (score: %.2f)", i+1, r.Number, r.Title, r.Score)
	}
	return nil
}
