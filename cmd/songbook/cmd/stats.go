package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/songbook-app/songbook/internal/output"
	"github.com/songbook-app/songbook/internal/store"
)

// StatsOutput is the JSON output format for catalog stats.
type StatsOutput struct {
	Songs       int              `json:"songs"`
	Collections []CollectionStat `json:"collections"`
}

// CollectionStat summarizes one collection.
type CollectionStat struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Songs int    `json:"songs"`
}

func newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())
			return withStore(cmd.Context(), func(st *store.Store) error {
				ctx := cmd.Context()

				stats := StatsOutput{
					Songs:       st.GetSongsCount(ctx),
					Collections: []CollectionStat{},
				}
				collections, err := st.GetCollections(ctx)
				if err != nil {
					return err
				}
				for _, c := range collections {
					stats.Collections = append(stats.Collections, CollectionStat{
						ID:    c.ID,
						Name:  c.Name,
						Songs: st.GetSongsCountInCollection(ctx, c.ID),
					})
				}

				if jsonOutput {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(stats)
				}

				out.Statusf("🎵", "%d songs in catalog", stats.Songs)
				out.Statusf("📁", "%d collections", len(stats.Collections))
				for _, c := range stats.Collections {
					out.Statusf("", "%d. %s (%d songs)", c.ID, c.Name, c.Songs)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
