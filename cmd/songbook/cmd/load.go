package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/songbook-app/songbook/internal/config"
	"github.com/songbook-app/songbook/internal/corpus"
	"github.com/songbook-app/songbook/internal/output"
	"github.com/songbook-app/songbook/internal/store"
)

func newLoadCmd() *cobra.Command {
	var file string
	var url string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the song corpus into the catalog",
		Long: `Load replaces the catalog's songs with the contents of a corpus JSON
asset, from a local file or an HTTP(S) URL. The replacement is atomic:
a failed load leaves the previous corpus untouched.

Examples:
  songbook load --file assets/songs.json
  songbook load --url https://example.org/assets/songs.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd.Context(), cmd, file, url)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Corpus JSON file path")
	cmd.Flags().StringVarP(&url, "url", "u", "", "Corpus JSON URL")

	return cmd
}

func runLoad(ctx context.Context, cmd *cobra.Command, file, url string) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if file == "" {
		file = cfg.Corpus.File
	}
	if url == "" {
		url = cfg.Corpus.URL
	}
	if file == "" && url == "" {
		return fmt.Errorf("no corpus source: pass --file or --url, or set corpus.file/corpus.url in .songbook.yaml")
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	songs, err := fetchCorpus(ctx, cfg, file, url)
	if err != nil {
		return err
	}

	if err := corpus.Apply(ctx, st, songs); err != nil {
		return err
	}

	out.Successf("Loaded %d songs into %s", st.GetSongsCount(ctx), cfg.Storage.Path)
	return nil
}

// fetchCorpus reads the corpus from the file when set, otherwise the URL.
func fetchCorpus(ctx context.Context, cfg *config.Config, file, url string) ([]store.Song, error) {
	if file != "" {
		return corpus.NewLoader(nil).ReadFile(file)
	}

	timeout, err := cfg.FetchTimeout()
	if err != nil {
		return nil, err
	}
	loader := corpus.NewLoader(&http.Client{Timeout: timeout})
	return loader.Fetch(ctx, url)
}
