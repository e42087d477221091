package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/songbook-app/songbook/internal/corpus"
	"github.com/songbook-app/songbook/internal/output"
	"github.com/songbook-app/songbook/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the corpus file and reload on change",
		Long: `Watch keeps the catalog in sync with a corpus file: every time the
file changes, the catalog is atomically reloaded. Runs until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cmd, file)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Corpus JSON file path")
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, file string) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if file == "" {
		file = cfg.Corpus.File
	}
	if file == "" {
		return fmt.Errorf("no corpus file: pass --file or set corpus.file in .songbook.yaml")
	}

	debounce, err := cfg.WatchDebounce()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	loader := corpus.NewLoader(nil)
	reload := func(ctx context.Context) error {
		songs, err := loader.ReadFile(file)
		if err != nil {
			return err
		}
		return corpus.Apply(ctx, st, songs)
	}

	// Initial load so the catalog reflects the file before the first change
	if err := reload(ctx); err != nil {
		return err
	}
	out.Successf("Loaded %s, watching for changes", file)

	w, err := watcher.New(file, reload, watcher.Options{DebounceWindow: debounce})
	if err != nil {
		return err
	}

	err = w.Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
