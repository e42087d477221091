package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/songbook-app/songbook/internal/output"
	"github.com/songbook-app/songbook/internal/songtext"
)

func newParseCmd() *cobra.Command {
	var namesPath string
	var outPath string

	cmd := &cobra.Command{
		Use:   "parse <hymnal.txt>",
		Short: "Convert a raw hymnal text file into a corpus JSON asset",
		Long: `Parse reads a plain-text hymnal (numbered songs with verse and chorus
markers, grouped under section headers) and produces the corpus JSON
asset that 'songbook load' consumes.

An optional names file (tab-separated "number<TAB>title") supplies
display titles; songs without an entry use their first line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args[0], namesPath, outPath)
		},
	}

	cmd.Flags().StringVar(&namesPath, "names", "", "Tab-separated song titles file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "songs.json", "Output JSON path")

	return cmd
}

func runParse(cmd *cobra.Command, textPath, namesPath, outPath string) error {
	out := output.New(cmd.OutOrStdout())

	raw, err := os.ReadFile(textPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", textPath, err)
	}

	names := map[int]string{}
	if namesPath != "" {
		f, err := os.Open(namesPath)
		if err != nil {
			return fmt.Errorf("failed to open names file: %w", err)
		}
		names, err = songtext.ParseNames(f)
		_ = f.Close()
		if err != nil {
			return err
		}
	}

	doc, err := songtext.Parse(string(raw), names)
	if err != nil {
		return err
	}

	if err := songtext.Check(doc); err != nil {
		out.Warningf("Numbering check failed: %v", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	out.Successf("Parsed %d songs in %d sections into %s", len(doc.Songs), len(doc.Sections), outPath)
	return nil
}
