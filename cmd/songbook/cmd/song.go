package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/songbook-app/songbook/internal/output"
	"github.com/songbook-app/songbook/internal/store"
)

func newSongCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "song <number>",
		Short: "Show a song's lyrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("song number must be an integer, got %q", args[0])
			}
			return runSong(cmd.Context(), cmd, number)
		},
	}
	return cmd
}

func runSong(ctx context.Context, cmd *cobra.Command, number int) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	song, err := st.GetSong(ctx, number)
	if err != nil {
		return err
	}
	if song == nil {
		return fmt.Errorf("song %d not found", number)
	}

	out.Statusf("🎵", "№%d %s", song.Number, song.Title)
	out.Newline()
	for _, seg := range song.Body {
		if seg.Content == nil {
			continue
		}
		if seg.Type == store.SegmentChorus {
			out.Status("", "Припев:")
		}
		for _, line := range strings.Split(*seg.Content, "\n") {
			out.Status("", line)
		}
		out.Newline()
	}
	return nil
}
