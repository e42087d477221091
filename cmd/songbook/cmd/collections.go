package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/songbook-app/songbook/internal/output"
	"github.com/songbook-app/songbook/internal/store"
)

func newCollectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"col"},
		Short:   "Manage song collections",
		Long: `Collections group songs into named lists. A song can belong to many
collections, but only once to each.`,
	}

	cmd.AddCommand(newCollectionsListCmd())
	cmd.AddCommand(newCollectionsCreateCmd())
	cmd.AddCommand(newCollectionsDeleteCmd())
	cmd.AddCommand(newCollectionsShowCmd())
	cmd.AddCommand(newCollectionsAddCmd())
	cmd.AddCommand(newCollectionsRemoveCmd())
	cmd.AddCommand(newCollectionsForSongCmd())
	cmd.AddCommand(newCollectionsAvailableCmd())

	return cmd
}

// withStore handles the config-load/open/close boilerplate shared by every
// collections subcommand.
func withStore(ctx context.Context, fn func(st *store.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	return fn(st)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("collection id must be an integer, got %q", arg)
	}
	return id, nil
}

func parseNumber(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("song number must be an integer, got %q", arg)
	}
	return n, nil
}

func newCollectionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())
			return withStore(cmd.Context(), func(st *store.Store) error {
				collections, err := st.GetCollections(cmd.Context())
				if err != nil {
					return err
				}
				if len(collections) == 0 {
					out.Status("", "No collections yet. Create one with 'songbook collections create <name>'")
					return nil
				}
				for _, c := range collections {
					count := st.GetSongsCountInCollection(cmd.Context(), c.ID)
					out.Statusf("", "%d. %s (%d songs)", c.ID, c.Name, count)
				}
				return nil
			})
		},
	}
}

func newCollectionsCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())
			return withStore(cmd.Context(), func(st *store.Store) error {
				id, err := st.CreateCollection(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out.Successf("Created collection %q (id %d)", args[0], id)
				return nil
			})
		},
	}
}

func newCollectionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a collection and its memberships",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), func(st *store.Store) error {
				if err := st.DeleteCollection(cmd.Context(), id); err != nil {
					return err
				}
				out.Successf("Deleted collection %d", id)
				return nil
			})
		},
	}
}

func newCollectionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "List the songs in a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), func(st *store.Store) error {
				collection, err := st.GetCollection(cmd.Context(), id)
				if err != nil {
					return err
				}
				if collection == nil {
					return fmt.Errorf("collection %d not found", id)
				}

				songs, err := st.GetSongsInCollection(cmd.Context(), id)
				if err != nil {
					return err
				}

				out.Statusf("📁", "%s (%d songs)", collection.Name, len(songs))
				for _, s := range songs {
					out.Statusf("", "№%d %s", s.Number, s.Title)
				}
				return nil
			})
		},
	}
}

func newCollectionsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <id> <song-number>",
		Short: "Add a song to a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			number, err := parseNumber(args[1])
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), func(st *store.Store) error {
				if err := st.AddSongToCollection(cmd.Context(), id, number); err != nil {
					return err
				}
				out.Successf("Added song %d to collection %d", number, id)
				return nil
			})
		},
	}
}

func newCollectionsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id> <song-number>",
		Short: "Remove a song from a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			number, err := parseNumber(args[1])
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), func(st *store.Store) error {
				if err := st.RemoveSongFromCollection(cmd.Context(), id, number); err != nil {
					return err
				}
				out.Successf("Removed song %d from collection %d", number, id)
				return nil
			})
		},
	}
}

func newCollectionsForSongCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "for-song <song-number>",
		Short: "List the collections containing a song",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())
			number, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), func(st *store.Store) error {
				collections, err := st.GetCollectionsForSong(cmd.Context(), number)
				if err != nil {
					return err
				}
				if len(collections) == 0 {
					out.Statusf("", "Song %d is in no collections", number)
					return nil
				}
				for _, c := range collections {
					out.Statusf("", "%d. %s", c.ID, c.Name)
				}
				return nil
			})
		},
	}
}

func newCollectionsAvailableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "available <song-number>",
		Short: "List the collections a song is not yet in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())
			number, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), func(st *store.Store) error {
				collections, err := st.GetAvailableCollections(cmd.Context(), number)
				if err != nil {
					return err
				}
				if len(collections) == 0 {
					out.Statusf("", "Song %d is already in every collection", number)
					return nil
				}
				for _, c := range collections {
					out.Statusf("", "%d. %s", c.ID, c.Name)
				}
				return nil
			})
		},
	}
}
