package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/pairwatch/internal/config"
	"github.com/pders01/pairwatch/internal/importer"
	"github.com/pders01/pairwatch/internal/listing"
	"github.com/pders01/pairwatch/internal/search"
	"github.com/pders01/pairwatch/internal/storage"
	"github.com/pders01/pairwatch/internal/tui"
	"github.com/pders01/pairwatch/internal/validation"
)

func newListCmd(opts *globalOptions) *cobra.Command {
	var (
		query  string
		tags   []string
		status string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the watchlist, filtered and sorted by title",
		Example: `
pairwatch list
pairwatch list --tag noir --tag crime
pairwatch list --search heat --status planned
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := openStore(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			var want storage.Status
			if status != "" {
				st, ok := storage.ParseStatus(status)
				if !ok {
					return fmt.Errorf("unknown status %q", status)
				}
				want = st
			}

			entries, err := store.GetAllEntries()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			shown := 0
			for i, e := range listing.NewPipeline(cfg.UI.Locale).FilterAndSort(entries, query, tags) {
				if want != "" && e.Status != want {
					continue
				}
				fmt.Fprintln(out, listing.PlainItem(listing.ItemContext{Entry: e, Index: i, Mode: storage.ViewModeList, Height: 1}))
				shown++
			}
			if shown == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), tui.MsgNoMatches)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "search", "s", "", "Only titles containing this text")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Only entries with any of these tags")
	cmd.Flags().StringVar(&status, "status", "", "Only entries with this status")
	return cmd
}

func newTagsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List every tag with the number of entries using it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openStore(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.GetAllEntries()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, tc := range listing.TagCounts(entries) {
				fmt.Fprintf(w, "#%s\t%d\n", tc.Tag, tc.Count)
			}
			return w.Flush()
		},
	}
}

func newFindCmd(opts *globalOptions) *cobra.Command {
	var (
		limit int
		scan  bool
	)

	cmd := &cobra.Command{
		Use:   "find <query>",
		Short: "Rank entries by relevance across titles, tags and notes",
		Long: `Find searches titles, tags, notes and media types and prints the best
matches first. With database.search_index set, a persistent full-text index
is used; --scan ranks by scanning the database instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := openStore(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			var searcher search.Searcher = search.NewEngine(store)
			if !scan && cfg.Database.SearchIndex != "" {
				idx, err := search.NewBleveEngine(store, cfg.Database.SearchIndex)
				if err != nil {
					return fmt.Errorf("opening search index: %w", err)
				}
				defer idx.Close()
				searcher = idx
			}

			results, err := searcher.Search(strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), tui.MsgNoMatches)
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, r := range results {
				fmt.Fprintf(w, "%.2f\t%s\t%s\n", r.Score,
					listing.PlainItem(listing.ItemContext{Entry: r.Entry, Mode: storage.ViewModeList, Height: 1}),
					matchedFields(r.Matches))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().BoolVar(&scan, "scan", false, "Scan the database instead of using the index")
	return cmd
}

func matchedFields(matches []search.Match) string {
	seen := make(map[string]bool, len(matches))
	var fields []string
	for _, m := range matches {
		if !seen[m.Field] {
			seen[m.Field] = true
			fields = append(fields, m.Field)
		}
	}
	return strings.Join(fields, ",")
}

func newImportCmd(opts *globalOptions) *cobra.Command {
	var (
		feeds      []string
		refresh    bool
		force      bool
		permissive bool
	)

	cmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Import entries from TOML/JSON/YAML files or feeds",
		Example: `
pairwatch import watchlist.toml
pairwatch import --feed https://letterboxd.com/someone/watchlist/
pairwatch import --refresh
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(feeds) == 0 && !refresh {
				return errors.New("nothing to import: pass a file, --feed or --refresh")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := openStore(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			listener, closeIndex := openIndexListener(cfg, store)
			defer closeIndex()

			out := cmd.OutOrStdout()
			var errs []error

			im := importer.New(store, cfg.Import.AddedBy)
			if listener != nil {
				im.SetListener(listener)
			}
			for _, path := range args {
				res, err := im.ImportFile(path)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(out, "%s: %d read • %d new • %d updated\n", filepath.Base(res.Path), res.Read, res.Added, res.Updated)
			}

			if len(feeds) == 0 && !refresh {
				return errors.Join(errs...)
			}

			m := newFeedManager(store, cfg, listener)
			m.SetForceRefresh(force)
			m.SetPermissiveValidation(permissive)

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			for _, u := range feeds {
				res, err := m.AddFeed(ctx, u)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", u, err))
					continue
				}
				fmt.Fprintf(out, "%s: %d new • %d updated\n", res.Source.Title, res.Added, res.Updated)
			}

			if refresh {
				results, err := m.RefreshAllFeeds(ctx)
				added, updated := 0, 0
				for _, r := range results {
					added += r.Added
					updated += r.Updated
				}
				fmt.Fprintln(out, tui.MsgRefreshSummary(len(results), added, updated, countErrors(err)))
				if err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().StringSliceVar(&feeds, "feed", nil, "Feed or page URL to import (repeatable)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Re-sync every known feed")
	cmd.Flags().BoolVar(&force, "force", false, "Ignore ETag/Last-Modified when fetching")
	cmd.Flags().BoolVar(&permissive, "allow-private", false, "Allow localhost and private network feeds")
	return cmd
}

// openIndexListener opens the search index when one already exists on disk,
// so imports keep it current. The returned func closes it.
func openIndexListener(cfg *config.Config, store *storage.Store) (search.UpdateListener, func()) {
	noop := func() {}
	if cfg.Database.SearchIndex == "" {
		return nil, noop
	}
	if _, err := os.Stat(cfg.Database.SearchIndex); err != nil {
		return nil, noop
	}
	idx, err := search.NewBleveEngine(store, cfg.Database.SearchIndex)
	if err != nil {
		return nil, noop
	}
	return idx, func() { _ = idx.Close() }
}

func countErrors(err error) int {
	if err == nil {
		return 0
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return len(joined.Unwrap())
	}
	return 1
}

func newRemoveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete entries by id",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := openStore(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			listener, closeIndex := openIndexListener(cfg, store)
			defer closeIndex()
			deleted, _ := listener.(search.DeleteListener)

			var errs []error
			for _, id := range args {
				if err := store.DeleteEntry(id); err != nil {
					errs = append(errs, err)
					continue
				}
				if deleted != nil {
					deleted.OnEntryDeleted(id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", id)
			}
			return errors.Join(errs...)
		},
	}
}

func newExportCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the watchlist to stdout as TOML, JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := validation.ImportFormat(strings.ToLower(format))
			if f == "yml" {
				f = validation.FormatYAML
			}
			if f != validation.FormatTOML && f != validation.FormatJSON && f != validation.FormatYAML {
				return fmt.Errorf("unsupported format %q", format)
			}

			cfg, store, err := openStore(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.GetAllEntries()
			if err != nil {
				return err
			}
			sorted := listing.NewPipeline(cfg.UI.Locale).FilterAndSort(entries, "", nil)
			return importer.Encode(cmd.OutOrStdout(), sorted, f)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "toml", "Output format: toml, json or yaml")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pairwatch %s\n", Version)
			fmt.Fprintln(out, "Shared watchlist")
			fmt.Fprintln(out, "github.com/pders01/pairwatch")
		},
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var path string
	gen := &cobra.Command{
		Use:   "generate",
		Short: "Write the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				path = filepath.Join(home, ".config", "pairwatch", "config.toml")
			}
			if err := config.GenerateDefaultConfig(path); err != nil {
				return fmt.Errorf("failed to generate config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", path)
			return nil
		},
	}
	gen.Flags().StringVarP(&path, "output", "o", "", "Where to write the file (default ~/.config/pairwatch/config.toml)")

	cmd.AddCommand(gen)
	return cmd
}
