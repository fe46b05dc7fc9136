package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/pairwatch/internal/config"
	"github.com/pders01/pairwatch/internal/debuglog"
	"github.com/pders01/pairwatch/internal/feed"
	"github.com/pders01/pairwatch/internal/plugins/builtin"
	"github.com/pders01/pairwatch/internal/search"
	"github.com/pders01/pairwatch/internal/storage"
	"github.com/pders01/pairwatch/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	dbPath     string
	configPath string
	logLevel   string
	logFile    string
	quiet      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "pairwatch",
		Short: "A shared watchlist for the terminal",
		Long: `pairwatch keeps a watchlist of films and shows you plan to watch together.

Run without a command to browse the list. Entries come from TOML, JSON or
YAML files and from Letterboxd or YouTube feeds.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "Path to database file (overrides config)")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to configuration file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Debug log level: off, error, warn, info, debug")
	root.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Debug log file (default ~/.pairwatch/pairwatch.log)")
	root.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Skip startup banner")

	root.AddCommand(
		newListCmd(opts),
		newTagsCmd(opts),
		newFindCmd(opts),
		newImportCmd(opts),
		newRemoveCmd(opts),
		newExportCmd(opts),
		newVersionCmd(),
		newConfigCmd(),
	)
	return root
}

// loadConfig reads the config file and applies flag overrides. It also
// configures debug logging, which every command shares.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if opts.dbPath != "" {
		cfg.Database.Path = config.ExpandPath(opts.dbPath)
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFile != "" {
		cfg.Log.File = config.ExpandPath(opts.logFile)
	}

	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore loads config and opens the database.
func openStore(opts *globalOptions) (*config.Config, *storage.Store, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.NewStoreWithTimeout(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database %s: %w", cfg.Database.Path, err)
	}
	return cfg, store, nil
}

// newFeedManager wires the built-in page resolvers and, when given, an index
// listener into a feed manager.
func newFeedManager(store *storage.Store, cfg *config.Config, listener search.UpdateListener) *feed.Manager {
	m := feed.NewManager(store, cfg)
	m.SetRegistry(builtin.NewRegistry(cfg.Import.HTTPTimeout))
	if listener != nil {
		m.SetListener(listener)
	}
	return m
}

func runTUI(cmd *cobra.Command, opts *globalOptions) error {
	cfg, store, err := openStore(opts)
	if err != nil {
		return err
	}
	defer store.Close()
	defer debuglog.Close()

	if !opts.quiet {
		tui.ShowBanner(Version)
	}
	tui.ApplyColors(cfg.UI.Colors)

	app := tui.NewApp(store, cfg)
	app.SetFeedManager(newFeedManager(store, cfg, nil))
	defer app.Stop()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
