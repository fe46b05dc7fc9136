package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	List     ListConfig     `mapstructure:"list"`
	Import   ImportConfig   `mapstructure:"import"`
	UI       UIConfig       `mapstructure:"ui"`
	Keys     KeyConfig      `mapstructure:"keys"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

// ListConfig drives the list engine: windowing threshold, row geometry and
// search debounce.
type ListConfig struct {
	VirtualizeThreshold int           `mapstructure:"virtualize_threshold"`
	ItemHeight          int           `mapstructure:"item_height"`
	Buffer              int           `mapstructure:"buffer"`
	Debounce            time.Duration `mapstructure:"debounce"`
	ViewMode            string        `mapstructure:"view_mode"`
	GridCellWidth       int           `mapstructure:"grid_cell_width"`
}

type ImportConfig struct {
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"`
	UserAgent       string        `mapstructure:"user_agent"`
	AddedBy         string        `mapstructure:"added_by"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

type UIConfig struct {
	Locale        string   `mapstructure:"locale"`
	Colors        UIColors `mapstructure:"colors"`
	DefaultOpener string   `mapstructure:"default_opener"`
	TrailerPlayer string   `mapstructure:"trailer_player"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
}

type KeyConfig struct {
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit        string `mapstructure:"quit"`
	Search      string `mapstructure:"search"`
	Tags        string `mapstructure:"tags"`
	ToggleView  string `mapstructure:"toggle_view"`
	CycleStatus string `mapstructure:"cycle_status"`
	EditTags    string `mapstructure:"edit_tags"`
	Open        string `mapstructure:"open"`
	Back        string `mapstructure:"back"`
	Refresh     string `mapstructure:"refresh"`
	CopyLink    string `mapstructure:"copy_link"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Database: DatabaseConfig{
			Path:        filepath.Join(homeDir, ".pairwatch.db"),
			Timeout:     1 * time.Second,
			SearchIndex: filepath.Join(homeDir, ".pairwatch", "index.bleve"),
		},
		List: ListConfig{
			VirtualizeThreshold: 50,
			ItemHeight:          3,
			Buffer:              5,
			Debounce:            300 * time.Millisecond,
			ViewMode:            "list",
			GridCellWidth:       28,
		},
		Import: ImportConfig{
			HTTPTimeout:     30 * time.Second,
			UserAgent:       "pairwatch/1.0 (https://github.com/pders01/pairwatch)",
			RefreshInterval: 1 * time.Hour,
		},
		UI: UIConfig{
			Locale: "en",
			Colors: UIColors{
				Primary:    "#FF6B6B",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
			DefaultOpener: getDefaultOpener(),
			TrailerPlayer: "mpv",
		},
		Keys: KeyConfig{
			Bindings: KeyBindings{
				Quit:        "q",
				Search:      "/",
				Tags:        "t",
				ToggleView:  "v",
				CycleStatus: "s",
				EditTags:    "e",
				Open:        "o",
				Back:        "esc",
				Refresh:     "r",
				CopyLink:    "y",
			},
		},
		Log: LogConfig{
			Level: "off",
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Join(homeDir, ".config", "pairwatch"))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PAIRWATCH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)
	normalize(&config)

	return &config, nil
}

// setDefaults registers every leaf key so partially written sections still
// inherit the remaining defaults.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.timeout", cfg.Database.Timeout)
	v.SetDefault("database.search_index", cfg.Database.SearchIndex)

	v.SetDefault("list.virtualize_threshold", cfg.List.VirtualizeThreshold)
	v.SetDefault("list.item_height", cfg.List.ItemHeight)
	v.SetDefault("list.buffer", cfg.List.Buffer)
	v.SetDefault("list.debounce", cfg.List.Debounce)
	v.SetDefault("list.view_mode", cfg.List.ViewMode)
	v.SetDefault("list.grid_cell_width", cfg.List.GridCellWidth)

	v.SetDefault("import.http_timeout", cfg.Import.HTTPTimeout)
	v.SetDefault("import.user_agent", cfg.Import.UserAgent)
	v.SetDefault("import.added_by", cfg.Import.AddedBy)
	v.SetDefault("import.refresh_interval", cfg.Import.RefreshInterval)

	v.SetDefault("ui.locale", cfg.UI.Locale)
	v.SetDefault("ui.default_opener", cfg.UI.DefaultOpener)
	v.SetDefault("ui.trailer_player", cfg.UI.TrailerPlayer)
	c := cfg.UI.Colors
	for key, val := range map[string]string{
		"primary": c.Primary, "secondary": c.Secondary, "accent": c.Accent,
		"background": c.Background, "surface": c.Surface, "text": c.Text,
		"muted": c.Muted, "error": c.Error, "success": c.Success,
	} {
		v.SetDefault("ui.colors."+key, val)
	}

	b := cfg.Keys.Bindings
	for key, val := range map[string]string{
		"quit": b.Quit, "search": b.Search, "tags": b.Tags, "toggle_view": b.ToggleView,
		"cycle_status": b.CycleStatus, "edit_tags": b.EditTags, "open": b.Open,
		"back": b.Back, "refresh": b.Refresh, "copy_link": b.CopyLink,
	} {
		v.SetDefault("keys.bindings."+key, val)
	}

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
}

// normalize replaces unusable list geometry with defaults.
func normalize(cfg *Config) {
	def := defaultConfig().List
	if cfg.List.VirtualizeThreshold < 0 {
		cfg.List.VirtualizeThreshold = def.VirtualizeThreshold
	}
	if cfg.List.ItemHeight <= 0 {
		cfg.List.ItemHeight = def.ItemHeight
	}
	if cfg.List.Buffer < 0 {
		cfg.List.Buffer = def.Buffer
	}
	if cfg.List.Debounce <= 0 {
		cfg.List.Debounce = def.Debounce
	}
	if cfg.List.GridCellWidth <= 0 {
		cfg.List.GridCellWidth = def.GridCellWidth
	}
	if cfg.UI.Locale == "" {
		cfg.UI.Locale = "en"
	}
}

// ExpandPath expands ~ to the home directory and makes path absolute.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = ExpandPath(cfg.Database.SearchIndex)
	cfg.Log.File = ExpandPath(cfg.Log.File)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations as strings for TOML readability
	dbCfg := map[string]interface{}{
		"path":         config.Database.Path,
		"timeout":      config.Database.Timeout.String(),
		"search_index": config.Database.SearchIndex,
	}

	listCfg := map[string]interface{}{
		"virtualize_threshold": config.List.VirtualizeThreshold,
		"item_height":          config.List.ItemHeight,
		"buffer":               config.List.Buffer,
		"debounce":             config.List.Debounce.String(),
		"view_mode":            config.List.ViewMode,
		"grid_cell_width":      config.List.GridCellWidth,
	}

	importCfg := map[string]interface{}{
		"http_timeout":     config.Import.HTTPTimeout.String(),
		"user_agent":       config.Import.UserAgent,
		"added_by":         config.Import.AddedBy,
		"refresh_interval": config.Import.RefreshInterval.String(),
	}

	v.Set("database", dbCfg)
	v.Set("list", listCfg)
	v.Set("import", importCfg)
	c := config.UI.Colors
	uiCfg := map[string]interface{}{
		"locale":         config.UI.Locale,
		"default_opener": config.UI.DefaultOpener,
		"trailer_player": config.UI.TrailerPlayer,
		"colors": map[string]interface{}{
			"primary":    c.Primary,
			"secondary":  c.Secondary,
			"accent":     c.Accent,
			"background": c.Background,
			"surface":    c.Surface,
			"text":       c.Text,
			"muted":      c.Muted,
			"error":      c.Error,
			"success":    c.Success,
		},
	}

	b := config.Keys.Bindings
	keysCfg := map[string]interface{}{
		"bindings": map[string]interface{}{
			"quit":         b.Quit,
			"search":       b.Search,
			"tags":         b.Tags,
			"toggle_view":  b.ToggleView,
			"cycle_status": b.CycleStatus,
			"edit_tags":    b.EditTags,
			"open":         b.Open,
			"back":         b.Back,
			"refresh":      b.Refresh,
			"copy_link":    b.CopyLink,
		},
	}

	v.Set("ui", uiCfg)
	v.Set("keys", keysCfg)
	v.Set("log", map[string]interface{}{
		"level": config.Log.Level,
		"file":  config.Log.File,
	})

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
