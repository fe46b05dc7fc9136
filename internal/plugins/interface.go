package plugins

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// SourceInfo describes the watchlist feed behind a URL a user pasted.
type SourceInfo struct {
	// OriginalURL is what the user supplied.
	OriginalURL string
	// FeedURL is the RSS/Atom endpoint to import from.
	FeedURL string
	// Title is a display name for the source, empty if unknown.
	Title string
	// Metadata carries plugin specific details such as the account name.
	Metadata map[string]string
}

// Plugin turns a site specific page URL (a profile, a watchlist, a playlist)
// into the feed URL that lists its items.
type Plugin interface {
	Name() string

	// CanHandle reports whether url belongs to this plugin's site.
	CanHandle(url string) bool

	// Resolve maps url to a feed. It may use client to follow redirects or
	// scrape metadata.
	Resolve(ctx context.Context, url string, client *http.Client) (*SourceInfo, error)

	// Priority breaks ties when several plugins claim a URL; higher wins.
	Priority() int
}

type Registry struct {
	plugins []Plugin
	client  *http.Client
}

func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{
		plugins: make([]Plugin, 0),
		client:  &http.Client{Timeout: timeout},
	}
}

func (r *Registry) Register(plugin Plugin) {
	r.plugins = append(r.plugins, plugin)
}

// FindPlugin returns the highest priority plugin that can handle url, or nil.
func (r *Registry) FindPlugin(url string) Plugin {
	var best Plugin
	highest := -1

	for _, p := range r.plugins {
		if p.CanHandle(url) && p.Priority() > highest {
			best = p
			highest = p.Priority()
		}
	}
	return best
}

// Resolve asks the best plugin for url. Without one, url is assumed to be a
// feed already.
func (r *Registry) Resolve(ctx context.Context, url string) (*SourceInfo, error) {
	p := r.FindPlugin(url)
	if p == nil {
		return &SourceInfo{
			OriginalURL: url,
			FeedURL:     url,
			Metadata:    make(map[string]string),
		}, nil
	}
	return p.Resolve(ctx, url, r.client)
}

// ListPlugins returns registered plugins sorted by name.
func (r *Registry) ListPlugins() []Plugin {
	out := append([]Plugin(nil), r.plugins...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
