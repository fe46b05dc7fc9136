// Package builtin holds the source plugins shipped with pairwatch.
package builtin

import (
	"time"

	"github.com/pders01/pairwatch/internal/plugins"
)

// NewRegistry returns a registry with every built-in plugin registered.
func NewRegistry(timeout time.Duration) *plugins.Registry {
	r := plugins.NewRegistry(timeout)
	r.Register(NewLetterboxdPlugin())
	r.Register(NewYouTubePlaylistPlugin())
	return r
}
