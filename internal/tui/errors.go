package tui

import (
	"errors"
	"fmt"

	"github.com/pders01/pairwatch/internal/feed"
	"github.com/pders01/pairwatch/internal/storage"
)

// wrapErr formats an error with a contextual prefix.
func wrapErr(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// userError shortens well known errors for the one-line status bar.
func userError(err error) string {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return "entry no longer exists"
	case errors.Is(err, feed.ErrNotModified):
		return "feed unchanged"
	default:
		return err.Error()
	}
}
