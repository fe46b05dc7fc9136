package search

import "github.com/pders01/pairwatch/internal/storage"

// Searcher is the ranked lookup used by the find command.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
}

// EntrySource is the read side of the store the engines need.
type EntrySource interface {
	GetAllEntries() ([]*storage.Entry, error)
	GetEntry(id string) (*storage.Entry, error)
}

// UpdateListener can be implemented by engines that maintain an external
// index and want to be told about imported or edited entries.
type UpdateListener interface {
	OnEntriesUpdated(entries []*storage.Entry)
}

// DeleteListener is notified when an entry is removed from the store.
type DeleteListener interface {
	OnEntryDeleted(id string)
}

// DebugStatser provides lightweight stats for visibility/debugging.
type DebugStatser interface {
	DocCount() (int, error)
}
