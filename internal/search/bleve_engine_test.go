//go:build bleve

package search

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/pairwatch/internal/storage"
)

func TestBleveEngineIndexesAndSearches(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.SaveEntries([]*storage.Entry{
		{ID: "e1", Title: "Hello World", Tags: []string{"comedy"}, Notes: "greeting"},
		{ID: "e2", Title: "Golang Tips", Tags: []string{"docs"}, Notes: "Using bleve for full text search"},
	}))

	idxPath := filepath.Join(dir, "index.bleve")
	eng, err := NewBleveEngine(store, idxPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	res, err := eng.Search("Golang", 10)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(res), 1)
	assert.Equal(t, "e2", res[0].Entry.ID)

	res, err = eng.Search("bleve", 10)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(res), 1)

	res, err = eng.Search("comedy", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Hello World", res[0].Entry.Title)

	n, err := eng.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	fi, err := os.Stat(idxPath)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestBleveEngineListeners(t *testing.T) {
	dir := t.TempDir()
	src := &memSource{}
	eng, err := NewBleveEngine(src, filepath.Join(dir, "index.bleve"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	var _ UpdateListener = eng
	var _ DeleteListener = eng
	var _ Searcher = eng

	added := &storage.Entry{ID: "x1", Title: "Stalker", Tags: []string{"scifi"}}
	src.entries = append(src.entries, added)
	eng.OnEntriesUpdated([]*storage.Entry{added, {ID: "", Title: "skipped"}})

	res, err := eng.Search("stalker", 5)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Same(t, added, res[0].Entry)

	eng.OnEntryDeleted("x1")
	res, err = eng.Search("stalker", 5)
	require.NoError(t, err)
	assert.Empty(t, res)
}
