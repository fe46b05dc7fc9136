package importer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/pairwatch/internal/storage"
	"github.com/pders01/pairwatch/internal/validation"
)

const tomlList = `
[[entry]]
id = "heat"
title = "Heat"
tags = ["crime", " thriller ", ""]
status = "seen"
media_type = "movie"
year = 1995

[[entry]]
id = "twin-peaks"
title = "Twin Peaks"
tags = ["mystery"]
added_by = "sam"

[[entry]]
id = "no-title"
`

const jsonList = `[
  {"id": "alien", "title": "Alien", "tags": ["scifi", "horror"], "status": "watching"},
  {"id": "heat", "title": "Heat", "tags": ["drama"], "status": "bogus"}
]`

func newTestImporter(t *testing.T) (*Importer, *storage.Store) {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	im := New(store, "tester")
	im.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }
	return im, store
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

type recordingListener struct {
	n int
}

func (r *recordingListener) OnEntriesUpdated(entries []*storage.Entry) { r.n += len(entries) }

func TestImportFileTOML(t *testing.T) {
	im, store := newTestImporter(t)
	listener := &recordingListener{}
	im.SetListener(listener)

	res, err := im.ImportFile(writeFile(t, "list.toml", tomlList))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Read)
	assert.Equal(t, 3, res.Added)
	assert.Equal(t, 3, listener.n)
	assert.True(t, filepath.IsAbs(res.Path))

	heat, err := store.GetEntry("heat")
	require.NoError(t, err)
	assert.Equal(t, []string{"crime", "thriller"}, heat.Tags)
	assert.Equal(t, storage.StatusWatched, heat.Status)
	assert.Equal(t, 1995, heat.Year)
	assert.Equal(t, "tester", heat.AddedBy)
	assert.Equal(t, 2025, heat.UpdatedAt.Year())

	tp, err := store.GetEntry("twin-peaks")
	require.NoError(t, err)
	assert.Equal(t, "sam", tp.AddedBy)
	assert.Equal(t, storage.StatusPlanned, tp.Status)

	// Incomplete records are kept for the list view to reject.
	_, err = store.GetEntry("no-title")
	assert.NoError(t, err)
}

func TestImportFileJSONMergesWithExisting(t *testing.T) {
	im, store := newTestImporter(t)

	_, err := im.ImportFile(writeFile(t, "list.toml", tomlList))
	require.NoError(t, err)

	res, err := im.ImportFile(writeFile(t, "more.json", jsonList))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Updated)

	heat, err := store.GetEntry("heat")
	require.NoError(t, err)
	assert.Equal(t, storage.StatusWatched, heat.Status, "stored status wins on merge")
	assert.Equal(t, []string{"crime", "thriller", "drama"}, heat.Tags)

	alien, err := store.GetEntry("alien")
	require.NoError(t, err)
	assert.Equal(t, storage.StatusWatching, alien.Status)
}

func TestImportFileErrors(t *testing.T) {
	im, _ := newTestImporter(t)

	_, err := im.ImportFile(writeFile(t, "list.csv", "id,title"))
	assert.ErrorContains(t, err, "unsupported")

	_, err = im.ImportFile(writeFile(t, "broken.toml", "[[entry]\nid ="))
	assert.ErrorContains(t, err, "decoding")

	_, err = im.ImportFile(writeFile(t, "broken.json", `{"id": "x"}`))
	assert.ErrorContains(t, err, "decoding")

	_, err = im.ImportFile(writeFile(t, "broken.yaml", "id: [x"))
	assert.ErrorContains(t, err, "decoding")

	_, err = im.ImportFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestEncodeDecodeFormats(t *testing.T) {
	entries := []*storage.Entry{
		{ID: "heat", Title: "Heat", Tags: []string{"crime"}, Status: storage.StatusWatched, Year: 1995},
		{ID: "alien", Title: "Alien", Status: storage.StatusPlanned, Notes: "in space"},
	}

	for _, format := range []validation.ImportFormat{validation.FormatTOML, validation.FormatJSON, validation.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, entries, format))

			got, err := Decode(strings.NewReader(buf.String()), format)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "Heat", got[0].Title)
			assert.Equal(t, []string{"crime"}, got[0].Tags)
			assert.Equal(t, storage.StatusWatched, got[0].Status)
			assert.Equal(t, 1995, got[0].Year)
			assert.Equal(t, "in space", got[1].Notes)
		})
	}

	_, err := Decode(strings.NewReader(""), "csv")
	assert.Error(t, err)
}

func TestImportYAML(t *testing.T) {
	im, store := newTestImporter(t)

	const list = `
- id: stalker
  title: Stalker
  year: 1979
  tags: [tarkovsky, slow]
  status: watched
- id: mirror
  title: "  Mirror "
  notes: |
    Dreams and
    memories.
`
	res, err := im.ImportFile(writeFile(t, "list.yml", list))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)

	mirror, err := store.GetEntry("mirror")
	require.NoError(t, err)
	assert.Equal(t, "Mirror", mirror.Title)
	assert.Equal(t, storage.StatusPlanned, mirror.Status)
	assert.Equal(t, "Dreams and\nmemories.\n", mirror.Notes)

	stalker, err := store.GetEntry("stalker")
	require.NoError(t, err)
	assert.Equal(t, []string{"tarkovsky", "slow"}, stalker.Tags)
	assert.Equal(t, 1979, stalker.Year)
}
