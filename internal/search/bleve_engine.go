package search

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/pairwatch/internal/debuglog"
	"github.com/pders01/pairwatch/internal/storage"
)

type BleveEngine struct {
	store EntrySource
	idx   bleve.Index
}

// NewBleveEngine creates or opens a Bleve index at indexPath and indexes current data.
func NewBleveEngine(store EntrySource, indexPath string) (*BleveEngine, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating index: %w", err)
		}
	}

	be := &BleveEngine{store: store, idx: idx}
	if err := be.reindexAll(); err != nil {
		_ = idx.Close()
		return nil, err
	}
	return be, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true
	title.IncludeTermVectors = true

	tags := bleve.NewTextFieldMapping()
	tags.Analyzer = standard.Name
	tags.Store = true

	notes := bleve.NewTextFieldMapping()
	notes.Analyzer = standard.Name
	notes.Store = false

	mediaType := bleve.NewTextFieldMapping()
	mediaType.Analyzer = keyword.Name
	mediaType.Store = true

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("tags", tags)
	dm.AddFieldMappingsAt("notes", notes)
	dm.AddFieldMappingsAt("media_type", mediaType)

	im.DefaultMapping = dm
	return im
}

func entryDoc(e *storage.Entry) map[string]any {
	return map[string]any{
		"title":      e.Title,
		"tags":       strings.Join(e.Tags, " "),
		"notes":      e.Notes,
		"media_type": e.MediaType,
		"status":     string(e.Status),
	}
}

// reindexAll indexes every stored entry and drops documents the store no
// longer has.
func (b *BleveEngine) reindexAll() error {
	entries, err := b.store.GetAllEntries()
	if err != nil {
		return err
	}

	live := make(map[string]struct{}, len(entries))
	batch := b.idx.NewBatch()
	for _, e := range entries {
		if e == nil || e.ID == "" || e.Title == "" {
			continue
		}
		live[e.ID] = struct{}{}
		if err := batch.Index(e.ID, entryDoc(e)); err != nil {
			return fmt.Errorf("indexing %s: %w", e.ID, err)
		}
	}

	indexed, err := b.indexedIDs()
	if err != nil {
		return fmt.Errorf("listing indexed entries: %w", err)
	}
	for _, id := range indexed {
		if _, ok := live[id]; !ok {
			batch.Delete(id)
		}
	}
	return b.idx.Batch(batch)
}

func (b *BleveEngine) indexedIDs() ([]string, error) {
	n, err := b.idx.DocCount()
	if err != nil || n == 0 {
		return nil, err
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(n), 0, false)
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

func (b *BleveEngine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	// OR of per-term matches and prefixes across fields, boosted by field.
	var qs []bleveQuery.Query
	for _, tok := range tokenize(query) {
		for _, f := range []struct {
			name  string
			boost float64
		}{
			{"title", titleWeight},
			{"tags", tagsWeight},
			{"notes", notesWeight},
		} {
			mq := bleve.NewMatchQuery(tok)
			mq.SetField(f.name)
			mq.SetBoost(f.boost)
			qs = append(qs, mq)

			pq := bleve.NewPrefixQuery(tok)
			pq.SetField(f.name)
			pq.SetBoost(f.boost * 0.8)
			qs = append(qs, pq)
		}
		tq := bleve.NewTermQuery(tok)
		tq.SetField("media_type")
		tq.SetBoost(typeWeight)
		qs = append(qs, tq)
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		entry, err := b.store.GetEntry(h.ID)
		if errors.Is(err, storage.ErrNotFound) {
			debuglog.WithFields(debuglog.Fields{"id": h.ID}).Warnf("dropping stale search hit")
			b.OnEntryDeleted(h.ID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", h.ID, err)
		}
		out = append(out, &Result{
			Entry:   entry,
			Score:   h.Score,
			Matches: []Match{{Field: "title", Text: entry.Title, Weight: h.Score}},
		})
	}
	return out, nil
}

// OnEntriesUpdated indexes the provided entries.
func (b *BleveEngine) OnEntriesUpdated(entries []*storage.Entry) {
	batch := b.idx.NewBatch()
	for _, e := range entries {
		if e == nil || e.ID == "" || e.Title == "" {
			continue
		}
		_ = batch.Index(e.ID, entryDoc(e))
	}
	if err := b.idx.Batch(batch); err != nil {
		debuglog.Errorf("index batch failed: %v", err)
	}
}

// OnEntryDeleted drops the document for id.
func (b *BleveEngine) OnEntryDeleted(id string) {
	if err := b.idx.Delete(id); err != nil {
		debuglog.Errorf("index delete %s failed: %v", id, err)
	}
}

// DocCount reports total documents in the index.
func (b *BleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	return int(n), err
}

func (b *BleveEngine) Close() error {
	return b.idx.Close()
}
