// Package importer loads watchlist entries from TOML, JSON or YAML files.
package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/pders01/pairwatch/internal/debuglog"
	"github.com/pders01/pairwatch/internal/search"
	"github.com/pders01/pairwatch/internal/storage"
	"github.com/pders01/pairwatch/internal/validation"
)

// tomlFile is the on-disk TOML layout: a list of [[entry]] tables.
type tomlFile struct {
	Entries []*storage.Entry `toml:"entry"`
}

// Result summarizes an import.
type Result struct {
	Path    string
	Read    int
	Added   int
	Updated int
}

type Importer struct {
	store     *storage.Store
	validator *validation.ImportFileValidator
	addedBy   string
	listener  search.UpdateListener
	now       func() time.Time
}

func New(store *storage.Store, addedBy string) *Importer {
	return &Importer{
		store:     store,
		validator: validation.NewImportFileValidator(),
		addedBy:   addedBy,
		now:       time.Now,
	}
}

// SetListener registers an index to be told about imported entries.
func (im *Importer) SetListener(l search.UpdateListener) {
	im.listener = l
}

// ImportFile validates path, decodes it by extension and merges the entries
// into the store.
func (im *Importer) ImportFile(path string) (*Result, error) {
	cleaned, format, err := im.validator.Validate(path)
	if err != nil {
		return nil, fmt.Errorf("invalid import file: %w", err)
	}

	data, err := os.ReadFile(cleaned)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", cleaned, err)
	}

	entries, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", cleaned, err)
	}

	res, err := im.Import(entries)
	if err != nil {
		return nil, err
	}
	res.Path = cleaned
	return res, nil
}

// Import normalizes entries and merges them into the store.
func (im *Importer) Import(entries []*storage.Entry) (*Result, error) {
	now := im.now()
	kept := make([]*storage.Entry, 0, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		im.normalize(e, now)
		kept = append(kept, e)
	}

	added, updated, err := im.store.MergeEntries(kept)
	if err != nil {
		return nil, fmt.Errorf("saving entries: %w", err)
	}
	if im.listener != nil && len(kept) > 0 {
		im.listener.OnEntriesUpdated(kept)
	}

	debuglog.WithFields(debuglog.Fields{"read": len(kept), "added": added, "updated": updated}).Infof("import finished")
	return &Result{Read: len(kept), Added: added, Updated: updated}, nil
}

// normalize trims fields and fills defaults. Records missing an id or title
// are stored as-is so the list view can report them.
func (im *Importer) normalize(e *storage.Entry, now time.Time) {
	e.ID = strings.TrimSpace(e.ID)
	e.Title = strings.TrimSpace(e.Title)

	tags := e.Tags[:0]
	for _, t := range e.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	e.Tags = tags

	if e.Status == "" {
		e.Status = storage.StatusPlanned
	} else if st, ok := storage.ParseStatus(string(e.Status)); ok {
		e.Status = st
	} else {
		debuglog.WithFields(debuglog.Fields{"id": e.ID, "status": e.Status}).Warnf("unknown status, using planned")
		e.Status = storage.StatusPlanned
	}

	if e.AddedBy == "" {
		e.AddedBy = im.addedBy
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = now
	}
	if e.ID == "" || e.Title == "" {
		debuglog.WithFields(debuglog.Fields{"id": e.ID, "title": e.Title}).Warnf("importing incomplete entry")
	}
}

// Decode reads entries in the given format.
func Decode(r io.Reader, format validation.ImportFormat) ([]*storage.Entry, error) {
	switch format {
	case validation.FormatTOML:
		var f tomlFile
		if err := toml.NewDecoder(r).Decode(&f); err != nil {
			return nil, err
		}
		return f.Entries, nil
	case validation.FormatJSON:
		var entries []*storage.Entry
		if err := json.NewDecoder(r).Decode(&entries); err != nil {
			return nil, err
		}
		return entries, nil
	case validation.FormatYAML:
		var entries []*storage.Entry
		if err := yaml.NewDecoder(r).Decode(&entries); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return entries, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// Encode writes entries in the given format; it is the inverse of Decode.
func Encode(w io.Writer, entries []*storage.Entry, format validation.ImportFormat) error {
	switch format {
	case validation.FormatTOML:
		return toml.NewEncoder(w).Encode(tomlFile{Entries: entries})
	case validation.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case validation.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
