package storage

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	entriesBucket = []byte("entries")
	prefsBucket   = []byte("prefs")
	sourcesBucket = []byte("sources")

	viewModeKey = []byte("view_mode")
)

// ErrNotFound is returned when an entry id has no record.
var ErrNotFound = errors.New("entry not found")

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	return NewStoreWithTimeout(dbPath, 1*time.Second)
}

// NewStoreWithTimeout opens the database, waiting at most timeout for the file lock.
func NewStoreWithTimeout(dbPath string, timeout time.Duration) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{entriesBucket, prefsBucket, sourcesBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// entryKey returns the bucket key for e. Records without an id are still kept
// (under a content hash) so the list engine can see and reject them.
func entryKey(e *Entry) []byte {
	if e.ID != "" {
		return []byte(e.ID)
	}
	sum := sha256.Sum256([]byte(e.Title + "\x00" + e.Link + "\x00" + e.Notes))
	return []byte(fmt.Sprintf("~%x", sum[:8]))
}

func (s *Store) SaveEntry(entry *Entry) error {
	return s.SaveEntries([]*Entry{entry})
}

func (s *Store) SaveEntries(entries []*Entry) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(entriesBucket)
		for _, entry := range entries {
			if entry == nil {
				continue
			}
			data, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			if err := b.Put(entryKey(entry), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// MergeEntries upserts imported entries. For ids already stored, the
// user's status is kept, tags are unioned, and empty incoming fields do not
// overwrite stored ones. It reports how many records were added and updated.
func (s *Store) MergeEntries(entries []*Entry) (added, updated int, err error) {
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(entriesBucket)
		for _, in := range entries {
			if in == nil {
				continue
			}
			key := entryKey(in)
			merged := *in
			if data := b.Get(key); data != nil {
				var existing Entry
				if err := json.Unmarshal(data, &existing); err == nil {
					merged = mergeEntry(existing, *in)
					updated++
				} else {
					added++
				}
			} else {
				added++
			}
			if merged.UpdatedAt.IsZero() {
				merged.UpdatedAt = time.Now()
			}
			data, err := json.Marshal(merged)
			if err != nil {
				return err
			}
			if err := b.Put(key, data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return added, updated, nil
}

func mergeEntry(existing, in Entry) Entry {
	out := existing
	if in.Title != "" {
		out.Title = in.Title
	}
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&out.MediaType, in.MediaType},
		{&out.Link, in.Link},
		{&out.Notes, in.Notes},
		{&out.AddedBy, in.AddedBy},
	} {
		if *f.dst == "" {
			*f.dst = f.src
		}
	}
	if out.Year == 0 {
		out.Year = in.Year
	}
	if out.Status == "" {
		out.Status = in.Status
	}

	seen := make(map[string]struct{}, len(out.Tags))
	tags := append([]string(nil), out.Tags...)
	for _, t := range tags {
		seen[t] = struct{}{}
	}
	for _, t := range in.Tags {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	out.Tags = tags
	out.UpdatedAt = time.Now()
	return out
}

func (s *Store) GetEntry(id string) (*Entry, error) {
	var entry Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(entriesBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetAllEntries returns every stored record in key order. Records are not
// validated here; undecodable values are skipped.
func (s *Store) GetAllEntries() ([]*Entry, error) {
	var entries []*Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(entriesBucket).ForEach(func(_ []byte, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return nil
			}
			entries = append(entries, &entry)
			return nil
		})
	})
	return entries, err
}

func (s *Store) UpdateStatus(id string, status Status) error {
	return s.mutate(id, func(e *Entry) {
		e.Status = status
	})
}

func (s *Store) UpdateTags(id string, tags []string) error {
	return s.mutate(id, func(e *Entry) {
		e.Tags = append([]string(nil), tags...)
	})
}

func (s *Store) mutate(id string, fn func(*Entry)) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(entriesBucket)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		}

		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			return err
		}

		fn(&entry)
		entry.UpdatedAt = time.Now()

		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), data)
	})
}

func (s *Store) DeleteEntry(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(entriesBucket)
		if b.Get([]byte(id)) == nil {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return b.Delete([]byte(id))
	})
}

// GetViewMode returns the stored layout preference, or fallback when unset.
func (s *Store) GetViewMode(fallback ViewMode) (ViewMode, error) {
	mode := fallback
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(prefsBucket).Get(viewModeKey); v != nil {
			mode = ParseViewMode(string(v))
		}
		return nil
	})
	return mode, err
}

func (s *Store) SetViewMode(mode ViewMode) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(prefsBucket).Put(viewModeKey, []byte(mode))
	})
}

func (s *Store) SaveSource(src *FeedSource) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(src)
		if err != nil {
			return err
		}
		return tx.Bucket(sourcesBucket).Put([]byte(src.URL), data)
	})
}

func (s *Store) GetSource(url string) (*FeedSource, error) {
	var src FeedSource
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(sourcesBucket).Get([]byte(url))
		if data == nil {
			return fmt.Errorf("source %s: %w", url, ErrNotFound)
		}
		return json.Unmarshal(data, &src)
	})
	if err != nil {
		return nil, err
	}
	return &src, nil
}

func (s *Store) GetAllSources() ([]*FeedSource, error) {
	var sources []*FeedSource
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(sourcesBucket).ForEach(func(_ []byte, v []byte) error {
			var src FeedSource
			if err := json.Unmarshal(v, &src); err != nil {
				return err
			}
			sources = append(sources, &src)
			return nil
		})
	})
	return sources, err
}
