package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pders01/pairwatch/internal/config"
	"github.com/pders01/pairwatch/internal/debuglog"
	"github.com/pders01/pairwatch/internal/plugins"
	"github.com/pders01/pairwatch/internal/search"
	"github.com/pders01/pairwatch/internal/storage"
	"github.com/pders01/pairwatch/internal/validation"
)

const maxConcurrentRefresh = 5

// ErrNotModified is returned when a first import gets a 304.
var ErrNotModified = errors.New("feed not modified")

// Result summarizes one feed sync.
type Result struct {
	Source  *storage.FeedSource
	Added   int
	Updated int
	// Skipped is true when the server reported no changes.
	Skipped bool
}

// Manager imports watchlist feeds into the store and keeps them in sync.
type Manager struct {
	store        *storage.Store
	fetcher      *Fetcher
	parser       *Parser
	config       *config.Config
	urlValidator *validation.FeedURLValidator
	listener     search.UpdateListener
	registry     *plugins.Registry
	mu           sync.Mutex
}

func NewManager(store *storage.Store, cfg *config.Config) *Manager {
	return &Manager{
		store:        store,
		fetcher:      NewFetcher(cfg),
		parser:       NewParser(cfg.Import.AddedBy),
		config:       cfg,
		urlValidator: validation.NewFeedURLValidator(),
	}
}

// SetForceRefresh configures the manager to ignore ETag/Last-Modified headers
func (m *Manager) SetForceRefresh(force bool) {
	m.fetcher.SetIgnoreCache(force)
}

// SetPermissiveValidation allows localhost and private network feeds.
func (m *Manager) SetPermissiveValidation(permissive bool) {
	if permissive {
		m.urlValidator = validation.NewPermissiveFeedURLValidator()
	} else {
		m.urlValidator = validation.NewFeedURLValidator()
	}
}

// SetListener registers an index to be told about imported entries.
func (m *Manager) SetListener(l search.UpdateListener) {
	m.listener = l
}

// SetRegistry installs plugins that resolve site pages to feed URLs.
func (m *Manager) SetRegistry(r *plugins.Registry) {
	m.registry = r
}

// AddFeed validates rawURL, imports its items and remembers the feed. With a
// registry set, page URLs such as a Letterboxd profile are first resolved to
// their feed.
func (m *Manager) AddFeed(ctx context.Context, rawURL string) (*Result, error) {
	normalized, err := m.urlValidator.ValidateAndNormalize(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL: %w", err)
	}

	var title string
	if m.registry != nil {
		info, err := m.registry.Resolve(ctx, normalized)
		if err != nil {
			return nil, fmt.Errorf("resolving feed: %w", err)
		}
		if info.FeedURL != normalized {
			debuglog.WithFields(debuglog.Fields{"from": normalized, "to": info.FeedURL}).Infof("resolved feed URL")
			if normalized, err = m.urlValidator.ValidateAndNormalize(info.FeedURL); err != nil {
				return nil, fmt.Errorf("invalid resolved feed URL: %w", err)
			}
		}
		title = info.Title
	}

	src, err := m.store.GetSource(normalized)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("loading source: %w", err)
		}
		src = &storage.FeedSource{URL: normalized, Title: title}
	}

	res, err := m.sync(ctx, src)
	if err != nil {
		return nil, err
	}
	if res.Skipped && res.Source.LastFetched.IsZero() {
		return nil, ErrNotModified
	}
	return res, nil
}

// RefreshFeed re-syncs a known feed unless it was fetched within the
// configured refresh interval.
func (m *Manager) RefreshFeed(ctx context.Context, url string) (*Result, error) {
	src, err := m.store.GetSource(url)
	if err != nil {
		return nil, fmt.Errorf("getting source: %w", err)
	}
	if time.Since(src.LastFetched) < m.config.Import.RefreshInterval {
		return &Result{Source: src, Skipped: true}, nil
	}
	return m.sync(ctx, src)
}

func (m *Manager) sync(ctx context.Context, src *storage.FeedSource) (*Result, error) {
	log := debuglog.WithFields(debuglog.Fields{"feed": src.URL})

	resp, updated, err := m.fetcher.Fetch(ctx, src)
	if err != nil {
		log.Warnf("fetch failed: %v", err)
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	if !updated || resp == nil {
		log.Debugf("not modified")
		if src.LastFetched.IsZero() {
			return &Result{Source: src, Skipped: true}, nil
		}
		src.LastFetched = time.Now()
		if err := m.saveSource(src); err != nil {
			return nil, err
		}
		return &Result{Source: src, Skipped: true}, nil
	}
	defer resp.Body.Close()

	parsed, err := m.parser.Parse(resp.Body, src.URL)
	if err != nil {
		return nil, err
	}

	m.fetcher.UpdateSourceMetadata(src, resp)
	if parsed.Title != "" {
		src.Title = parsed.Title
	}
	if src.Title == "" {
		src.Title = src.URL
	}
	src.EntryCount = len(parsed.Entries)

	added, changed, err := m.store.MergeEntries(parsed.Entries)
	if err != nil {
		return nil, fmt.Errorf("saving entries: %w", err)
	}
	if err := m.saveSource(src); err != nil {
		return nil, err
	}

	if m.listener != nil && len(parsed.Entries) > 0 {
		m.listener.OnEntriesUpdated(parsed.Entries)
	}

	log.Infof("imported %d entries (%d new)", len(parsed.Entries), added)
	return &Result{Source: src, Added: added, Updated: changed}, nil
}

func (m *Manager) saveSource(src *storage.FeedSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.SaveSource(src); err != nil {
		return fmt.Errorf("saving source: %w", err)
	}
	return nil
}

// RefreshAllFeeds re-syncs every known feed with a small worker pool. Errors
// from individual feeds are joined.
func (m *Manager) RefreshAllFeeds(ctx context.Context) ([]*Result, error) {
	sources, err := m.store.GetAllSources()
	if err != nil {
		return nil, fmt.Errorf("getting sources: %w", err)
	}
	if len(sources) == 0 {
		return nil, nil
	}

	srcChan := make(chan *storage.FeedSource, len(sources))
	type outcome struct {
		res *Result
		err error
	}
	outChan := make(chan outcome, len(sources))

	var wg sync.WaitGroup
	for i := 0; i < maxConcurrentRefresh && i < len(sources); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range srcChan {
				res, err := m.RefreshFeed(ctx, src.URL)
				if err != nil {
					err = fmt.Errorf("%s: %w", src.URL, err)
				}
				outChan <- outcome{res: res, err: err}
			}
		}()
	}

	for _, src := range sources {
		srcChan <- src
	}
	close(srcChan)

	wg.Wait()
	close(outChan)

	var results []*Result
	var errs []error
	for o := range outChan {
		if o.err != nil {
			errs = append(errs, o.err)
			continue
		}
		results = append(results, o.res)
	}
	return results, errors.Join(errs...)
}
