package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pders01/pairwatch/internal/config"
	"github.com/pders01/pairwatch/internal/feed"
	"github.com/pders01/pairwatch/internal/importer"
	"github.com/pders01/pairwatch/internal/listing"
	"github.com/pders01/pairwatch/internal/search"
	"github.com/pders01/pairwatch/internal/storage"
)

const watchlistRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel>
    <title>sam's watchlist</title>
    <link>https://letterboxd.com/sam/watchlist/</link>
    <item>
      <title>Heat (1995)</title>
      <link>https://letterboxd.com/film/heat-1995/</link>
      <guid>letterboxd-watch-1</guid>
      <category>Film</category>
      <category>Crime</category>
      <dc:creator>sam</dc:creator>
      <description><![CDATA[<p>Pacino &amp; De Niro.</p>]]></description>
    </item>
    <item>
      <title>Chinatown (1974)</title>
      <link>https://letterboxd.com/film/chinatown/</link>
      <guid>letterboxd-watch-2</guid>
      <category>film</category>
      <category>noir</category>
      <dc:creator>sam</dc:creator>
    </item>
    <item>
      <title>Twin Peaks</title>
      <link>https://www.youtube.com/watch?v=trailer</link>
      <guid>letterboxd-watch-3</guid>
      <category>series</category>
      <category>mystery</category>
      <category>Noir</category>
    </item>
  </channel>
</rss>`

const watchlistAtom = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>alex's list</title>
  <id>urn:alex</id>
  <updated>2025-01-02T00:00:00Z</updated>
  <entry>
    <title>Paddington 2 (2017)</title>
    <id>urn:alex:1</id>
    <updated>2025-01-02T00:00:00Z</updated>
    <link href="https://letterboxd.com/film/paddington-2/"/>
    <author><name>alex</name></author>
    <category term="comedy"/>
  </entry>
  <entry>
    <title>Heat (1995)</title>
    <id>urn:alex:2</id>
    <updated>2025-01-01T00:00:00Z</updated>
    <link href="https://letterboxd.com/film/heat-1995/"/>
    <author><name>alex</name></author>
  </entry>
</feed>`

const etag = `"watchlist-v1"`

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/watchlist.rss", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
		w.Header().Set("Last-Modified", "Wed, 01 Jan 2025 00:00:00 GMT")
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, watchlistRSS)
	})
	mux.HandleFunc("/watchlist.atom", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, watchlistAtom)
	})
	mux.HandleFunc("/rate-limited.rss", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setupTestEnvironment(t *testing.T) (*storage.Store, *feed.Manager, *config.Config) {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := config.TestConfig()
	manager := feed.NewManager(store, cfg)
	// httptest listens on localhost
	manager.SetPermissiveValidation(true)
	return store, manager, cfg
}

func TestIntegration_ImportRSSFeed(t *testing.T) {
	srv := newFeedServer(t)
	store, manager, _ := setupTestEnvironment(t)

	res, err := manager.AddFeed(context.Background(), srv.URL+"/watchlist.rss")
	if err != nil {
		t.Fatalf("Failed to add RSS feed: %v", err)
	}
	if res.Added != 3 {
		t.Errorf("Expected 3 new entries, got %d", res.Added)
	}
	if res.Source.Title != "sam's watchlist" {
		t.Errorf("Expected feed title from channel, got %q", res.Source.Title)
	}
	if res.Source.ETag != etag {
		t.Errorf("Expected ETag %s, got %s", etag, res.Source.ETag)
	}

	entries, err := store.GetAllEntries()
	if err != nil {
		t.Fatal(err)
	}
	sorted := listing.FilterAndSort(entries, "", nil)
	var titles []string
	for _, e := range sorted {
		titles = append(titles, e.Title)
	}
	if strings.Join(titles, "|") != "Chinatown|Heat|Twin Peaks" {
		t.Errorf("Unexpected titles: %v", titles)
	}

	heat := sorted[1]
	if heat.Year != 1995 || heat.MediaType != "movie" || heat.AddedBy != "sam" {
		t.Errorf("Heat parsed wrong: year=%d type=%q by=%q", heat.Year, heat.MediaType, heat.AddedBy)
	}
	if heat.Notes != "Pacino & De Niro." {
		t.Errorf("Expected HTML stripped notes, got %q", heat.Notes)
	}
	if heat.Status != storage.StatusPlanned {
		t.Errorf("Expected planned status, got %s", heat.Status)
	}

	noir := listing.FilterAndSort(entries, "", []string{"noir"})
	if len(noir) != 2 {
		t.Errorf("Expected 2 noir entries, got %d", len(noir))
	}
	if got := listing.ExtractTags(entries); strings.Join(got, ",") != "crime,mystery,noir" {
		t.Errorf("Unexpected tags: %v", got)
	}
}

func TestIntegration_ImportAtomFeed(t *testing.T) {
	srv := newFeedServer(t)
	store, manager, _ := setupTestEnvironment(t)

	if _, err := manager.AddFeed(context.Background(), srv.URL+"/watchlist.atom"); err != nil {
		t.Fatalf("Failed to add Atom feed: %v", err)
	}

	entries, err := store.GetAllEntries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(entries))
	}
}

func TestIntegration_CachingHeaders(t *testing.T) {
	srv := newFeedServer(t)
	_, manager, _ := setupTestEnvironment(t)

	url := srv.URL + "/watchlist.rss"
	first, err := manager.AddFeed(context.Background(), url)
	if err != nil {
		t.Fatalf("Failed to add feed: %v", err)
	}
	if first.Source.LastModified == "" {
		t.Error("Expected Last-Modified to be stored")
	}

	// Second fetch sends If-None-Match and gets a 304.
	again, err := manager.RefreshFeed(context.Background(), first.Source.URL)
	if err != nil {
		t.Fatalf("Refresh should handle 304 response: %v", err)
	}
	if !again.Skipped {
		t.Error("Expected refresh to be skipped as not modified")
	}

	// Forced refresh ignores the cache headers and re-merges.
	manager.SetForceRefresh(true)
	forced, err := manager.RefreshFeed(context.Background(), first.Source.URL)
	if err != nil {
		t.Fatal(err)
	}
	if forced.Skipped || forced.Added != 0 || forced.Updated != 3 {
		t.Errorf("Expected 3 merged entries on forced refresh, got %+v", forced)
	}
}

func TestIntegration_RateLimiting(t *testing.T) {
	srv := newFeedServer(t)
	_, manager, _ := setupTestEnvironment(t)

	if _, err := manager.AddFeed(context.Background(), srv.URL+"/rate-limited.rss"); err == nil {
		t.Error("Expected error for rate limited feed, got nil")
	}
}

func TestIntegration_RefreshAllKeepsUserEdits(t *testing.T) {
	srv := newFeedServer(t)
	store, manager, _ := setupTestEnvironment(t)
	manager.SetForceRefresh(true)

	for _, path := range []string{"/watchlist.rss", "/watchlist.atom"} {
		if _, err := manager.AddFeed(context.Background(), srv.URL+path); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := store.GetAllEntries()
	if err != nil {
		t.Fatal(err)
	}
	target := listing.FilterAndSort(entries, "twin", nil)
	if len(target) != 1 {
		t.Fatalf("Expected one Twin Peaks entry, got %d", len(target))
	}
	id := target[0].ID
	if err := store.UpdateStatus(id, storage.StatusWatching); err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateTags(id, []string{"lynch"}); err != nil {
		t.Fatal(err)
	}

	results, err := manager.RefreshAllFeeds(context.Background())
	if err != nil {
		t.Fatalf("RefreshAllFeeds failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Expected 2 refreshed feeds, got %d", len(results))
	}

	got, err := store.GetEntry(id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != storage.StatusWatching {
		t.Errorf("Refresh overwrote status: %s", got.Status)
	}
	if strings.Join(got.Tags, ",") != "lynch,mystery,noir" {
		t.Errorf("Expected user tags kept and feed tags merged, got %v", got.Tags)
	}
}

func TestIntegration_FileImportFeedsSearchIndex(t *testing.T) {
	srv := newFeedServer(t)
	store, manager, cfg := setupTestEnvironment(t)

	idx, err := search.NewBleveEngine(store, filepath.Join(t.TempDir(), "index.bleve"))
	if err != nil {
		t.Fatalf("Failed to open index: %v", err)
	}
	defer idx.Close()
	manager.SetListener(idx)

	if _, err := manager.AddFeed(context.Background(), srv.URL+"/watchlist.rss"); err != nil {
		t.Fatal(err)
	}

	file := filepath.Join(t.TempDir(), "extra.toml")
	data := "[[entry]]\nid = \"stalker-1979\"\ntitle = \"Stalker\"\nyear = 1979\ntags = [\"tarkovsky\"]\nnotes = \"The Zone.\"\n"
	if err := os.WriteFile(file, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	im := importer.New(store, cfg.Import.AddedBy)
	im.SetListener(idx)
	res, err := im.ImportFile(file)
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if res.Added != 1 {
		t.Errorf("Expected 1 new entry, got %d", res.Added)
	}

	n, err := idx.DocCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("Expected 4 indexed documents, got %d", n)
	}

	for _, tc := range []struct {
		query string
		want  string
	}{
		{"tarkovsky", "Stalker"},
		{"chinatown", "Chinatown"},
		{"niro", "Heat"},
	} {
		results, err := idx.Search(tc.query, 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(results) == 0 || results[0].Entry.Title != tc.want {
			t.Errorf("Search %q: expected %s first, got %d results", tc.query, tc.want, len(results))
		}
	}
}
