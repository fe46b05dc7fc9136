package builtin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pders01/pairwatch/internal/plugins"
)

// reserved path segments on letterboxd.com that are not member names.
var letterboxdReserved = map[string]bool{
	"film": true, "films": true, "list": true, "lists": true, "members": true,
	"journal": true, "search": true, "settings": true, "activity": true,
}

// LetterboxdPlugin maps a member's profile, watchlist or diary page to the
// member's RSS feed.
type LetterboxdPlugin struct{}

func NewLetterboxdPlugin() *LetterboxdPlugin {
	return &LetterboxdPlugin{}
}

func (p *LetterboxdPlugin) Name() string  { return "letterboxd" }
func (p *LetterboxdPlugin) Priority() int { return 50 }

func (p *LetterboxdPlugin) CanHandle(rawURL string) bool {
	_, ok := letterboxdMember(rawURL)
	return ok
}

func (p *LetterboxdPlugin) Resolve(_ context.Context, rawURL string, _ *http.Client) (*plugins.SourceInfo, error) {
	member, ok := letterboxdMember(rawURL)
	if !ok {
		return nil, fmt.Errorf("not a letterboxd member URL: %s", rawURL)
	}
	return &plugins.SourceInfo{
		OriginalURL: rawURL,
		FeedURL:     "https://letterboxd.com/" + member + "/rss/",
		Title:       "Letterboxd - " + member,
		Metadata: map[string]string{
			"plugin": "letterboxd",
			"member": member,
		},
	}, nil
}

func letterboxdMember(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host != "letterboxd.com" {
		return "", false
	}
	member, _, _ := strings.Cut(strings.Trim(u.Path, "/"), "/")
	if member == "" || letterboxdReserved[member] {
		return "", false
	}
	return member, true
}
