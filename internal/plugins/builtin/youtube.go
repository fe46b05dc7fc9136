package builtin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pders01/pairwatch/internal/plugins"
)

// YouTubePlaylistPlugin turns a playlist page into YouTube's Atom feed for it,
// which is how trailer playlists get imported.
type YouTubePlaylistPlugin struct{}

func NewYouTubePlaylistPlugin() *YouTubePlaylistPlugin {
	return &YouTubePlaylistPlugin{}
}

func (p *YouTubePlaylistPlugin) Name() string  { return "youtube-playlist" }
func (p *YouTubePlaylistPlugin) Priority() int { return 50 }

func (p *YouTubePlaylistPlugin) CanHandle(rawURL string) bool {
	_, ok := playlistID(rawURL)
	return ok
}

func (p *YouTubePlaylistPlugin) Resolve(_ context.Context, rawURL string, _ *http.Client) (*plugins.SourceInfo, error) {
	id, ok := playlistID(rawURL)
	if !ok {
		return nil, fmt.Errorf("not a youtube playlist URL: %s", rawURL)
	}
	return &plugins.SourceInfo{
		OriginalURL: rawURL,
		FeedURL:     "https://www.youtube.com/feeds/videos.xml?playlist_id=" + url.QueryEscape(id),
		Title:       "YouTube playlist " + id,
		Metadata: map[string]string{
			"plugin":   "youtube-playlist",
			"playlist": id,
		},
	}, nil
}

func playlistID(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host != "youtube.com" && host != "www.youtube.com" && host != "m.youtube.com" {
		return "", false
	}
	// The feed endpoint itself is already a feed.
	if strings.HasPrefix(u.Path, "/feeds/") {
		return "", false
	}
	id := u.Query().Get("list")
	return id, id != ""
}
