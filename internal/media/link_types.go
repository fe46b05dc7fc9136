package media

import (
	_ "embed"
	"net/url"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed link_types.toml
var linkTypesTOML []byte

// Kind classifies an entry link for display and opener selection.
type Kind int

const (
	KindUnknown Kind = iota
	KindWeb
	KindTrailer
	KindStream
	KindDatabase
)

func (k Kind) String() string {
	switch k {
	case KindWeb:
		return "web"
	case KindTrailer:
		return "trailer"
	case KindStream:
		return "stream"
	case KindDatabase:
		return "database"
	default:
		return "unknown"
	}
}

type kindConfig struct {
	Hosts      []string `toml:"hosts"`
	Extensions []string `toml:"extensions"`
}

type linkTypesConfig struct {
	Trailer   kindConfig        `toml:"trailer"`
	Stream    kindConfig        `toml:"stream"`
	Database  kindConfig        `toml:"database"`
	Platforms map[string]string `toml:"platforms"`
}

type Detector struct {
	config *linkTypesConfig
}

func NewDetector() (*Detector, error) {
	var cfg linkTypesConfig
	if err := toml.Unmarshal(linkTypesTOML, &cfg); err != nil {
		return nil, err
	}
	return &Detector{config: &cfg}, nil
}

// Detect classifies link. Anything that is not an http(s) URL is unknown.
func (d *Detector) Detect(link string) Kind {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return KindUnknown
	}
	host := strings.ToLower(u.Hostname())

	ext := strings.ToLower(strings.TrimPrefix(pathExt(u.Path), "."))
	if ext != "" && contains(d.config.Trailer.Extensions, ext) {
		return KindTrailer
	}

	switch {
	case matchesHost(host, d.config.Trailer.Hosts):
		return KindTrailer
	case matchesHost(host, d.config.Stream.Hosts):
		return KindStream
	case matchesHost(host, d.config.Database.Hosts):
		return KindDatabase
	}
	return KindWeb
}

// DefaultOpener is the platform's generic open command.
func (d *Detector) DefaultOpener() string {
	if o, ok := d.config.Platforms[runtime.GOOS]; ok && o != "" {
		return o
	}
	if o, ok := d.config.Platforms["fallback"]; ok && o != "" {
		return o
	}
	return "open"
}

func pathExt(p string) string {
	if i := strings.LastIndex(p, "."); i != -1 && !strings.Contains(p[i:], "/") {
		return p[i:]
	}
	return ""
}

func matchesHost(host string, suffixes []string) bool {
	for _, s := range suffixes {
		if host == s || strings.HasSuffix(host, "."+s) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
