package embedurl

import (
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrMalformedURL means the input could not be parsed as a URL at all,
	// or parsed without a usable hostname.
	ErrMalformedURL = fmt.Errorf("embedurl: malformed url")
	// ErrUnsupportedHost means the URL parsed but the host is not a
	// recognised video provider.
	ErrUnsupportedHost = fmt.Errorf("embedurl: unsupported host")
	// ErrNoActiveVideo means the host is recognised but no video id could be
	// extracted from the URL.
	ErrNoActiveVideo = fmt.Errorf("embedurl: no video id in url")
)

// Resolution is the canonical, player-embeddable form of a submitted link.
type Resolution struct {
	EmbedURL   string
	ExternalID string
	Host       string
}

// Resolve parses a submitted URL and produces the canonical embed URL for
// the recognised hosts: youtube.com (v query parameter), youtu.be and
// vimeo.com (first path segment). youtu.be is reported with its host
// normalised to www.youtube.com. Resolve performs no network I/O; whether
// the video is actually live is a separate concern.
func Resolve(raw string) (*Resolution, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("embedurl.Resolve: could not parse %q: %w", raw, ErrMalformedURL)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return nil, fmt.Errorf("embedurl.Resolve: no hostname in %q: %w", raw, ErrMalformedURL)
	}

	switch host {
	case "youtube.com", "www.youtube.com":
		id := parsed.Query().Get("v")
		if id == "" {
			return nil, fmt.Errorf("embedurl.Resolve: no v query parameter in youtube url: %w", ErrNoActiveVideo)
		}

		return &Resolution{
			EmbedURL:   "http://www.youtube.com/embed/" + id,
			ExternalID: id,
			Host:       host,
		}, nil
	case "youtu.be":
		id := firstPathSegment(parsed.Path)
		if id == "" {
			return nil, fmt.Errorf("embedurl.Resolve: no path content in youtu.be url: %w", ErrNoActiveVideo)
		}

		return &Resolution{
			EmbedURL:   "http://www.youtube.com/embed/" + id,
			ExternalID: id,
			Host:       "www.youtube.com",
		}, nil
	case "vimeo.com":
		id := firstPathSegment(parsed.Path)
		if id == "" {
			return nil, fmt.Errorf("embedurl.Resolve: no path content in vimeo url: %w", ErrNoActiveVideo)
		}

		return &Resolution{
			EmbedURL:   "http://player.vimeo.com/video/" + id,
			ExternalID: id,
			Host:       host,
		}, nil
	default:
		return nil, fmt.Errorf("embedurl.Resolve: host %q: %w", host, ErrUnsupportedHost)
	}
}

func firstPathSegment(path string) string {
	path = strings.TrimPrefix(path, "/")

	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}

	return path
}
