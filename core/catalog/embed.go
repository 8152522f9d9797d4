package catalog

import (
	"net/url"
	"strings"
)

// EmbedURL derives the embeddable player URL of a video hosted on YouTube or Vimeo.
// ok is false for any other URL.
func EmbedURL(contentURL string) (embed string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(contentURL))
	if err != nil || u.Host == "" {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	var id string
	switch host {
	case "youtube.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case len(segments) == 2 && (segments[0] == "embed" || segments[0] == "shorts"):
			id = segments[1]
		}
		if isVideoID(id) {
			return "https://www.youtube.com/embed/" + id, true
		}
	case "youtu.be":
		if len(segments) == 1 {
			id = segments[0]
		}
		if isVideoID(id) {
			return "https://www.youtube.com/embed/" + id, true
		}
	case "vimeo.com", "player.vimeo.com":
		if len(segments) > 0 {
			id = segments[len(segments)-1]
		}
		if id != "" && strings.Trim(id, "0123456789") == "" {
			return "https://player.vimeo.com/video/" + id, true
		}
	}
	return "", false
}

func isVideoID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if !(r == '-' || r == '_' || ('0' <= r && r <= '9') || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')) {
			return false
		}
	}
	return true
}
