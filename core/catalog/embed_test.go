package catalog

import "testing"

func TestEmbedURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantEmbed string
		wantOk    bool
	}{
		{name: "youtube watch", url: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", wantEmbed: "https://www.youtube.com/embed/dQw4w9WgXcQ", wantOk: true},
		{name: "youtube watch with extra params", url: "https://youtube.com/watch?t=42&v=dQw4w9WgXcQ", wantEmbed: "https://www.youtube.com/embed/dQw4w9WgXcQ", wantOk: true},
		{name: "youtube mobile", url: "https://m.youtube.com/watch?v=abc_DEF-123", wantEmbed: "https://www.youtube.com/embed/abc_DEF-123", wantOk: true},
		{name: "youtube short link", url: "https://youtu.be/dQw4w9WgXcQ", wantEmbed: "https://www.youtube.com/embed/dQw4w9WgXcQ", wantOk: true},
		{name: "youtube embed", url: "https://www.youtube.com/embed/dQw4w9WgXcQ", wantEmbed: "https://www.youtube.com/embed/dQw4w9WgXcQ", wantOk: true},
		{name: "youtube watch without id", url: "https://www.youtube.com/watch", wantOk: false},
		{name: "youtube channel", url: "https://www.youtube.com/@someone", wantOk: false},
		{name: "vimeo", url: "https://vimeo.com/76979871", wantEmbed: "https://player.vimeo.com/video/76979871", wantOk: true},
		{name: "vimeo player", url: "https://player.vimeo.com/video/76979871", wantEmbed: "https://player.vimeo.com/video/76979871", wantOk: true},
		{name: "vimeo non numeric", url: "https://vimeo.com/channels", wantOk: false},
		{name: "other host", url: "https://example.com/video.mp4", wantOk: false},
		{name: "not a url", url: "lesson notes", wantOk: false},
		{name: "empty", url: "", wantOk: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embed, ok := EmbedURL(tt.url)
			if ok != tt.wantOk || embed != tt.wantEmbed {
				t.Errorf("EmbedURL() = (%q, %v), want (%q, %v)", embed, ok, tt.wantEmbed, tt.wantOk)
			}
		})
	}
}
