package embedurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var resolveTests = []struct {
	name  string
	input string
	want  *Resolution
	err   error
}{
	{
		"youtube_watch",
		"https://www.youtube.com/watch?v=abc123",
		&Resolution{"http://www.youtube.com/embed/abc123", "abc123", "www.youtube.com"},
		nil,
	},
	{
		"youtube_bare_host",
		"http://youtube.com/watch?v=abc123",
		&Resolution{"http://www.youtube.com/embed/abc123", "abc123", "youtube.com"},
		nil,
	},
	{
		"youtube_short_link",
		"https://youtu.be/xyz",
		&Resolution{"http://www.youtube.com/embed/xyz", "xyz", "www.youtube.com"},
		nil,
	},
	{
		"vimeo",
		"https://vimeo.com/123456",
		&Resolution{"http://player.vimeo.com/video/123456", "123456", "vimeo.com"},
		nil,
	},
	{
		"vimeo_extra_path",
		"https://vimeo.com/123456/settings",
		&Resolution{"http://player.vimeo.com/video/123456", "123456", "vimeo.com"},
		nil,
	},
	{"youtube_missing_v", "https://www.youtube.com/watch", nil, ErrNoActiveVideo},
	{"youtu_be_empty_path", "https://youtu.be/", nil, ErrNoActiveVideo},
	{"vimeo_empty_path", "https://vimeo.com/", nil, ErrNoActiveVideo},
	{"unsupported_host", "https://example.com/x", nil, ErrUnsupportedHost},
	{"no_hostname", "banana", nil, ErrMalformedURL},
	{"unparseable", "http://[::1]:namedport/", nil, ErrMalformedURL},
}

func TestResolve(t *testing.T) {
	for _, tc := range resolveTests {
		t.Run(tc.name, func(t *testing.T) {
			a := assert.New(t)

			got, err := Resolve(tc.input)

			if tc.err != nil {
				a.Nil(got)
				a.ErrorIs(err, tc.err)
			} else {
				a.NoError(err)
				a.Equal(tc.want, got)
			}
		})
	}
}
