package livecheck

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/Jeffail/gabs/v2"

	"fknsrs.biz/p/covertape/internal/catchpanic"
	"fknsrs.biz/p/covertape/internal/ctxhttpclient"
	"fknsrs.biz/p/covertape/internal/embedurl"
)

// SyntheticFailureStatus stands in for a status code when the outbound
// request itself failed, so callers can treat "check failed" separately from
// a definitive upstream response.
const SyntheticFailureStatus = 600

// Status performs a single synchronous GET of the submitted URL and returns
// the response status code. Transport failures of any kind, including panics
// raised inside the client, map to SyntheticFailureStatus.
func Status(ctx context.Context, rawURL string) int {
	res, err := catchpanic.CatchErr1(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}

		return ctxhttpclient.GetHTTPClient(ctx).Do(req)
	})
	if err != nil {
		return SyntheticFailureStatus
	}

	io.Copy(io.Discard, res.Body)
	res.Body.Close()

	return res.StatusCode
}

// Metadata is display metadata for a resolved video, taken from the
// provider's oEmbed document.
type Metadata struct {
	Title      string
	AuthorName string
}

// GetMetadata fetches the oEmbed document for a resolved video and extracts the
// title and author name. Callers treat any error as "no metadata available".
func GetMetadata(ctx context.Context, res *embedurl.Resolution) (*Metadata, error) {
	endpoint, err := oembedEndpoint(res)
	if err != nil {
		return nil, fmt.Errorf("livecheck.GetMetadata: %w", err)
	}

	return fetchOEmbed(ctx, endpoint)
}

func oembedEndpoint(res *embedurl.Resolution) (string, error) {
	switch res.Host {
	case "youtube.com", "www.youtube.com":
		return "https://www.youtube.com/oembed?format=json&url=" +
			url.QueryEscape("http://www.youtube.com/watch?v="+res.ExternalID), nil
	case "vimeo.com":
		return "https://vimeo.com/api/oembed.json?url=" +
			url.QueryEscape("https://vimeo.com/"+res.ExternalID), nil
	default:
		return "", fmt.Errorf("livecheck.oembedEndpoint: no oembed endpoint known for host %q", res.Host)
	}
}

func fetchOEmbed(ctx context.Context, endpoint string) (*Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("livecheck.fetchOEmbed: could not construct request: %w", err)
	}

	res, err := ctxhttpclient.GetHTTPClient(ctx).Do(req)
	if err != nil {
		return nil, fmt.Errorf("livecheck.fetchOEmbed: could not perform request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("livecheck.fetchOEmbed: unexpected status %d from %s", res.StatusCode, endpoint)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("livecheck.fetchOEmbed: could not read response: %w", err)
	}

	doc, err := gabs.ParseJSON(body)
	if err != nil {
		return nil, fmt.Errorf("livecheck.fetchOEmbed: could not parse response: %w", err)
	}

	var m Metadata

	if s, ok := doc.Path("title").Data().(string); ok {
		m.Title = s
	}
	if s, ok := doc.Path("author_name").Data().(string); ok {
		m.AuthorName = s
	}

	return &m, nil
}
