package handlers

import (
	"errors"
	"net/http"

	"github.com/monoculum/formam"

	"fknsrs.biz/p/covertape/internal/adminauth"
	"fknsrs.biz/p/covertape/internal/ctxlogger"
	"fknsrs.biz/p/covertape/internal/embedurl"
	"fknsrs.biz/p/covertape/internal/httputil"
	"fknsrs.biz/p/covertape/internal/livecheck"
	"fknsrs.biz/p/covertape/internal/tagutil"
	"fknsrs.biz/p/covertape/internal/videostore"
)

// combineTags normalises the two category inputs and produces the suffixed
// token set attached to a video.
func combineTags(origTags, coverTags string) []string {
	var all []string

	all = append(all, tagutil.Suffix(tagutil.Split(tagutil.Clean(origTags)), tagutil.SuffixOriginal)...)
	all = append(all, tagutil.Suffix(tagutil.Split(tagutil.Clean(coverTags)), tagutil.SuffixCover)...)

	return all
}

func Add(rw http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		panic(err)
	}

	var input struct {
		URL       string `formam:"url"`
		OrigTags  string `formam:"orig_tags"`
		CoverTags string `formam:"cover_tags"`
	}

	if err := formam.Decode(r.PostForm, &input); err != nil {
		panic(err)
	}

	status := livecheck.Status(r.Context(), input.URL)

	switch {
	case status >= 500:
		// unreachable, server error, or not a URL at all
		httputil.RedirectWithMessage(rw, r, "/", "urlfail")
		return
	case status >= 400:
		// the host answered but the page is gone; a well-formed link
		// to a supported host means the video itself is dead
		if _, err := embedurl.Resolve(input.URL); errors.Is(err, embedurl.ErrMalformedURL) {
			httputil.RedirectWithMessage(rw, r, "/", "catchfail")
		} else {
			httputil.RedirectWithMessage(rw, r, "/", "activefail")
		}
		return
	}

	resolution, err := embedurl.Resolve(input.URL)
	if err != nil {
		switch {
		case errors.Is(err, embedurl.ErrNoActiveVideo):
			httputil.RedirectWithMessage(rw, r, "/", "activefail")
		case errors.Is(err, embedurl.ErrUnsupportedHost):
			httputil.RedirectWithMessage(rw, r, "/", "hostfail")
		default:
			httputil.RedirectWithMessage(rw, r, "/", "catchfail")
		}
		return
	}

	allTags := combineTags(input.OrigTags, input.CoverTags)
	if len(allTags) == 0 {
		httputil.RedirectWithMessage(rw, r, "/", "tagfail")
		return
	}

	var author, title string
	if metadata, err := livecheck.GetMetadata(r.Context(), resolution); err != nil {
		ctxlogger.GetLogger(r.Context()).WithError(err).Warning("could not fetch video metadata")
	} else {
		author = metadata.AuthorName
		title = metadata.Title
	}

	// the submitter's nickname wins over whatever the host reports
	if nickname := adminauth.Nickname(r); nickname != "" {
		author = nickname
	}

	if _, err := videostore.CreateOrMerge(r.Context(), resolution.EmbedURL, author, title, allTags); err != nil {
		panic(err)
	}

	httputil.RedirectWithMessage(rw, r, "/", "add")
}
