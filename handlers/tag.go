package handlers

import (
	"errors"
	"net/http"

	"github.com/monoculum/formam"

	"fknsrs.biz/p/covertape/internal/httputil"
	"fknsrs.biz/p/covertape/internal/videostore"
)

// Tag adds new tags to an existing video. Tags can only ever be added;
// removing one would invalidate other people's searches.
func Tag(rw http.ResponseWriter, r *http.Request) {
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

	if _, err := videostore.UpdateTags(r.Context(), input.URL, combineTags(input.OrigTags, input.CoverTags)); err != nil {
		if errors.Is(err, videostore.ErrNotFound) {
			httputil.NotFound(rw, r)
			return
		}

		panic(err)
	}

	rw.Write([]byte("Success!"))
}
