package handlers

import (
	"errors"
	"net/http"

	"github.com/monoculum/formam"

	"fknsrs.biz/p/covertape/internal/httputil"
	"fknsrs.biz/p/covertape/internal/videostore"
)

// Upvote adjusts a video's rank. Negative quantities are allowed so a vote
// can be withdrawn.
func Upvote(rw http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		panic(err)
	}

	var input struct {
		URL      string `formam:"url"`
		Quantity int    `formam:"quantity"`
	}

	if err := formam.Decode(r.PostForm, &input); err != nil {
		http.Error(rw, "Bad request", http.StatusBadRequest)
		return
	}

	if _, err := videostore.IncrementRank(r.Context(), input.URL, input.Quantity); err != nil {
		if errors.Is(err, videostore.ErrNotFound) {
			httputil.NotFound(rw, r)
			return
		}

		panic(err)
	}

	rw.Write([]byte("Success!"))
}
