package handlers

import (
	"net/http"
	"strconv"

	"github.com/monoculum/formam"

	"fknsrs.biz/p/covertape/internal/ctxdb"
	"fknsrs.biz/p/covertape/internal/httputil"
	"fknsrs.biz/p/covertape/internal/tagutil"
	"fknsrs.biz/p/covertape/internal/videoquery"
)

// Scroll returns the next page of an earlier search. The query arrives as
// the serialised descriptor the index page handed out, and is validated
// before being run.
func Scroll(rw http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		panic(err)
	}

	var input struct {
		Query  string `formam:"query"`
		Offset int    `formam:"offset"`
	}

	if err := formam.Decode(r.PostForm, &input); err != nil {
		http.Error(rw, "Bad request", http.StatusBadRequest)
		return
	}

	if input.Offset < 0 {
		http.Error(rw, "Bad request", http.StatusBadRequest)
		return
	}

	query, err := videoquery.Decode(input.Query)
	if err != nil {
		http.Error(rw, "Bad request", http.StatusBadRequest)
		return
	}

	query.Offset = input.Offset

	videos, err := videoquery.Find(r.Context(), ctxdb.GetDB(r.Context()), query)
	if err != nil {
		panic(err)
	}

	data := make(map[string][]string, len(videos))
	for i, video := range videos {
		data[strconv.Itoa(i)] = []string{video.URL, tagutil.Render(video.Tags)}
	}

	if err := httputil.WriteJSON(rw, http.StatusOK, data); err != nil {
		panic(err)
	}
}
