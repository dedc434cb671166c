package handlers

import (
	"net/http"

	"github.com/monoculum/formam"

	"fknsrs.biz/p/covertape/internal/ctxdb"
	"fknsrs.biz/p/covertape/internal/httputil"
	"fknsrs.biz/p/covertape/internal/taghint"
)

// Hint suggests completions for the tag currently being typed.
func Hint(rw http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		panic(err)
	}

	var input struct {
		PartialQuery string `formam:"partial_query"`
	}

	if err := formam.Decode(r.PostForm, &input); err != nil {
		panic(err)
	}

	suggestions, err := taghint.Suggest(r.Context(), ctxdb.GetDB(r.Context()), input.PartialQuery)
	if err != nil {
		panic(err)
	}

	if suggestions == nil {
		suggestions = []string{}
	}

	if err := httputil.WriteJSON(rw, http.StatusOK, suggestions); err != nil {
		panic(err)
	}
}
