package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"fknsrs.biz/p/covertape/internal/videostore"
)

func TestScroll(t *testing.T) {
	withApp(t, nil, func(ctx context.Context, db *sql.DB) {
		a := assert.New(t)

		for i := 0; i < 8; i++ {
			_, err := videostore.CreateOrMerge(ctx, fmt.Sprintf("http://www.youtube.com/embed/vid%02d", i), "", "", []string{"rock_o"})
			a.NoError(err)

			// distinct ranks make the listing order deterministic
			_, err = videostore.IncrementRank(ctx, fmt.Sprintf("http://www.youtube.com/embed/vid%02d", i), i)
			a.NoError(err)
		}

		rw := postForm(ctx, Scroll, "/scroll", url.Values{
			"query":  {"t=rock_o"},
			"offset": {"6"},
		})

		a.Equal(http.StatusOK, rw.Code)

		var data map[string][]string
		a.NoError(json.Unmarshal(rw.Body.Bytes(), &data))

		if a.Len(data, 2) {
			a.Equal([]string{"http://www.youtube.com/embed/vid01", "rock "}, data["0"])
			a.Equal([]string{"http://www.youtube.com/embed/vid00", "rock "}, data["1"])
		}
	})
}

func TestScrollPastTheEnd(t *testing.T) {
	withApp(t, nil, func(ctx context.Context, db *sql.DB) {
		a := assert.New(t)

		_, err := videostore.CreateOrMerge(ctx, "http://www.youtube.com/embed/abc123", "", "", []string{"rock_o"})
		a.NoError(err)

		rw := postForm(ctx, Scroll, "/scroll", url.Values{
			"query":  {"t=rock_o"},
			"offset": {"6"},
		})

		a.Equal(http.StatusOK, rw.Code)
		a.Equal("{}", rw.Body.String())
	})
}

func TestScrollRejectsBadInput(t *testing.T) {
	for _, tc := range []struct {
		name string
		form url.Values
	}{
		{"NegativeOffset", url.Values{"query": {"t=rock_o"}, "offset": {"-1"}}},
		{"NonNumericOffset", url.Values{"query": {"t=rock_o"}, "offset": {"six"}}},
		{"UnsuffixedTerm", url.Values{"query": {"t=rock"}, "offset": {"0"}}},
		{"QuotedTerm", url.Values{"query": {`t=ro"ck_o`}, "offset": {"0"}}},
		{"EmptyTerm", url.Values{"query": {"t=_o"}, "offset": {"0"}}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			withApp(t, nil, func(ctx context.Context, db *sql.DB) {
				a := assert.New(t)

				rw := postForm(ctx, Scroll, "/scroll", tc.form)

				a.Equal(http.StatusBadRequest, rw.Code)
			})
		})
	}
}
