package videoquery

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"fknsrs.biz/p/sorm"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"

	"fknsrs.biz/p/covertape/internal/ctxclock"
	"fknsrs.biz/p/covertape/internal/ctxdb"
	"fknsrs.biz/p/covertape/internal/migrate"
	"fknsrs.biz/p/covertape/internal/videostore"
	"fknsrs.biz/p/covertape/models"
)

func init() {
	sorm.SetParameterPrefix("?")
}

func withBoard(t *testing.T, fn func(ctx context.Context, db *sql.DB)) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	ctx := ctxdb.WithDB(context.Background(), db)
	ctx = ctxclock.WithClock(ctx, ctxclock.NewStaticClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))

	if err := migrate.Up(ctx, db); err != nil {
		t.Fatal(err)
	}

	seed := []struct {
		url  string
		tags []string
		rank int
	}{
		{"http://www.youtube.com/embed/one", []string{"rock_o", "punk_o"}, 5},
		{"http://www.youtube.com/embed/two", []string{"rock_o"}, 3},
		{"http://www.youtube.com/embed/three", []string{"rock_c"}, 9},
		{"http://player.vimeo.com/video/four", []string{"ska_o"}, 1},
	}

	for _, e := range seed {
		if _, err := videostore.CreateOrMerge(ctx, e.url, "", "", e.tags); err != nil {
			t.Fatal(err)
		}
		if e.rank != 0 {
			if _, err := videostore.IncrementRank(ctx, e.url, e.rank); err != nil {
				t.Fatal(err)
			}
		}
	}

	fn(ctx, db)
}

func urls(videos []models.Video) []string {
	var a []string
	for _, v := range videos {
		a = append(a, v.URL)
	}
	return a
}

func TestFindUnfiltered(t *testing.T) {
	withBoard(t, func(ctx context.Context, db *sql.DB) {
		a := assert.New(t)

		videos, err := Find(ctx, db, Build(nil, nil))
		a.NoError(err)

		a.Equal([]string{
			"http://www.youtube.com/embed/three",
			"http://www.youtube.com/embed/one",
			"http://www.youtube.com/embed/two",
			"http://player.vimeo.com/video/four",
		}, urls(videos))
	})
}

func TestFindFiltered(t *testing.T) {
	withBoard(t, func(ctx context.Context, db *sql.DB) {
		a := assert.New(t)

		// Suffixes keep the categories apart: rock as an original matches
		// only videos tagged rock_o, in rank order.
		videos, err := Find(ctx, db, Build([]string{"rock"}, nil))
		a.NoError(err)
		a.Equal([]string{
			"http://www.youtube.com/embed/one",
			"http://www.youtube.com/embed/two",
		}, urls(videos))

		videos, err = Find(ctx, db, Build(nil, []string{"rock"}))
		a.NoError(err)
		a.Equal([]string{"http://www.youtube.com/embed/three"}, urls(videos))

		// All terms must match.
		videos, err = Find(ctx, db, Build([]string{"rock", "punk"}, nil))
		a.NoError(err)
		a.Equal([]string{"http://www.youtube.com/embed/one"}, urls(videos))

		videos, err = Find(ctx, db, Build([]string{"rock", "ska"}, nil))
		a.NoError(err)
		a.Empty(videos)
	})
}

func TestFindPagination(t *testing.T) {
	withBoard(t, func(ctx context.Context, db *sql.DB) {
		a := assert.New(t)

		q := Build(nil, nil)
		q.Limit = 2

		first, err := Find(ctx, db, q)
		a.NoError(err)
		a.Equal([]string{
			"http://www.youtube.com/embed/three",
			"http://www.youtube.com/embed/one",
		}, urls(first))

		// Re-issuing the reconstructed descriptor with an offset continues
		// the same listing.
		next, err := Decode(q.Encode())
		a.NoError(err)

		next.Limit = 2
		next.Offset = 2

		second, err := Find(ctx, db, next)
		a.NoError(err)
		a.Equal([]string{
			"http://www.youtube.com/embed/two",
			"http://player.vimeo.com/video/four",
		}, urls(second))
	})
}

func TestFindNoSubstringFalsePositives(t *testing.T) {
	withBoard(t, func(ctx context.Context, db *sql.DB) {
		a := assert.New(t)

		// "punk rock" contains "rock" as a word, but a search for the
		// phrase must not match videos tagged only with the word.
		if _, err := videostore.CreateOrMerge(ctx, "http://www.youtube.com/embed/five", "", "", []string{"punk rock_o"}); err != nil {
			t.Fatal(err)
		}

		videos, err := Find(ctx, db, Build([]string{"punk rock"}, nil))
		a.NoError(err)
		a.Equal([]string{"http://www.youtube.com/embed/five"}, urls(videos))
	})
}

func TestFindHTMLSpecialCharacterTag(t *testing.T) {
	withBoard(t, func(ctx context.Context, db *sql.DB) {
		a := assert.New(t)

		// The stored tag column and the bound search token have to agree on
		// the encoding of characters like "&".
		if _, err := videostore.CreateOrMerge(ctx, "http://www.youtube.com/embed/six", "", "", []string{"r&b_o"}); err != nil {
			t.Fatal(err)
		}

		videos, err := Find(ctx, db, Build([]string{"r&b"}, nil))
		a.NoError(err)
		a.Equal([]string{"http://www.youtube.com/embed/six"}, urls(videos))

		// And the match survives a round trip through the descriptor.
		q, err := Decode(Build([]string{"r&b"}, nil).Encode())
		a.NoError(err)

		videos, err = Find(ctx, db, q)
		a.NoError(err)
		a.Equal([]string{"http://www.youtube.com/embed/six"}, urls(videos))
	})
}
