package taghint

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"fknsrs.biz/p/sorm"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"

	"fknsrs.biz/p/covertape/internal/migrate"
	"fknsrs.biz/p/covertape/models"
)

func init() {
	sorm.SetParameterPrefix("?")
}

func withTags(t *testing.T, names []string, fn func(ctx context.Context, db *sql.DB)) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()

	if err := migrate.Up(ctx, db); err != nil {
		t.Fatal(err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range names {
		tag := models.Tag{CreatedAt: time.Now(), Name: name}
		if err := sorm.CreateRecord(ctx, tx, &tag); err != nil {
			t.Fatal(err)
		}
	}

	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	fn(ctx, db)
}

var prefixTests = []struct {
	name  string
	input string
	want  string
}{
	{"empty", "", ""},
	{"single_segment", "ro", "ro"},
	{"last_segment_wins", "foo, ro", "ro"},
	{"trailing_comma", "foo,", ""},
	{"normalised", "foo,  RO  ", "ro"},
}

func TestPrefix(t *testing.T) {
	for _, tc := range prefixTests {
		t.Run(tc.name, func(t *testing.T) {
			a := assert.New(t)
			a.Equal(tc.want, Prefix(tc.input))
		})
	}
}

func TestSuggest(t *testing.T) {
	seed := []string{"rock", "rockabilly", "rocket", "rockers", "rose", "ska"}

	withTags(t, seed, func(ctx context.Context, db *sql.DB) {
		a := assert.New(t)

		// Only the segment after the last comma is considered, and results
		// are capped at MaxSuggestions in name order.
		names, err := Suggest(ctx, db, "foo, ro")
		a.NoError(err)
		a.Equal([]string{"rock", "rockabilly", "rockers", "rocket"}, names)

		names, err = Suggest(ctx, db, "rose")
		a.NoError(err)
		a.Equal([]string{"rose"}, names)

		// The prefix itself is included in the range.
		names, err = Suggest(ctx, db, "ska")
		a.NoError(err)
		a.Equal([]string{"ska"}, names)

		names, err = Suggest(ctx, db, "zzz")
		a.NoError(err)
		a.Empty(names)

		names, err = Suggest(ctx, db, "")
		a.NoError(err)
		a.Empty(names)
	})
}
