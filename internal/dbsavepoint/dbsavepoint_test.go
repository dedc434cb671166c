package dbsavepoint

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func withDB(t *testing.T, fn func(ctx context.Context, db *sql.DB)) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()

	if _, err := db.ExecContext(ctx, "create table numbers (n integer not null)"); err != nil {
		t.Fatal(err)
	}

	fn(ctx, db)
}

func countNumbers(t *testing.T, ctx context.Context, db *sql.DB) int {
	t.Helper()

	var n int
	if err := db.QueryRowContext(ctx, "select count(*) from numbers").Scan(&n); err != nil {
		t.Fatal(err)
	}

	return n
}

func TestNestedRelease(t *testing.T) {
	withDB(t, func(ctx context.Context, db *sql.DB) {
		a := assert.New(t)

		outer, err := CreateFromDB(ctx, db, "outer")
		a.NoError(err)

		_, err = outer.ExecContext(ctx, "insert into numbers (n) values (1)")
		a.NoError(err)

		inner, err := outer.Create(ctx, "inner")
		a.NoError(err)

		_, err = inner.ExecContext(ctx, "insert into numbers (n) values (2)")
		a.NoError(err)

		// The release statement has to name the savepoint exactly as it was
		// created, independent of how deeply it is nested.
		a.NoError(inner.Release(ctx))
		a.NoError(outer.Release(ctx))

		a.Equal(2, countNumbers(t, ctx, db))
	})
}

func TestNestedRollbackKeepsOuterWork(t *testing.T) {
	withDB(t, func(ctx context.Context, db *sql.DB) {
		a := assert.New(t)

		outer, err := CreateFromDB(ctx, db, "outer")
		a.NoError(err)

		_, err = outer.ExecContext(ctx, "insert into numbers (n) values (1)")
		a.NoError(err)

		inner, err := outer.Create(ctx, "inner")
		a.NoError(err)

		_, err = inner.ExecContext(ctx, "insert into numbers (n) values (2)")
		a.NoError(err)

		a.NoError(inner.Rollback(ctx))
		a.NoError(outer.Release(ctx))

		a.Equal(1, countNumbers(t, ctx, db))
	})
}

func TestDeeplyNestedRelease(t *testing.T) {
	withDB(t, func(ctx context.Context, db *sql.DB) {
		a := assert.New(t)

		outer, err := CreateFromDB(ctx, db, "outer")
		a.NoError(err)

		middle, err := outer.Create(ctx, "middle")
		a.NoError(err)

		inner, err := middle.Create(ctx, "inner")
		a.NoError(err)

		_, err = inner.ExecContext(ctx, "insert into numbers (n) values (3)")
		a.NoError(err)

		a.NoError(inner.Release(ctx))
		a.NoError(middle.Release(ctx))
		a.NoError(outer.Release(ctx))

		a.Equal(1, countNumbers(t, ctx, db))
	})
}

func TestUseAfterRelease(t *testing.T) {
	withDB(t, func(ctx context.Context, db *sql.DB) {
		a := assert.New(t)

		sp, err := CreateFromDB(ctx, db, "outer")
		a.NoError(err)
		a.NoError(sp.Release(ctx))

		_, err = sp.ExecContext(ctx, "insert into numbers (n) values (1)")
		a.ErrorIs(err, ErrAlreadyReleased)
		a.ErrorIs(sp.Rollback(ctx), ErrAlreadyReleased)
	})
}

func TestTxWritesVisibleInsideSavepoint(t *testing.T) {
	withDB(t, func(ctx context.Context, db *sql.DB) {
		a := assert.New(t)

		sp, err := CreateFromDB(ctx, db, "outer")
		a.NoError(err)

		// Statements issued on the underlying transaction are scoped by the
		// savepoint like any other.
		_, err = sp.Tx().ExecContext(ctx, "insert into numbers (n) values (1)")
		a.NoError(err)

		var n int
		a.NoError(sp.QueryRowContext(ctx, "select count(*) from numbers").Scan(&n))
		a.Equal(1, n)

		a.NoError(sp.Rollback(ctx))

		a.Equal(0, countNumbers(t, ctx, db))
	})
}
