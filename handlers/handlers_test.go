package handlers

import (
	"context"
	"database/sql"
	"html/template"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"fknsrs.biz/p/sorm"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"fknsrs.biz/p/covertape/internal/config"
	"fknsrs.biz/p/covertape/internal/ctxclock"
	"fknsrs.biz/p/covertape/internal/ctxconfig"
	"fknsrs.biz/p/covertape/internal/ctxdb"
	"fknsrs.biz/p/covertape/internal/ctxhttpclient"
	"fknsrs.biz/p/covertape/internal/ctxlogger"
	"fknsrs.biz/p/covertape/internal/ctxtemplate"
	"fknsrs.biz/p/covertape/internal/migrate"
	"fknsrs.biz/p/covertape/internal/templatecollection"
)

func init() {
	sorm.SetParameterPrefix("?")
}

// withApp builds a request context carrying everything the handlers pull
// out of it in production: logger, clock, config, database, and optionally
// an outbound HTTP client with a canned transport.
func withApp(t *testing.T, client *http.Client, fn func(ctx context.Context, db *sql.DB)) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	ctx := context.Background()
	ctx = ctxlogger.WithLogger(ctx, logger)
	ctx = ctxclock.WithClock(ctx, ctxclock.NewStaticClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
	ctx = ctxconfig.WithConfig(ctx, config.Config{AdminEmail: "admin@example.com", LoginURL: "/login"})
	ctx = ctxdb.WithDB(ctx, db)

	templates, err := templatecollection.NewLive(os.DirFS("../templates"), template.FuncMap{
		"format_time": func(t time.Time) string { return t.Format(time.RFC3339) },
		"format_date": func(t time.Time) string { return t.Format("2006-01-02") },
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx = ctxtemplate.WithCollection(ctx, templates)

	if client != nil {
		ctx = ctxhttpclient.WithHTTPClient(ctx, client)
	}

	if err := migrate.Up(ctx, db); err != nil {
		t.Fatal(err)
	}

	fn(ctx, db)
}

func newPostRequest(ctx context.Context, path string, values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	r.Header.Set("content-type", "application/x-www-form-urlencoded")

	return r.WithContext(ctx)
}

func record(handler http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rw := httptest.NewRecorder()
	handler(rw, r)

	return rw
}

func postForm(ctx context.Context, handler http.HandlerFunc, path string, values url.Values) *httptest.ResponseRecorder {
	return record(handler, newPostRequest(ctx, path, values))
}

type roundTripFunc func(r *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func cannedResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}
