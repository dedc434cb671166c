package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

func redirectWithParameter(rw http.ResponseWriter, r *http.Request, baseURL, name, value string) {
	u, err := url.Parse(baseURL)
	if err != nil {
		panic(err)
	}

	q := u.Query()
	q.Set(name, value)
	u.RawQuery = q.Encode()

	http.Redirect(rw, r, u.String(), http.StatusFound)
}

// RedirectWithMessage sends the browser back to baseURL with a short
// message code in the "m" parameter, which the index page expands into
// human-readable text.
func RedirectWithMessage(rw http.ResponseWriter, r *http.Request, baseURL, code string) {
	redirectWithParameter(rw, r, baseURL, "m", code)
}

func WriteJSON(rw http.ResponseWriter, statusCode int, value interface{}) error {
	d, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("httputil.WriteJSON: %w", err)
	}

	rw.Header().Set("content-type", "application/json")
	rw.WriteHeader(statusCode)

	if _, err := rw.Write(d); err != nil {
		return fmt.Errorf("httputil.WriteJSON: %w", err)
	}

	return nil
}

func NotFound(rw http.ResponseWriter, r *http.Request) {
	http.Error(rw, "Not found", http.StatusNotFound)
}
