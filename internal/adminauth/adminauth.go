package adminauth

import (
	"net/http"
	"net/url"
	"strings"
)

// Identity arrives from the external login provider, an authenticating
// reverse proxy sitting in front of this server, as a trusted forwarded
// header. This server never handles credentials itself.
const (
	emailHeader = "X-Forwarded-Email"
	userHeader  = "X-Forwarded-User"
)

// Email returns the authenticated email address of the requester, or the
// empty string when the request is anonymous.
func Email(r *http.Request) string {
	return strings.ToLower(strings.TrimSpace(r.Header.Get(emailHeader)))
}

// Nickname returns a display name for the requester: the forwarded user
// name if present, otherwise the local part of the email address.
func Nickname(r *http.Request) string {
	if s := strings.TrimSpace(r.Header.Get(userHeader)); s != "" {
		return s
	}

	email := Email(r)
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}

	return email
}

// Allowed reports whether the requester is the configured administrator.
func Allowed(r *http.Request, adminEmail string) bool {
	if adminEmail == "" {
		return false
	}

	return Email(r) == strings.ToLower(adminEmail)
}

// RedirectToLogin sends the requester to the login provider with a return-to
// parameter pointing back at the current page.
func RedirectToLogin(rw http.ResponseWriter, r *http.Request, loginURL string) {
	u, err := url.Parse(loginURL)
	if err != nil {
		http.Error(rw, "Forbidden", http.StatusForbidden)
		return
	}

	q := u.Query()
	q.Set("rd", r.URL.RequestURI())
	u.RawQuery = q.Encode()

	http.Redirect(rw, r, u.String(), http.StatusFound)
}
