// Package httputil writes HTTP responses: content identity headers, client
// caching headers and the HTML error page.
package httputil

import (
	"crypto/md5" //nolint:gosec // Content-MD5 is an integrity header, not a security control
	"encoding/base64"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	dErrors "github.com/mormegil-cz/nklink/pkg/domain-errors"
)

// SetContentHeaders sets Content-Type, Content-Length and Content-MD5 for body.
func SetContentHeaders(h http.Header, contentType string, body []byte) {
	sum := md5.Sum(body) //nolint:gosec // see import
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.Itoa(len(body)))
	h.Set("Content-MD5", base64.StdEncoding.EncodeToString(sum[:]))
}

// SetExpires sets the Expires header in HTTP date format.
func SetExpires(h http.Header, at time.Time) {
	h.Set("Expires", at.UTC().Format(http.TimeFormat))
}

// WriteBody writes a complete response with content identity headers.
func WriteBody(w http.ResponseWriter, status int, contentType string, body []byte) {
	SetContentHeaders(w.Header(), contentType, body)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

var errorPage = template.Must(template.New("error").Parse(`<!doctype html>
<html>
<head>
<meta charset=utf-8>
<title>{{.Caption}}</title>
</head>
<body>
<h1>{{.Caption}}</h1>
<p>{{.Message}}</p>
</body>
</html>
`))

// ErrorPage renders the minimal HTML page shown for every failed request.
// Newlines in message become line breaks; everything else is escaped.
func ErrorPage(status int, message string) []byte {
	lines := strings.Split(message, "\n")
	escaped := make([]string, len(lines))
	for i, line := range lines {
		escaped[i] = template.HTMLEscapeString(line)
	}
	var sb strings.Builder
	// the template is static and the data are plain strings
	_ = errorPage.Execute(&sb, struct {
		Caption string
		Message template.HTML
	}{
		Caption: http.StatusText(status),
		Message: template.HTML(strings.Join(escaped, "<br />")), //nolint:gosec // every line escaped above
	})
	return []byte(sb.String())
}

// WriteError renders err as the HTML error page. Domain errors show their
// public message; anything else is reported as an internal error without
// details. A non-zero expires is emitted for client errors only.
func WriteError(w http.ResponseWriter, err error, expires time.Time) int {
	status := http.StatusInternalServerError
	message := "Internal error"
	if de, ok := dErrors.As(err); ok {
		status = dErrors.ToHTTPStatus(de.Code)
		message = de.Message
	}
	if !expires.IsZero() && status < http.StatusInternalServerError {
		SetExpires(w.Header(), expires)
	}
	WriteBody(w, status, "text/html; charset=utf-8", ErrorPage(status, message))
	return status
}
