// Package render turns a resolved authority record into one of the response
// representations: json, jsonp, redirect or html.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mormegil-cz/nklink/internal/authority/models"
	dErrors "github.com/mormegil-cz/nklink/pkg/domain-errors"
	"github.com/mormegil-cz/nklink/pkg/platform/httputil"
)

// Content types of the rendered representations.
const (
	ContentTypeJSON  = "application/json"
	ContentTypeJSONP = "text/javascript"
	ContentTypeHTML  = "text/html; charset=utf-8"
)

// PageConfig holds the links shown on the HTML page.
type PageConfig struct {
	AuthorityBaseURL string
	FaviconURL       string
	DocumentationURL string
	APIURL           string
	SourceURL        string
}

// Response is a fully rendered HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Renderer formats records. It holds only immutable configuration.
type Renderer struct {
	catalog models.Catalog
	page    PageConfig
	maxAge  time.Duration
}

// New creates a renderer. maxAge sets the Expires header relative to the
// render time.
func New(catalog models.Catalog, page PageConfig, maxAge time.Duration) *Renderer {
	return &Renderer{catalog: catalog, page: page, maxAge: maxAge}
}

// Expires returns the Expires time for a response rendered at now.
func (r *Renderer) Expires(now time.Time) time.Time {
	return now.Add(r.maxAge)
}

// Render formats rec for id. A nil rec is the absent record. Failures are
// domain errors: not_found when there is nothing to link to.
func (r *Renderer) Render(rec *models.Record, id models.AuthorityID, params models.Params, now time.Time) (*Response, error) {
	if rec == nil {
		rec = models.Absent()
	}
	switch params.Format {
	case models.FormatJSON:
		body, err := r.json(rec)
		if err != nil {
			return nil, err
		}
		return r.ok(ContentTypeJSON, body, now), nil
	case models.FormatJSONP:
		body, err := r.json(rec)
		if err != nil {
			return nil, err
		}
		if params.Callback == "" {
			return nil, dErrors.New(dErrors.CodeBadRequest, "Missing callback")
		}
		out := make([]byte, 0, len(body)+len(params.Callback)+3)
		out = append(out, params.Callback...)
		out = append(out, '(')
		out = append(out, body...)
		out = append(out, ");"...)
		return r.ok(ContentTypeJSONP, out, now), nil
	case models.FormatRedirect:
		return r.redirect(rec, params.Target, now)
	case models.FormatHTML:
		if !rec.Found() {
			return nil, dErrors.New(dErrors.CodeNotFound, "Unknown autid")
		}
		body, err := r.html(rec, id, now)
		if err != nil {
			return nil, err
		}
		return r.ok(ContentTypeHTML, body, now), nil
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, "Unsupported format")
	}
}

func (r *Renderer) json(rec *models.Record) ([]byte, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Could not encode record")
	}
	return body, nil
}

func (r *Renderer) redirect(rec *models.Record, target models.Database, now time.Time) (*Response, error) {
	if !rec.Found() {
		return nil, dErrors.New(dErrors.CodeNotFound, "Unknown autid")
	}
	entry, ok := rec.Links.First(target)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "Target link not available")
	}
	h := http.Header{}
	h.Set("Location", entry.URL)
	httputil.SetExpires(h, r.Expires(now))
	return &Response{Status: http.StatusFound, Header: h}, nil
}

func (r *Renderer) ok(contentType string, body []byte, now time.Time) *Response {
	h := http.Header{}
	httputil.SetContentHeaders(h, contentType, body)
	httputil.SetExpires(h, r.Expires(now))
	return &Response{Status: http.StatusOK, Header: h, Body: body}
}

type pageSection struct {
	Name    string
	Entries []models.LinkEntry
}

type pageData struct {
	Label        string
	Description  string
	AuthorityID  string
	AuthorityURL string
	Sections     []pageSection
	GeneratedAt  string
	JSONURL      string
	Page         PageConfig
}

func (r *Renderer) html(rec *models.Record, id models.AuthorityID, now time.Time) ([]byte, error) {
	data := pageData{
		Label:        rec.Label,
		Description:  rec.Description,
		AuthorityID:  id.String(),
		AuthorityURL: r.page.AuthorityBaseURL + id.String(),
		GeneratedAt:  now.UTC().Format("2006-01-02 15:04:05Z"),
		JSONURL:      fmt.Sprintf("?autid=%s&format=json", id),
		Page:         r.page,
	}
	if data.Label == "" {
		data.Label = id.String()
	}
	for _, db := range rec.Links.Keys() {
		data.Sections = append(data.Sections, pageSection{
			Name:    r.catalog.Name(db),
			Entries: rec.Links[db],
		})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Could not render page")
	}
	return buf.Bytes(), nil
}
