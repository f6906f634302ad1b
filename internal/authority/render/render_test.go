package render

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mormegil-cz/nklink/internal/authority/models"
	dErrors "github.com/mormegil-cz/nklink/pkg/domain-errors"
)

var renderedAt = time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC)

func newRenderer() *Renderer {
	return New(models.DefaultCatalog(), PageConfig{
		AuthorityBaseURL: "http://aut.nkp.cz/",
		FaviconURL:       "https://example.org/favicon.ico",
		DocumentationURL: "https://example.org/docs",
	}, 24*time.Hour)
}

func sampleRecord() *models.Record {
	return &models.Record{
		Label:       "Karel Čapek",
		Description: "český spisovatel <a>",
		Links: models.Links{
			models.DatabaseWikidata: {{Ident: "Q1", URL: "https://www.wikidata.org/wiki/Q1"}},
			models.DatabaseISNI: {
				{Ident: "0000 0001 2345 6789", URL: "https://isni.oclc.org/xslt/DB=1.2//CMD?ACT=SRCH&IKT=8006&TRM=ISN%3A0000+0001+2345+6789"},
				{Ident: "0000 0004 1111 2222", URL: "https://isni.oclc.org/xslt/DB=1.2//CMD?ACT=SRCH&IKT=8006&TRM=ISN%3A0000+0004+1111+2222"},
			},
		},
	}
}

func TestRenderJSON(t *testing.T) {
	r := newRenderer()

	t.Run("record", func(t *testing.T) {
		resp, err := r.Render(sampleRecord(), "jk01", models.Params{Format: models.FormatJSON}, renderedAt)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.Status)
		assert.Equal(t, ContentTypeJSON, resp.Header.Get("Content-Type"))
		assert.Equal(t, "Tue, 20 Oct 2026 12:30:00 GMT", resp.Header.Get("Expires"))
		assert.NotEmpty(t, resp.Header.Get("Content-MD5"))

		var decoded models.Record
		require.NoError(t, json.Unmarshal(resp.Body, &decoded))
		assert.Equal(t, *sampleRecord(), decoded)
	})

	t.Run("absent is an empty object", func(t *testing.T) {
		resp, err := r.Render(models.Absent(), "jk01", models.Params{Format: models.FormatJSON}, renderedAt)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.Status)
		assert.Equal(t, "{}", string(resp.Body))
		assert.Equal(t, "2", resp.Header.Get("Content-Length"))
	})

	t.Run("nil is absent", func(t *testing.T) {
		resp, err := r.Render(nil, "jk01", models.Params{Format: models.FormatJSON}, renderedAt)
		require.NoError(t, err)
		assert.Equal(t, "{}", string(resp.Body))
	})
}

func TestRenderJSONP(t *testing.T) {
	r := newRenderer()
	resp, err := r.Render(models.Absent(), "jk01", models.Params{Format: models.FormatJSONP, Callback: "cb_1"}, renderedAt)
	require.NoError(t, err)
	assert.Equal(t, "cb_1({});", string(resp.Body))
	assert.Equal(t, ContentTypeJSONP, resp.Header.Get("Content-Type"))

	_, err = r.Render(models.Absent(), "jk01", models.Params{Format: models.FormatJSONP}, renderedAt)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestRenderRedirect(t *testing.T) {
	r := newRenderer()

	t.Run("first entry of target", func(t *testing.T) {
		rec := &models.Record{Links: models.Links{
			models.DatabaseWikidata: {{Ident: "Q1", URL: "https://www.wikidata.org/wiki/Q1"}},
		}}
		resp, err := r.Render(rec, "jk01", models.Params{Format: models.FormatRedirect, Target: models.DatabaseWikidata}, renderedAt)
		require.NoError(t, err)
		assert.Equal(t, http.StatusFound, resp.Status)
		assert.Equal(t, "https://www.wikidata.org/wiki/Q1", resp.Header.Get("Location"))
		assert.NotEmpty(t, resp.Header.Get("Expires"))
		assert.Empty(t, resp.Header.Get("Content-MD5"))
		assert.Empty(t, resp.Body)
	})

	t.Run("multiple entries pick the first", func(t *testing.T) {
		resp, err := r.Render(sampleRecord(), "jk01", models.Params{Format: models.FormatRedirect, Target: models.DatabaseISNI}, renderedAt)
		require.NoError(t, err)
		assert.Contains(t, resp.Header.Get("Location"), "0000+0001+2345+6789")
	})

	t.Run("absent record", func(t *testing.T) {
		_, err := r.Render(models.Absent(), "jk01", models.Params{Format: models.FormatRedirect, Target: models.DatabaseWikidata}, renderedAt)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("missing target", func(t *testing.T) {
		_, err := r.Render(sampleRecord(), "jk01", models.Params{Format: models.FormatRedirect, Target: models.DatabaseORCID}, renderedAt)
		require.Error(t, err)
		de, ok := dErrors.As(err)
		require.True(t, ok)
		assert.Equal(t, dErrors.CodeNotFound, de.Code)
		assert.Equal(t, "Target link not available", de.Message)
	})
}

func TestRenderHTML(t *testing.T) {
	r := newRenderer()

	t.Run("page", func(t *testing.T) {
		resp, err := r.Render(sampleRecord(), "jk01", models.Params{Format: models.FormatHTML}, renderedAt)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.Status)
		assert.Equal(t, ContentTypeHTML, resp.Header.Get("Content-Type"))

		body := string(resp.Body)
		assert.Contains(t, body, "<h1>Karel Čapek</h1>")
		assert.Contains(t, body, "český spisovatel &lt;a&gt;")
		assert.Contains(t, body, `href="http://aut.nkp.cz/jk01"`)
		assert.Contains(t, body, `<link rel="icon" href="https://example.org/favicon.ico">`)
		assert.Contains(t, body, "<h2>Wikidata</h2>")
		assert.Contains(t, body, ">0000 0004 1111 2222</a>")
		assert.Contains(t, body, "Generated by NKlink at 2026-10-19 12:30:00Z")
		assert.Contains(t, body, `href="?autid=jk01&amp;format=json"`)
		assert.NotContains(t, body, "ORCID")
		assert.Less(t, strings.Index(body, "Wikidata"), strings.Index(body, "ISNI"))
	})

	t.Run("absent record", func(t *testing.T) {
		_, err := r.Render(models.Absent(), "jk01", models.Params{Format: models.FormatHTML}, renderedAt)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("found without links still renders", func(t *testing.T) {
		rec := &models.Record{Label: "X", Links: models.Links{}}
		resp, err := r.Render(rec, "jk01", models.Params{Format: models.FormatHTML}, renderedAt)
		require.NoError(t, err)
		assert.Contains(t, string(resp.Body), "<h1>X</h1>")
	})
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := newRenderer().Render(models.Absent(), "jk01", models.Params{Format: "xml"}, renderedAt)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}
