package sparql

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/mormegil-cz/nklink/internal/authority/models"
	pstrings "github.com/mormegil-cz/nklink/pkg/platform/strings"
)

var errMalformed = errors.New("malformed result document")

// binding is one variable of a result row. Only value is used.
type binding struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type row map[string]binding

type resultDocument struct {
	Results *struct {
		Bindings []row `json:"bindings"`
	} `json:"results"`
}

// Parser turns a SPARQL JSON result document into a record.
type Parser struct {
	languages       []string
	crossReferences []CrossReference
	catalog         models.Catalog
}

// NewParser creates a parser matching the variables emitted by b.
func NewParser(b *QueryBuilder, catalog models.Catalog) *Parser {
	return &Parser{
		languages:       b.Languages(),
		crossReferences: b.CrossReferences(),
		catalog:         catalog,
	}
}

// Parse decodes body. An empty result set yields the absent record.
func (p *Parser) Parse(body []byte) (*models.Record, error) {
	var doc resultDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	if doc.Results == nil {
		return nil, errMalformed
	}
	return p.aggregate(doc.Results.Bindings)
}

// aggregate builds the record from all rows. Label, description and the
// article come from the first row; cross-reference identifiers are collected
// from every row, de-duplicated in first-seen order.
func (p *Parser) aggregate(rows []row) (*models.Record, error) {
	if len(rows) == 0 {
		return models.Absent(), nil
	}
	first := rows[0]

	entity := first["entity"].Value
	if entity == "" {
		return nil, errMalformed
	}
	qid := lastSegment(entity)

	links := models.Links{
		models.DatabaseWikidata: {p.link(models.DatabaseWikidata, qid, titleFromURL(entity))},
	}

	for _, lang := range p.languages {
		if b, ok := first[articleVariable(lang)]; ok && b.Value != "" {
			links[models.DatabaseWikipedia] = []models.LinkEntry{{
				Ident: titleFromURL(b.Value),
				URL:   b.Value,
			}}
			break
		}
	}

	for _, ref := range p.crossReferences {
		var values []string
		for _, r := range rows {
			if b, ok := r[ref.Variable()]; ok {
				values = append(values, b.Value)
			}
		}
		values = pstrings.DedupeAndTrim(values)
		if len(values) == 0 {
			continue
		}
		entries := make([]models.LinkEntry, 0, len(values))
		for _, v := range values {
			entries = append(entries, p.link(ref.Database, v, v))
		}
		links[ref.Database] = entries
	}

	return &models.Record{
		Label:       first["entityLabel"].Value,
		Description: first["entityDescription"].Value,
		Links:       links,
	}, nil
}

func (p *Parser) link(db models.Database, value, ident string) models.LinkEntry {
	info, ok := p.catalog.Info(db)
	if !ok {
		return models.LinkEntry{Ident: ident, URL: value}
	}
	return models.LinkEntry{Ident: ident, URL: info.Link(value)}
}

func lastSegment(u string) string {
	if i := strings.LastIndexByte(u, '/'); i >= 0 {
		return u[i+1:]
	}
	return u
}

// titleFromURL extracts a display title from the last path segment of u:
// underscores become spaces and percent-escapes are decoded.
func titleFromURL(u string) string {
	seg := strings.ReplaceAll(lastSegment(u), "_", " ")
	if decoded, err := url.PathUnescape(seg); err == nil {
		return decoded
	}
	return seg
}
