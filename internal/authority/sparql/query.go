// Package sparql resolves authority IDs against the Wikidata Query Service.
package sparql

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/mormegil-cz/nklink/internal/authority/models"
)

// QueryVersion identifies the revision of the query template.
const QueryVersion = "2"

var (
	languagePattern = regexp.MustCompile(`^[a-z]{2,3}(-[a-z0-9]+)*$`)
	propertyPattern = regexp.MustCompile(`^P[1-9][0-9]*$`)
)

// CrossReference binds a database to the Wikidata property holding its
// identifiers.
type CrossReference struct {
	Database models.Database
	Property string
}

// DefaultCrossReferences lists the external identifier properties queried.
func DefaultCrossReferences() []CrossReference {
	return []CrossReference{
		{Database: models.DatabaseORCID, Property: "P496"},
		{Database: models.DatabaseISNI, Property: "P213"},
	}
}

// Variable is the SPARQL variable bound to the identifiers of the database.
func (r CrossReference) Variable() string {
	return string(r.Database)
}

// articleVariable is the SPARQL variable bound to the article in lang.
func articleVariable(lang string) string {
	return "linkWp_" + strings.ReplaceAll(lang, "-", "_")
}

// QueryBuilder renders the resolution query. The only request-dependent
// value is the authority ID, which is always emitted through EscapeLiteral.
type QueryBuilder struct {
	authorityProperty string
	languages         []string
	crossReferences   []CrossReference
	tmpl              *template.Template
}

// NewQueryBuilder validates the template inputs. Languages are tried in the
// given order; the first one with an article wins.
func NewQueryBuilder(authorityProperty string, languages []string, refs []CrossReference) (*QueryBuilder, error) {
	if !propertyPattern.MatchString(authorityProperty) {
		return nil, fmt.Errorf("invalid authority property %q", authorityProperty)
	}
	if len(languages) == 0 {
		return nil, fmt.Errorf("at least one language is required")
	}
	for _, lang := range languages {
		if !languagePattern.MatchString(lang) {
			return nil, fmt.Errorf("invalid language code %q", lang)
		}
	}
	for _, ref := range refs {
		if !propertyPattern.MatchString(ref.Property) {
			return nil, fmt.Errorf("invalid property %q for %s", ref.Property, ref.Database)
		}
	}

	tmpl, err := template.New("query").Funcs(template.FuncMap{
		"literal":    EscapeLiteral,
		"articleVar": articleVariable,
		"join":       strings.Join,
	}).Parse(queryTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse query template: %w", err)
	}

	return &QueryBuilder{
		authorityProperty: authorityProperty,
		languages:         append([]string(nil), languages...),
		crossReferences:   append([]CrossReference(nil), refs...),
		tmpl:              tmpl,
	}, nil
}

// Languages returns the article language priority list.
func (b *QueryBuilder) Languages() []string {
	return append([]string(nil), b.languages...)
}

// CrossReferences returns the queried external identifier properties.
func (b *QueryBuilder) CrossReferences() []CrossReference {
	return append([]CrossReference(nil), b.crossReferences...)
}

// Build renders the query for id.
func (b *QueryBuilder) Build(id models.AuthorityID) (string, error) {
	var sb strings.Builder
	err := b.tmpl.Execute(&sb, struct {
		AuthorityProperty string
		AuthorityID       string
		Languages         []string
		CrossReferences   []CrossReference
	}{
		AuthorityProperty: b.authorityProperty,
		AuthorityID:       id.String(),
		Languages:         b.languages,
		CrossReferences:   b.crossReferences,
	})
	if err != nil {
		return "", fmt.Errorf("render query: %w", err)
	}
	return sb.String(), nil
}

// EscapeLiteral renders s as a double-quoted SPARQL string literal
// (STRING_LITERAL2 with ECHAR escapes).
func EscapeLiteral(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\'':
			sb.WriteString(`\'`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// The inner subquery is limited to one row so label and article bindings
// come from a single entity; the outer OPTIONALs then multiply rows by the
// number of cross-reference values.
const queryTemplate = `SELECT ?entity ?entityLabel ?entityDescription{{range .Languages}} ?{{articleVar .}}{{end}}{{range .CrossReferences}} ?{{.Variable}}{{end}}
WITH
{
SELECT * WHERE {
?entity p:{{.AuthorityProperty}}/ps:{{.AuthorityProperty}} {{literal .AuthorityID}}.
{{- range .Languages}}
OPTIONAL {
?{{articleVar .}} a schema:Article;
schema:about ?entity;
schema:isPartOf <https://{{.}}.wikipedia.org/>
}
{{- end}}
}
LIMIT 1
} AS %itemWithLinks
WHERE
{
INCLUDE %itemWithLinks.
{{- range .CrossReferences}}
OPTIONAL {
?entity wdt:{{.Property}} ?{{.Variable}}
}
{{- end}}
SERVICE wikibase:label {
bd:serviceParam wikibase:language "{{join .Languages ","}}".
}
}
`
