package models

import (
	"net/url"
	"strings"

	dErrors "github.com/mormegil-cz/nklink/pkg/domain-errors"
)

// Database identifies an external database a record can link to.
type Database string

const (
	DatabaseWikidata  Database = "wikidata"
	DatabaseWikipedia Database = "wikipedia"
	DatabaseISNI      Database = "isni"
	DatabaseORCID     Database = "orcid"
)

// databaseOrder is the canonical key order of a record's links.
var databaseOrder = []Database{
	DatabaseWikidata,
	DatabaseWikipedia,
	DatabaseISNI,
	DatabaseORCID,
}

// Databases returns all supported databases in canonical order.
func Databases() []Database {
	out := make([]Database, len(databaseOrder))
	copy(out, databaseOrder)
	return out
}

// ParseDatabase validates a raw database key.
func ParseDatabase(raw string) (Database, error) {
	for _, db := range databaseOrder {
		if string(db) == raw {
			return db, nil
		}
	}
	return "", dErrors.New(dErrors.CodeBadRequest, "Unsupported target")
}

func (d Database) String() string {
	return string(d)
}

// DatabaseInfo is the presentation data of a database.
type DatabaseInfo struct {
	Database Database
	Name     string
	// URLTemplate has $1 replaced by the query-escaped identifier.
	URLTemplate string
}

// Link builds the URL of ident in this database.
func (d DatabaseInfo) Link(ident string) string {
	return strings.ReplaceAll(d.URLTemplate, "$1", url.QueryEscape(ident))
}

// Catalog holds the display name and URL template of every supported
// database. It is built once at startup and never modified.
type Catalog struct {
	entries map[Database]DatabaseInfo
}

// DefaultCatalog returns the catalog of the supported databases.
func DefaultCatalog() Catalog {
	return NewCatalog([]DatabaseInfo{
		{Database: DatabaseWikidata, Name: "Wikidata", URLTemplate: "https://www.wikidata.org/wiki/$1"},
		// Wikipedia links are the article URLs themselves.
		{Database: DatabaseWikipedia, Name: "Wikipedia", URLTemplate: "$1"},
		{Database: DatabaseISNI, Name: "ISNI", URLTemplate: "https://isni.oclc.org/xslt/DB=1.2//CMD?ACT=SRCH&IKT=8006&TRM=ISN%3A$1"},
		{Database: DatabaseORCID, Name: "ORCID", URLTemplate: "https://orcid.org/$1"},
	})
}

// NewCatalog builds a catalog from the given entries.
func NewCatalog(entries []DatabaseInfo) Catalog {
	m := make(map[Database]DatabaseInfo, len(entries))
	for _, e := range entries {
		m[e.Database] = e
	}
	return Catalog{entries: m}
}

// Info returns the presentation data of db.
func (c Catalog) Info(db Database) (DatabaseInfo, bool) {
	info, ok := c.entries[db]
	return info, ok
}

// Name returns the human-readable name of db, falling back to its key.
func (c Catalog) Name(db Database) string {
	if info, ok := c.entries[db]; ok {
		return info.Name
	}
	return string(db)
}
