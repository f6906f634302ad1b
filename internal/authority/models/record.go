package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// LinkEntry is an identifier in an external database with its resolvable URL.
type LinkEntry struct {
	Ident string `json:"ident"`
	URL   string `json:"url"`
}

// Links maps a database to its entries. The first entry of each sequence is
// the representative one. Keys serialize in canonical database order.
type Links map[Database][]LinkEntry

// First returns the representative entry for db.
func (l Links) First(db Database) (LinkEntry, bool) {
	entries := l[db]
	if len(entries) == 0 {
		return LinkEntry{}, false
	}
	return entries[0], true
}

// Keys returns the databases present in l, in canonical order.
func (l Links) Keys() []Database {
	keys := make([]Database, 0, len(l))
	for _, db := range databaseOrder {
		if _, ok := l[db]; ok {
			keys = append(keys, db)
		}
	}
	return keys
}

// MarshalJSON writes the keys in canonical database order.
func (l Links) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, db := range l.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(db))
		if err != nil {
			return nil, err
		}
		entries, err := json.Marshal(l[db])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(entries)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON rejects keys outside the supported database set.
func (l *Links) UnmarshalJSON(data []byte) error {
	var raw map[string][]LinkEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*l = nil
		return nil
	}
	out := make(Links, len(raw))
	for key, entries := range raw {
		db, err := ParseDatabase(key)
		if err != nil {
			return fmt.Errorf("unsupported link database %q", key)
		}
		if entries == nil {
			entries = []LinkEntry{}
		}
		out[db] = entries
	}
	*l = out
	return nil
}

// Record is the resolved identity of an authority ID.
//
// A record with nil Links is the absent record: the authority ID has no
// corresponding graph entity. It serializes as {} so "not found" and
// "found with no data" look alike at the JSON boundary; Found tells them apart.
type Record struct {
	Label       string
	Description string
	Links       Links
}

// Absent returns the record denoting an unknown authority ID.
func Absent() *Record {
	return &Record{}
}

// Found reports whether the record denotes a graph entity.
func (r *Record) Found() bool {
	return r != nil && r.Links != nil
}

// HasEntries reports whether any link sequence holds at least one entry.
func (r *Record) HasEntries() bool {
	if !r.Found() {
		return false
	}
	for _, entries := range r.Links {
		if len(entries) > 0 {
			return true
		}
	}
	return false
}

type recordJSON struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Links       Links  `json:"links"`
}

// MarshalJSON writes {} for the absent record.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.Links == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(recordJSON(r))
}

// UnmarshalJSON restores a record written by MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	var aux recordJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Record(aux)
	return nil
}
