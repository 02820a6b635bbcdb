package models

import "time"

// Document is the catalog file stored in the content repository:
//
//	{ "entries": [...], "lastUpdated": "2024-03-01T10:00:00Z" }
//
// Entries are kept most-recent-insertion first.
type Document struct {
	Entries     []Entry    `json:"entries"`
	LastUpdated *time.Time `json:"lastUpdated"`

	// Extra holds unknown top-level fields as raw JSON, keyed by name.
	Extra map[string][]byte `json:"-"`
}

// IDs returns the ids of all entries in document order.
func (d Document) IDs() []string {
	ids := make([]string, 0, len(d.Entries))
	for _, e := range d.Entries {
		ids = append(ids, e.ID)
	}
	return ids
}

// Prepend returns a copy of d with e at the head.
func (d Document) Prepend(e Entry, now time.Time) Document {
	entries := make([]Entry, 0, len(d.Entries)+1)
	entries = append(entries, e)
	entries = append(entries, d.Entries...)
	ts := now.UTC()
	return Document{Entries: entries, LastUpdated: &ts, Extra: d.Extra}
}

// Without returns a copy of d lacking the entry with id and whether it was
// present.
func (d Document) Without(id string, now time.Time) (Document, bool) {
	entries := make([]Entry, 0, len(d.Entries))
	found := false
	for _, e := range d.Entries {
		if e.ID == id {
			found = true
			continue
		}
		entries = append(entries, e)
	}
	if !found {
		return d, false
	}
	ts := now.UTC()
	return Document{Entries: entries, LastUpdated: &ts, Extra: d.Extra}, true
}
