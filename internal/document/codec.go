// Package document encodes and decodes the catalog JSON document.
//
// Fields this program does not know, on the document or on an entry, survive
// a decode and encode round trip so that other writers' data is kept.
package document

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/goccy/go-json"

	"github.com/albertomaydayjhondoe/porterias/internal/models"
)

var (
	documentFields = []string{"entries", "lastUpdated"}
	entryFields    = []string{"id", "title", "mediaKind", "imageUrl", "videoUrl", "publishDate"}
)

// Empty returns the document used when the remote file does not exist yet.
func Empty() models.Document {
	return models.Document{Entries: []models.Entry{}}
}

// Decode parses raw. Blank input decodes to the empty document.
func Decode(raw []byte) (models.Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Empty(), nil
	}
	var doc models.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return models.Document{}, fmt.Errorf("decode catalog document: %w", err)
	}
	if doc.Entries == nil {
		doc.Entries = []models.Entry{}
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return models.Document{}, fmt.Errorf("decode catalog document: %w", err)
	}
	doc.Extra = unknown(top, documentFields)

	var entries []map[string]json.RawMessage
	if list, ok := top["entries"]; ok {
		if err := json.Unmarshal(list, &entries); err != nil {
			return models.Document{}, fmt.Errorf("decode catalog entries: %w", err)
		}
	}
	for i := range doc.Entries {
		if i < len(entries) {
			doc.Entries[i].Extra = unknown(entries[i], entryFields)
		}
	}
	return doc, nil
}

func unknown(fields map[string]json.RawMessage, known []string) map[string][]byte {
	var extra map[string][]byte
	for name, v := range fields {
		if slices.Contains(known, name) {
			continue
		}
		if extra == nil {
			extra = map[string][]byte{}
		}
		extra[name] = append([]byte(nil), v...)
	}
	return extra
}

// Encode renders doc with two-space indentation and a trailing newline so
// repository diffs stay readable.
func Encode(doc models.Document) ([]byte, error) {
	entries := make([]json.RawMessage, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		b, err := encodeEntry(e)
		if err != nil {
			return nil, fmt.Errorf("encode catalog document: %w", err)
		}
		entries = append(entries, b)
	}

	b, err := json.Marshal(struct {
		Entries     []json.RawMessage `json:"entries"`
		LastUpdated *time.Time        `json:"lastUpdated"`
	}{entries, doc.LastUpdated})
	if err != nil {
		return nil, fmt.Errorf("encode catalog document: %w", err)
	}
	if b, err = withExtra(b, doc.Extra, documentFields); err != nil {
		return nil, fmt.Errorf("encode catalog document: %w", err)
	}
	return indent(b)
}

// Fragment renders a single entry the way it appears inside the document,
// for operators merging it by hand.
func Fragment(e models.Entry) (string, error) {
	b, err := encodeEntry(e)
	if err != nil {
		return "", fmt.Errorf("encode entry: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "", "  "); err != nil {
		return "", fmt.Errorf("encode entry: %w", err)
	}
	return buf.String(), nil
}

func encodeEntry(e models.Entry) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return withExtra(b, e.Extra, entryFields)
}

// withExtra appends extra to the JSON object obj in name order. Names that
// collide with known fields are skipped.
func withExtra(obj []byte, extra map[string][]byte, known []string) ([]byte, error) {
	if len(extra) == 0 {
		return obj, nil
	}
	out := append([]byte(nil), obj[:len(obj)-1]...)
	for _, name := range slices.Sorted(maps.Keys(extra)) {
		if slices.Contains(known, name) {
			continue
		}
		v := extra[name]
		if !json.Valid(v) {
			return nil, fmt.Errorf("field %q is not valid JSON", name)
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		if len(out) > 1 {
			out = append(out, ',')
		}
		out = append(out, key...)
		out = append(out, ':')
		out = append(out, v...)
	}
	return append(out, '}'), nil
}

func indent(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "", "  "); err != nil {
		return nil, fmt.Errorf("encode catalog document: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
