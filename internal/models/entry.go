// Package models defines the catalog data model: entries, drafts, uploads and
// the JSON document that stores them.
package models

import (
	"fmt"
	"path"
	"strings"
)

// MediaKind selects where an entry is shown and which URL field it carries.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Placement values returned by MediaKind.Placement.
const (
	PlacementHome    = "home"
	PlacementArchive = "archive"
)

// Valid reports whether k is one of the known kinds.
func (k MediaKind) Valid() bool {
	return k == MediaImage || k == MediaVideo
}

// Placement returns the page the kind is published on: videos go to the home
// feed, images to the archive.
func (k MediaKind) Placement() string {
	if k == MediaVideo {
		return PlacementHome
	}
	return PlacementArchive
}

// Entry is one published strip.
//
// Exactly one of ImageURL and VideoURL is set, and it matches MediaKind.
// PublishDate is a calendar date in YYYY-MM-DD form.
type Entry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	MediaKind   MediaKind `json:"mediaKind"`
	ImageURL    *string   `json:"imageUrl"`
	VideoURL    *string   `json:"videoUrl"`
	PublishDate string    `json:"publishDate"`

	// Extra holds the raw JSON of fields written by other tools, keyed by
	// name. The document codec writes them back unchanged.
	Extra map[string][]byte `json:"-"`
}

// NewEntry builds the entry for an admitted draft stored at url.
func NewEntry(id string, d Draft, url string) Entry {
	e := Entry{
		ID:          id,
		Title:       d.Title,
		MediaKind:   d.MediaKind,
		PublishDate: d.PublishDate,
	}
	u := url
	if d.MediaKind == MediaVideo {
		e.VideoURL = &u
	} else {
		e.ImageURL = &u
	}
	return e
}

// MediaURL returns whichever URL is populated.
func (e Entry) MediaURL() string {
	switch {
	case e.VideoURL != nil:
		return *e.VideoURL
	case e.ImageURL != nil:
		return *e.ImageURL
	default:
		return ""
	}
}

// BlobName returns the last path segment of the media URL, which is the name
// the blob was stored under.
func (e Entry) BlobName() string {
	u := e.MediaURL()
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	if u == "" {
		return ""
	}
	return path.Base(u)
}

// Month returns the YYYY-MM grouping key.
func (e Entry) Month() string {
	if len(e.PublishDate) < 7 {
		return e.PublishDate
	}
	return e.PublishDate[:7]
}

// Validate checks the media reference invariant.
func (e Entry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("entry has no id")
	}
	if !e.MediaKind.Valid() {
		return fmt.Errorf("entry %s: unknown media kind %q", e.ID, e.MediaKind)
	}
	hasImage, hasVideo := e.ImageURL != nil, e.VideoURL != nil
	switch {
	case hasImage && hasVideo:
		return fmt.Errorf("entry %s: both imageUrl and videoUrl are set", e.ID)
	case !hasImage && !hasVideo:
		return fmt.Errorf("entry %s: no media url", e.ID)
	case e.MediaKind == MediaImage && !hasImage:
		return fmt.Errorf("entry %s: image entry carries a videoUrl", e.ID)
	case e.MediaKind == MediaVideo && !hasVideo:
		return fmt.Errorf("entry %s: video entry carries an imageUrl", e.ID)
	}
	return nil
}

// Draft is an admitted upload's metadata, not yet persisted.
type Draft struct {
	Title       string    `validate:"max=200"`
	PublishDate string    `validate:"required,pubdate"`
	MediaKind   MediaKind `validate:"oneof=image video"`
}
