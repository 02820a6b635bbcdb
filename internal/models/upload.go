package models

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Upload is a candidate media file. Size is authoritative for the size
// check; Data holds the bytes to store.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// defaultExt is used when the upload name carries no extension.
var defaultExt = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
	"video/mp4":  "mp4",
	"video/webm": "webm",
	"video/ogg":  "ogg",
}

// Ext returns the lower-cased extension of the upload without the dot.
func (u Upload) Ext() string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(u.Name)), ".")
	if ext != "" {
		return ext
	}
	if e, ok := defaultExt[strings.ToLower(u.ContentType)]; ok {
		return e
	}
	return "bin"
}

// BlobName is the storage name of a media file:
// {mediaKind}-{YYYY-MM-DD}-{epochMillis}.{ext}.
func BlobName(kind MediaKind, publishDate string, millis int64, ext string) string {
	return fmt.Sprintf("%s-%s-%d.%s", kind, publishDate, millis, ext)
}
