package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertomaydayjhondoe/porterias/internal/logging"
	"github.com/albertomaydayjhondoe/porterias/internal/models"
)

type fakeClipboard struct {
	text string
	err  error
}

func (f *fakeClipboard) WriteAll(text string) error {
	if f.err != nil {
		return f.err
	}
	f.text = text
	return nil
}

func TestBlobNameFor(t *testing.T) {
	now := time.UnixMilli(1709251200123)
	got := BlobNameFor(
		models.Upload{Name: "Clip.MP4"},
		models.Draft{PublishDate: "2024-03-01", MediaKind: models.MediaVideo},
		now,
	)
	assert.Equal(t, "video-2024-03-01-1709251200123.mp4", got)
}

func TestSuccessMessage(t *testing.T) {
	v := models.NewEntry("strip-004", models.Draft{PublishDate: "2024-03-01", MediaKind: models.MediaVideo}, "x.mp4")
	i := models.NewEntry("strip-005", models.Draft{PublishDate: "2024-03-01", MediaKind: models.MediaImage}, "x.png")

	assert.Contains(t, SuccessMessage(v), "home page")
	assert.Contains(t, SuccessMessage(i), "archive")
}

func TestDeliver_Clipboard(t *testing.T) {
	clip := &fakeClipboard{}
	dir := t.TempDir()

	p, err := Deliver(context.Background(), logging.Nop(), clip, dir, "a.instructions.txt", "steps")
	require.NoError(t, err)
	assert.Empty(t, p)
	assert.Equal(t, "steps", clip.text)

	_, err = os.Stat(filepath.Join(dir, "a.instructions.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestDeliver_FallsBackToFile(t *testing.T) {
	clip := &fakeClipboard{err: errors.New("no display")}
	dir := filepath.Join(t.TempDir(), "downloads")

	p, err := Deliver(context.Background(), logging.Nop(), clip, dir, "a.instructions.txt", "steps")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.instructions.txt"), p)

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "steps", string(b))
}

func TestMergeInstructions(t *testing.T) {
	e := models.NewEntry("strip-004", models.Draft{Title: "Lunes", PublishDate: "2024-03-01", MediaKind: models.MediaImage}, "/strips/image-2024-03-01-1.png")

	text, err := MergeInstructions(e, "downloads/image-2024-03-01-1.png", "public/strips/", "public/data/strips.json")
	require.NoError(t, err)

	assert.Contains(t, text, "1. Move downloads/image-2024-03-01-1.png into public/strips/")
	assert.Contains(t, text, "public/data/strips.json")
	assert.Contains(t, text, `"id": "strip-004"`)
	assert.Contains(t, text, `"videoUrl": null`)
	assert.Contains(t, text, "4. Commit and push")
}

func TestRemovalInstructions(t *testing.T) {
	e := models.NewEntry("strip-002", models.Draft{PublishDate: "2024-03-01", MediaKind: models.MediaVideo}, "/strips/video-2024-03-01-9.mp4")

	text := RemovalInstructions(e, "public/strips", "public/data/strips.json")
	assert.Contains(t, text, `"id": "strip-002"`)
	assert.Contains(t, text, "Delete public/strips/video-2024-03-01-9.mp4")

	bare := RemovalInstructions(models.Entry{ID: "strip-009"}, "public/strips", "doc.json")
	assert.Contains(t, bare, "2. Commit and push")
}

func TestSiteURL(t *testing.T) {
	assert.Equal(t, "/strips/a.png", SiteURL("public/strips/", "a.png"))
	assert.Equal(t, "/strips/a.png", SiteURL("strips", "a.png"))
	assert.Equal(t, "/a.png", SiteURL("public", "a.png"))
	assert.Equal(t, "/publicity/a.png", SiteURL("publicity", "a.png"))
}
