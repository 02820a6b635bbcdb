// Package backend defines the persistence capability shared by the managed
// store, manual export and direct commit implementations, plus the helpers
// they have in common.
package backend

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/albertomaydayjhondoe/porterias/internal/models"
)

// Backend persists catalog entries and their media.
//
// Publish expects a draft already admitted by the validator. It either
// returns the stored entry or an error from the common taxonomy; a failure
// after the media write is a *common.PartialWriteError.
type Backend interface {
	Publish(ctx context.Context, upload models.Upload, draft models.Draft) (models.Entry, error)
	Unpublish(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Entry, error)
}

// Notice tells the operator where local artifacts of the last operation
// went. Copied is set when instructions reached the clipboard; otherwise
// InstructionsFile names the file they were written to, if any.
type Notice struct {
	DownloadPath     string
	InstructionsFile string
	Copied           bool
}

// Noticer is implemented by backends that hand work to the operator.
type Noticer interface {
	LastNotice() Notice
}

// Clock returns the current time. Backends take one so tests can pin blob
// names and timestamps.
type Clock func() time.Time

// BlobNameFor names the media file of a publish happening at now.
func BlobNameFor(upload models.Upload, draft models.Draft, now time.Time) string {
	return models.BlobName(draft.MediaKind, draft.PublishDate, now.UnixMilli(), upload.Ext())
}

// SuccessMessage is shown to the operator after a publish.
func SuccessMessage(e models.Entry) string {
	where := "the archive"
	if e.MediaKind.Placement() == models.PlacementHome {
		where = "the home page"
	}
	return fmt.Sprintf("Published %s (%s); it will appear on %s.", e.ID, e.MediaKind, where)
}

// SiteURL is the site-relative URL of a blob stored under mediaDir in the
// site repository. The repository's public/ prefix is not part of the URL.
func SiteURL(mediaDir, blob string) string {
	dir := strings.Trim(mediaDir, "/")
	if dir == "public" {
		dir = ""
	}
	return path.Join("/", strings.TrimPrefix(dir, "public/"), blob)
}
