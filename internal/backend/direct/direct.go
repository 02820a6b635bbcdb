// Package direct commits strips straight into the site repository through
// its contents API.
//
// A publish writes the media file, then performs a read-modify-write of the
// catalog document guarded by the document's version token. A stale token
// fails the publish; nothing is retried and nothing is locked locally.
package direct

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/albertomaydayjhondoe/porterias/internal/backend"
	"github.com/albertomaydayjhondoe/porterias/internal/catalog"
	"github.com/albertomaydayjhondoe/porterias/internal/common"
	"github.com/albertomaydayjhondoe/porterias/internal/contents"
	"github.com/albertomaydayjhondoe/porterias/internal/document"
	"github.com/albertomaydayjhondoe/porterias/internal/logging"
	"github.com/albertomaydayjhondoe/porterias/internal/models"
	"github.com/albertomaydayjhondoe/porterias/internal/session"
)

// DefaultReadLimit caps List.
const DefaultReadLimit = 20

// Files is the write path.
type Files interface {
	Get(ctx context.Context, path string) (contents.File, error)
	Put(ctx context.Context, path string, content []byte, message, token string) (string, error)
}

// DocumentReader is the public read path.
type DocumentReader interface {
	Fetch(ctx context.Context) (models.Document, error)
}

type Config struct {
	MediaDir     string
	DocumentPath string
	ReadLimit    int
	// InstructionsDir receives removal instructions when the clipboard is
	// unavailable.
	InstructionsDir string
}

// Backend implements backend.Backend.
type Backend struct {
	files   Files
	reader  DocumentReader
	catalog *catalog.Catalog
	clip    backend.Clipboard
	cfg     Config
	log     logging.Logger
	now     backend.Clock

	mu     sync.Mutex
	notice backend.Notice
}

var _ backend.Backend = (*Backend)(nil)

// New requires an authorized session. cat may be nil, in which case the
// backend keeps its own.
func New(files Files, reader DocumentReader, cat *catalog.Catalog, clip backend.Clipboard, cfg Config, sess session.Session, log logging.Logger) (*Backend, error) {
	if err := sess.Authorize(); err != nil {
		return nil, err
	}
	if cfg.DocumentPath == "" {
		return nil, fmt.Errorf("direct backend: document path is not configured")
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = DefaultReadLimit
	}
	if cat == nil {
		cat = catalog.New()
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Backend{
		files:   files,
		reader:  reader,
		catalog: cat,
		clip:    clip,
		cfg:     cfg,
		log:     log.With("backend", "direct", "account_id", sess.AccountID),
		now:     time.Now,
	}, nil
}

// Catalog is the local view updated by Publish and List.
func (b *Backend) Catalog() *catalog.Catalog { return b.catalog }

func (b *Backend) Publish(ctx context.Context, upload models.Upload, draft models.Draft) (models.Entry, error) {
	name := backend.BlobNameFor(upload, draft, b.now())
	blobPath := path.Join(b.cfg.MediaDir, name)

	if _, err := b.files.Put(ctx, blobPath, upload.Data, "Add media "+name, ""); err != nil {
		b.log.Error(ctx, "media write failed", "blob_path", blobPath, "error", err)
		return models.Entry{}, err
	}
	b.log.Info(ctx, "media written", "blob_path", blobPath)

	doc, token, err := b.fetchDocument(ctx)
	if err != nil {
		return models.Entry{}, b.partial(ctx, blobPath, err)
	}

	entry := models.NewEntry(catalog.NextID(doc.IDs()), draft, backend.SiteURL(b.cfg.MediaDir, name))
	raw, err := document.Encode(doc.Prepend(entry, b.now()))
	if err != nil {
		return models.Entry{}, b.partial(ctx, blobPath, err)
	}

	if _, err := b.files.Put(ctx, b.cfg.DocumentPath, raw, "Publish "+entry.ID, token); err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			b.log.Warn(ctx, "document changed since it was read", "entry_id", entry.ID, "version_token", contents.ShortToken(token))
		}
		return models.Entry{}, b.partial(ctx, blobPath, err)
	}

	b.catalog.Prepend(entry)
	b.mu.Lock()
	b.notice = backend.Notice{}
	b.mu.Unlock()
	b.log.Info(ctx, "entry published", "entry_id", entry.ID, "blob_path", blobPath)
	return entry, nil
}

// fetchDocument reads the current document and its token. A missing
// document is the empty catalog with no token.
func (b *Backend) fetchDocument(ctx context.Context) (models.Document, string, error) {
	f, err := b.files.Get(ctx, b.cfg.DocumentPath)
	if errors.Is(err, common.ErrNotFound) {
		return document.Empty(), "", nil
	}
	if err != nil {
		return models.Document{}, "", err
	}
	doc, err := document.Decode(f.Content)
	if err != nil {
		return models.Document{}, "", err
	}
	return doc, f.Token, nil
}

func (b *Backend) partial(ctx context.Context, blobPath string, err error) error {
	b.log.Error(ctx, "document update failed after media write", "blob_path", blobPath, "error", err)
	return &common.PartialWriteError{BlobPath: blobPath, Err: err}
}

// Unpublish removes the entry from the local catalog and hands the operator
// removal instructions. The remote document is not modified.
//
// TODO: remove the entry remotely with the same token-guarded write as
// Publish once removal through the contents API is approved.
func (b *Backend) Unpublish(ctx context.Context, id string) error {
	entry, err := b.catalog.Get(id)
	if err != nil {
		return err
	}

	text := backend.RemovalInstructions(entry, b.cfg.MediaDir, b.cfg.DocumentPath)
	dir := b.cfg.InstructionsDir
	if dir == "" {
		dir = "."
	}
	file, err := backend.Deliver(ctx, b.log, b.clip, dir, id+".removal.txt", text)
	if err != nil {
		return err
	}

	b.catalog.Remove(id)

	b.mu.Lock()
	b.notice = backend.Notice{InstructionsFile: file, Copied: file == ""}
	b.mu.Unlock()

	b.log.Info(ctx, "entry removed locally, remote removal is manual", "entry_id", id)
	return nil
}

func (b *Backend) LastNotice() backend.Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.notice
}

// List fetches the published document, refreshes the local catalog with it
// and returns the first ReadLimit entries in document order.
func (b *Backend) List(ctx context.Context) ([]models.Entry, error) {
	doc, err := b.reader.Fetch(ctx)
	if errors.Is(err, common.ErrNotFound) {
		doc = document.Empty()
	} else if err != nil {
		return nil, err
	}

	b.catalog.Replace(doc.Entries)

	entries := doc.Entries
	if len(entries) > b.cfg.ReadLimit {
		entries = entries[:b.cfg.ReadLimit]
	}
	return entries, nil
}
