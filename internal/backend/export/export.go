// Package export implements the manual-export backend: nothing is written
// remotely. Each publish leaves the media file in a local directory and
// hands the operator instructions for merging it by hand.
package export

import (
	"context"
	"sync"
	"time"

	"github.com/albertomaydayjhondoe/porterias/internal/backend"
	"github.com/albertomaydayjhondoe/porterias/internal/catalog"
	"github.com/albertomaydayjhondoe/porterias/internal/common"
	"github.com/albertomaydayjhondoe/porterias/internal/filex"
	"github.com/albertomaydayjhondoe/porterias/internal/logging"
	"github.com/albertomaydayjhondoe/porterias/internal/models"
	"github.com/albertomaydayjhondoe/porterias/internal/session"
)

// Config locates the export directory and the site layout the instructions
// refer to.
type Config struct {
	Dir          string
	MediaDir     string
	DocumentPath string
}

// Backend keeps the entries published in this session only.
type Backend struct {
	cfg  Config
	clip backend.Clipboard
	log  logging.Logger
	now  backend.Clock

	mu      sync.Mutex
	session *catalog.Catalog
	notice  backend.Notice
}

var _ backend.Backend = (*Backend)(nil)

func New(cfg Config, clip backend.Clipboard, sess session.Session, log logging.Logger) (*Backend, error) {
	if err := sess.Authorize(); err != nil {
		return nil, err
	}
	dir, err := filex.EnsureDir(cfg.Dir)
	if err != nil {
		return nil, err
	}
	cfg.Dir = dir
	if log == nil {
		log = logging.Nop()
	}
	return &Backend{
		cfg:     cfg,
		clip:    clip,
		log:     log.With("backend", "export", "account_id", sess.AccountID),
		now:     time.Now,
		session: catalog.New(),
	}, nil
}

// LastNotice is set by the most recent successful operation.
func (b *Backend) LastNotice() backend.Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.notice
}

func (b *Backend) Publish(ctx context.Context, upload models.Upload, draft models.Draft) (models.Entry, error) {
	name := backend.BlobNameFor(upload, draft, b.now())

	b.mu.Lock()
	defer b.mu.Unlock()

	p, err := filex.WriteNew(b.cfg.Dir, name, upload.Data)
	if err != nil {
		return models.Entry{}, err
	}

	entry := models.NewEntry(b.session.NextID(), draft, backend.SiteURL(b.cfg.MediaDir, name))

	text, err := backend.MergeInstructions(entry, p, b.cfg.MediaDir, b.cfg.DocumentPath)
	if err != nil {
		return models.Entry{}, &common.PartialWriteError{BlobPath: p, Err: err}
	}
	file, err := backend.Deliver(ctx, b.log, b.clip, b.cfg.Dir, backend.InstructionsFileName(name), text)
	if err != nil {
		return models.Entry{}, &common.PartialWriteError{BlobPath: p, Err: err}
	}

	b.session.Prepend(entry)
	b.notice = backend.Notice{DownloadPath: p, InstructionsFile: file, Copied: file == ""}
	b.log.Info(ctx, "entry exported", "entry_id", entry.ID, "blob_path", p)
	return entry, nil
}

func (b *Backend) Unpublish(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, err := b.session.Get(id)
	if err != nil {
		return err
	}

	text := backend.RemovalInstructions(entry, b.cfg.MediaDir, b.cfg.DocumentPath)
	file, err := backend.Deliver(ctx, b.log, b.clip, b.cfg.Dir, id+".removal.txt", text)
	if err != nil {
		return err
	}

	b.session.Remove(id)
	b.notice = backend.Notice{InstructionsFile: file, Copied: file == ""}
	b.log.Info(ctx, "entry removed from session", "entry_id", id)
	return nil
}

// List returns the entries published in this session, most recent first.
func (b *Backend) List(ctx context.Context) ([]models.Entry, error) {
	return b.session.Snapshot(), nil
}
