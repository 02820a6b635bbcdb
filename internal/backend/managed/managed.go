// Package managed persists strips in an S3-compatible bucket and a
// PostgreSQL table.
//
// Blob and row writes are sequential and not transactional. A failed row
// insert after a successful upload leaves the object in the bucket and is
// reported as a partial write.
package managed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/albertomaydayjhondoe/porterias/internal/backend"
	"github.com/albertomaydayjhondoe/porterias/internal/catalog"
	"github.com/albertomaydayjhondoe/porterias/internal/common"
	"github.com/albertomaydayjhondoe/porterias/internal/logging"
	"github.com/albertomaydayjhondoe/porterias/internal/models"
	"github.com/albertomaydayjhondoe/porterias/internal/repositories/strips"
	"github.com/albertomaydayjhondoe/porterias/internal/session"
)

const cacheControl = "max-age=3600"

// DefaultRequestTimeout applies when S3Config.RequestTimeout is zero.
const DefaultRequestTimeout = 30 * time.Second

// Backend implements backend.Backend.
type Backend struct {
	objects   ObjectStore
	bucket    string
	publicURL string
	repo      strips.Repository
	timeout   time.Duration
	sess      session.Session
	log       logging.Logger
	now       backend.Clock
}

var _ backend.Backend = (*Backend)(nil)

// New requires an authorized session.
func New(objects ObjectStore, cfg S3Config, repo strips.Repository, sess session.Session, log logging.Logger) (*Backend, error) {
	if err := sess.Authorize(); err != nil {
		return nil, err
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("managed backend: bucket is not configured")
	}
	base := cfg.PublicBaseURL
	if base == "" {
		base = cfg.BaseEndpoint
	}
	if log == nil {
		log = logging.Nop()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Backend{
		objects:   objects,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(base, "/"),
		repo:      repo,
		timeout:   timeout,
		sess:      sess,
		log:       log.With("backend", "managed", "account_id", sess.AccountID),
		now:       time.Now,
	}, nil
}

// PublicURL is where the object key is served from.
func (b *Backend) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", b.publicURL, b.bucket, key)
}

// bounded gives one remote call its own deadline.
func (b *Backend) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.timeout)
}

func (b *Backend) Publish(ctx context.Context, upload models.Upload, draft models.Draft) (models.Entry, error) {
	key := backend.BlobNameFor(upload, draft, b.now())

	putCtx, cancel := b.bounded(ctx)
	_, err := b.objects.PutObject(putCtx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(upload.Data),
		ContentType:   aws.String(upload.ContentType),
		ContentLength: aws.Int64(int64(len(upload.Data))),
		CacheControl:  aws.String(cacheControl),
		IfNoneMatch:   aws.String("*"),
	})
	cancel()
	if err != nil {
		b.log.Error(ctx, "blob upload failed", "blob_path", key, "error", err)
		return models.Entry{}, &common.TransportError{Op: "upload", Err: err}
	}
	b.log.Info(ctx, "blob uploaded", "blob_path", key)

	idsCtx, cancel := b.bounded(ctx)
	ids, err := b.repo.IDs(idsCtx)
	cancel()
	if err != nil {
		return models.Entry{}, b.partial(ctx, key, err)
	}
	entry := models.NewEntry(catalog.NextID(ids), draft, b.PublicURL(key))

	insertCtx, cancel := b.bounded(ctx)
	err = b.repo.Insert(insertCtx, entry)
	cancel()
	if err != nil {
		return models.Entry{}, b.partial(ctx, key, err)
	}

	b.log.Info(ctx, "entry published", "entry_id", entry.ID, "blob_path", key)
	return entry, nil
}

func (b *Backend) partial(ctx context.Context, key string, err error) error {
	b.log.Error(ctx, "row insert failed after upload", "blob_path", key, "error", err)
	return &common.PartialWriteError{BlobPath: b.PublicURL(key), Err: err}
}

// Unpublish removes the object best-effort, then the row.
func (b *Backend) Unpublish(ctx context.Context, id string) error {
	getCtx, cancel := b.bounded(ctx)
	entry, err := b.repo.Get(getCtx, id)
	cancel()
	if err != nil {
		return err
	}

	if name := entry.BlobName(); name != "" {
		delCtx, cancel := b.bounded(ctx)
		_, derr := b.objects.DeleteObject(delCtx, &s3.DeleteObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(name),
		})
		cancel()
		if derr != nil {
			b.log.Warn(ctx, "blob delete failed, continuing", "entry_id", id, "blob_path", name, "error", derr)
		}
	}

	delCtx, cancel := b.bounded(ctx)
	defer cancel()
	if err := b.repo.Delete(delCtx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete row %s: %w", id, err)
	}
	b.log.Info(ctx, "entry unpublished", "entry_id", id)
	return nil
}

func (b *Backend) List(ctx context.Context) ([]models.Entry, error) {
	ctx, cancel := b.bounded(ctx)
	defer cancel()
	return b.repo.List(ctx)
}
