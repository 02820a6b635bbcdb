// Package strips stores catalog entries in the comic_strips table.
package strips

import (
	"context"

	"github.com/albertomaydayjhondoe/porterias/internal/models"
)

type Repository interface {
	// Insert adds e. An existing row with the same id is left untouched and
	// reported as common.ErrVersionConflict.
	Insert(ctx context.Context, e models.Entry) error
	Get(ctx context.Context, id string) (models.Entry, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Entry, error)
	IDs(ctx context.Context) ([]string, error)
}
