package strips

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/albertomaydayjhondoe/porterias/internal/common"
	"github.com/albertomaydayjhondoe/porterias/internal/dbx"
	"github.com/albertomaydayjhondoe/porterias/internal/models"
)

// PostgresRepository implements Repository over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, e models.Entry) error {
	query := `
		INSERT INTO comic_strips (id, title, image_url, video_url, media_kind, publish_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		e.ID, nullString(e.Title), e.ImageURL, e.VideoURL, string(e.MediaKind), e.PublishDate)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("strip %s already exists: %w", e.ID, common.ErrVersionConflict)
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (models.Entry, error) {
	query := `
		SELECT id, title, image_url, video_url, media_kind, publish_date
		FROM comic_strips WHERE id = $1
	`
	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Entry{}, common.ErrNotFound
		}
		return models.Entry{}, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comic_strips WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// List returns every strip, newest publish date first, then newest row.
func (r *PostgresRepository) List(ctx context.Context) ([]models.Entry, error) {
	query := `
		SELECT id, title, image_url, video_url, media_kind, publish_date
		FROM comic_strips
		ORDER BY publish_date DESC, created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select strips: %w", err)
	}
	defer rows.Close()

	result := []models.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan strip: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate strips: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) IDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM comic_strips`)
	if err != nil {
		return nil, fmt.Errorf("failed to select ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (models.Entry, error) {
	var (
		e     models.Entry
		title sql.NullString
		img   sql.NullString
		vid   sql.NullString
		kind  string
	)
	if err := s.Scan(&e.ID, &title, &img, &vid, &kind, &e.PublishDate); err != nil {
		return models.Entry{}, err
	}
	e.Title = title.String
	e.MediaKind = models.MediaKind(kind)
	if img.Valid {
		e.ImageURL = &img.String
	}
	if vid.Valid {
		e.VideoURL = &vid.String
	}
	return e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
