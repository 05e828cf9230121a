package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/pdptrack/internal/db"
	"github.com/alexanderramin/pdptrack/internal/domain"
	"github.com/alexanderramin/pdptrack/internal/importer"
)

const templateColumns = `id, owner_id, title, description, data, published, created_at, updated_at`

// SQLiteTemplateRepo implements TemplateRepo using a SQLite database.
// The payload is stored as a JSON document in the data column.
type SQLiteTemplateRepo struct {
	db db.DBTX
}

// NewSQLiteTemplateRepo creates a new SQLiteTemplateRepo.
func NewSQLiteTemplateRepo(conn db.DBTX) *SQLiteTemplateRepo {
	return &SQLiteTemplateRepo{db: conn}
}

func (r *SQLiteTemplateRepo) Create(ctx context.Context, t *domain.Template) error {
	data, err := importer.MarshalTemplateData(t.Data)
	if err != nil {
		return err
	}
	query := `INSERT INTO templates (` + templateColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		t.ID,
		t.OwnerID,
		t.Title,
		t.Description,
		data,
		boolToInt(t.Published),
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting template: %w", err)
	}
	return nil
}

func (r *SQLiteTemplateRepo) GetByID(ctx context.Context, id string) (*domain.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id = ?`
	return scanTemplate(r.db.QueryRowContext(ctx, query, id))
}

// ListPublished returns published templates, newest first.
func (r *SQLiteTemplateRepo) ListPublished(ctx context.Context) ([]*domain.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates
		WHERE published = 1 ORDER BY created_at DESC, rowid DESC`
	return r.list(ctx, query)
}

func (r *SQLiteTemplateRepo) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates
		WHERE owner_id = ? ORDER BY created_at DESC, rowid DESC`
	return r.list(ctx, query, ownerID)
}

func (r *SQLiteTemplateRepo) Update(ctx context.Context, t *domain.Template) error {
	data, err := importer.MarshalTemplateData(t.Data)
	if err != nil {
		return err
	}
	query := `UPDATE templates SET title = ?, description = ?, data = ?, published = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		t.Title,
		t.Description,
		data,
		boolToInt(t.Published),
		formatTime(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating template: %w", err)
	}
	return requireAffected(res, "template")
}

func (r *SQLiteTemplateRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting template: %w", err)
	}
	return requireAffected(res, "template")
}

func (r *SQLiteTemplateRepo) list(ctx context.Context, query string, args ...any) ([]*domain.Template, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	defer rows.Close()

	var out []*domain.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating templates: %w", err)
	}
	return out, nil
}

func scanTemplate(s scanner) (*domain.Template, error) {
	var t domain.Template
	var data, createdAt, updatedAt string
	var published int

	err := s.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &data, &published, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("template: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scanning template: %w", err)
	}

	t.Published = intToBool(published)
	if t.Data, err = importer.UnmarshalTemplateData(data); err != nil {
		return nil, fmt.Errorf("template %s: %w", t.ID, err)
	}
	if t.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &t, nil
}
