package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/pdptrack/internal/db"
	"github.com/alexanderramin/pdptrack/internal/domain"
)

const planColumns = `p.id, p.owner_id, p.title, p.description, p.priority, p.eta, p.status,
		p.template_id, p.created_at, p.updated_at`

// SQLitePlanRepo implements PlanRepo using a SQLite database.
type SQLitePlanRepo struct {
	db db.DBTX
}

// NewSQLitePlanRepo creates a new SQLitePlanRepo.
func NewSQLitePlanRepo(conn db.DBTX) *SQLitePlanRepo {
	return &SQLitePlanRepo{db: conn}
}

func (r *SQLitePlanRepo) Create(ctx context.Context, p *domain.Plan) error {
	query := `INSERT INTO plans (id, owner_id, title, description, priority, eta, status,
		template_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.OwnerID,
		p.Title,
		p.Description,
		string(p.Priority),
		nullableString(p.ETA),
		string(p.Status),
		nullableString(p.TemplateID),
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting plan: %w", err)
	}
	return nil
}

// GetByID returns the plan with its curator set populated.
func (r *SQLitePlanRepo) GetByID(ctx context.Context, id string) (*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans p WHERE p.id = ?`
	p, err := scanPlan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadCurators(ctx, []*domain.Plan{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *SQLitePlanRepo) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans p
		WHERE p.owner_id = ? ORDER BY p.created_at, p.rowid`
	return r.list(ctx, query, ownerID)
}

func (r *SQLitePlanRepo) ListByCurator(ctx context.Context, userID string) ([]*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans p
		JOIN plan_curators c ON c.plan_id = p.id
		WHERE c.user_id = ? AND p.owner_id <> c.user_id
		ORDER BY p.created_at, p.rowid`
	return r.list(ctx, query, userID)
}

// ListVisible returns plans the user owns or curates, most recently updated first.
func (r *SQLitePlanRepo) ListVisible(ctx context.Context, userID string, limit int) ([]*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans p
		WHERE p.owner_id = ?
		   OR EXISTS (SELECT 1 FROM plan_curators c WHERE c.plan_id = p.id AND c.user_id = ?)
		ORDER BY p.updated_at DESC, p.rowid DESC
		LIMIT ?`
	return r.list(ctx, query, userID, userID, limit)
}

// ListSyncCandidates returns plans linked to the template, or holding at least
// one skill whose template key is among keys.
func (r *SQLitePlanRepo) ListSyncCandidates(ctx context.Context, templateID string, keys []string) ([]*domain.Plan, error) {
	if len(keys) == 0 {
		query := `SELECT ` + planColumns + ` FROM plans p
			WHERE p.template_id = ? ORDER BY p.created_at, p.rowid`
		return r.list(ctx, query, templateID)
	}
	marks, keyArgs := placeholders(keys)
	query := `SELECT ` + planColumns + ` FROM plans p
		WHERE p.template_id = ?
		   OR EXISTS (SELECT 1 FROM skills s
		              WHERE s.plan_id = p.id AND s.template_skill_key IN (` + marks + `))
		ORDER BY p.created_at, p.rowid`
	args := append([]any{templateID}, keyArgs...)
	return r.list(ctx, query, args...)
}

func (r *SQLitePlanRepo) Update(ctx context.Context, p *domain.Plan) error {
	query := `UPDATE plans SET title = ?, description = ?, priority = ?, eta = ?, status = ?,
		template_id = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		p.Title,
		p.Description,
		string(p.Priority),
		nullableString(p.ETA),
		string(p.Status),
		nullableString(p.TemplateID),
		formatTime(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating plan: %w", err)
	}
	return requireAffected(res, "plan")
}

// Touch bumps updated_at so the plan resurfaces in recency-ordered views.
func (r *SQLitePlanRepo) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE plans SET updated_at = ? WHERE id = ?`, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("touching plan: %w", err)
	}
	return nil
}

// UnlinkTemplate clears the template reference on every plan linked to it.
func (r *SQLitePlanRepo) UnlinkTemplate(ctx context.Context, templateID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE plans SET template_id = NULL WHERE template_id = ?`, templateID)
	if err != nil {
		return 0, fmt.Errorf("unlinking plans from template: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *SQLitePlanRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting plan: %w", err)
	}
	return requireAffected(res, "plan")
}

// AddCurator is a no-op when the user already curates the plan.
func (r *SQLitePlanRepo) AddCurator(ctx context.Context, planID, userID string) error {
	query := `INSERT OR IGNORE INTO plan_curators (plan_id, user_id, created_at) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, planID, userID, formatTime(time.Now())); err != nil {
		return fmt.Errorf("adding curator: %w", err)
	}
	return nil
}

func (r *SQLitePlanRepo) RemoveCurator(ctx context.Context, planID, userID string) error {
	query := `DELETE FROM plan_curators WHERE plan_id = ? AND user_id = ?`
	if _, err := r.db.ExecContext(ctx, query, planID, userID); err != nil {
		return fmt.Errorf("removing curator: %w", err)
	}
	return nil
}

func (r *SQLitePlanRepo) ListCurators(ctx context.Context, planID string) ([]*domain.User, error) {
	query := `SELECT u.id, u.name, u.email, u.created_at FROM users u
		JOIN plan_curators c ON c.user_id = u.id
		WHERE c.plan_id = ?
		ORDER BY c.created_at, u.name`
	return queryUsers(ctx, r.db, query, planID)
}

func (r *SQLitePlanRepo) list(ctx context.Context, query string, args ...any) ([]*domain.Plan, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}

	var plans []*domain.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating plans: %w", err)
	}
	// Release the connection before the curator lookups.
	rows.Close()

	if err := r.loadCurators(ctx, plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *SQLitePlanRepo) loadCurators(ctx context.Context, plans []*domain.Plan) error {
	for _, p := range plans {
		ids, err := r.curatorIDs(ctx, p.ID)
		if err != nil {
			return err
		}
		p.CuratorIDs = ids
	}
	return nil
}

func (r *SQLitePlanRepo) curatorIDs(ctx context.Context, planID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM plan_curators WHERE plan_id = ? ORDER BY created_at, user_id`, planID)
	if err != nil {
		return nil, fmt.Errorf("listing curators: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning curator: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanPlan(s scanner) (*domain.Plan, error) {
	var p domain.Plan
	var priority, status, createdAt, updatedAt string
	var eta, templateID sql.NullString

	err := s.Scan(
		&p.ID, &p.OwnerID, &p.Title, &p.Description,
		&priority, &eta, &status, &templateID,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("plan: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scanning plan: %w", err)
	}

	p.Priority = domain.Priority(priority)
	p.Status = domain.Status(status)
	p.ETA = stringPtr(eta)
	p.TemplateID = stringPtr(templateID)

	if p.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &p, nil
}

func requireAffected(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", entity, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", entity, domain.ErrNotFound)
	}
	return nil
}
