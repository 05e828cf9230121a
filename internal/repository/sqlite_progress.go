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

const entryColumns = `e.id, e.skill_id, e.criterion_index, e.author_id, e.note, e.approved,
		e.curator_comment, e.approved_at, e.created_at, e.updated_at`

// SQLiteProgressRepo implements ProgressRepo using a SQLite database.
type SQLiteProgressRepo struct {
	db db.DBTX
}

// NewSQLiteProgressRepo creates a new SQLiteProgressRepo.
func NewSQLiteProgressRepo(conn db.DBTX) *SQLiteProgressRepo {
	return &SQLiteProgressRepo{db: conn}
}

func (r *SQLiteProgressRepo) Create(ctx context.Context, e *domain.ProgressEntry) error {
	query := `INSERT INTO progress_entries (id, skill_id, criterion_index, author_id, note, approved,
		curator_comment, approved_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.SkillID,
		e.CriterionIndex,
		e.AuthorID,
		e.Note,
		boolToInt(e.Approved),
		nullableString(e.CuratorComment),
		nullableTimeToString(e.ApprovedAt),
		formatTime(e.CreatedAt),
		formatTime(e.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting progress entry: %w", err)
	}
	return nil
}

func (r *SQLiteProgressRepo) GetByID(ctx context.Context, id string) (*domain.ProgressEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM progress_entries e WHERE e.id = ?`
	return scanEntry(r.db.QueryRowContext(ctx, query, id))
}

// ListByCriterion returns the criterion's log in creation order.
func (r *SQLiteProgressRepo) ListByCriterion(ctx context.Context, skillID string, index int) ([]*domain.ProgressEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM progress_entries e
		WHERE e.skill_id = ? AND e.criterion_index = ?
		ORDER BY e.created_at, e.rowid`
	return r.list(ctx, query, skillID, index)
}

func (r *SQLiteProgressRepo) ListApprovedByCriterion(ctx context.Context, skillID string, index int) ([]*domain.ProgressEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM progress_entries e
		WHERE e.skill_id = ? AND e.criterion_index = ? AND e.approved = 1
		ORDER BY e.created_at, e.rowid`
	return r.list(ctx, query, skillID, index)
}

// ListApprovedByPlan returns every approved entry in the plan, grouped by
// skill and criterion, oldest first within each criterion.
func (r *SQLiteProgressRepo) ListApprovedByPlan(ctx context.Context, planID string) ([]*domain.ProgressEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM progress_entries e
		JOIN skills s ON s.id = e.skill_id
		WHERE s.plan_id = ? AND e.approved = 1
		ORDER BY e.skill_id, e.criterion_index, e.created_at, e.rowid`
	return r.list(ctx, query, planID)
}

// ListApprovedBetween returns entries of the plan approved in [from, to).
func (r *SQLiteProgressRepo) ListApprovedBetween(ctx context.Context, planID string, from, to time.Time) ([]*domain.ProgressEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM progress_entries e
		JOIN skills s ON s.id = e.skill_id
		WHERE s.plan_id = ? AND e.approved = 1
		  AND e.approved_at >= ? AND e.approved_at < ?
		ORDER BY e.approved_at, e.rowid`
	return r.list(ctx, query, planID, formatTime(from), formatTime(to))
}

// ListPendingForCurator returns unapproved entries across every plan the user
// curates but does not own, oldest first.
func (r *SQLiteProgressRepo) ListPendingForCurator(ctx context.Context, curatorID string, limit int) ([]PendingApproval, error) {
	query := `SELECT ` + entryColumns + `,
		p.id, p.title, s.name, s.criteria, p.owner_id, COALESCE(u.name, ''), COALESCE(u.email, '')
		FROM progress_entries e
		JOIN skills s ON s.id = e.skill_id
		JOIN plans p ON p.id = s.plan_id
		JOIN plan_curators c ON c.plan_id = p.id AND c.user_id = ?
		LEFT JOIN users u ON u.id = p.owner_id
		WHERE e.approved = 0 AND p.owner_id <> c.user_id
		ORDER BY e.created_at, e.rowid
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, curatorID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing pending approvals: %w", err)
	}
	defer rows.Close()

	var out []PendingApproval
	for rows.Next() {
		var pa PendingApproval
		fields, finish := entryScanTargets(&pa.Entry)
		fields = append(fields, &pa.PlanID, &pa.PlanTitle, &pa.SkillName, &pa.Criteria,
			&pa.OwnerID, &pa.OwnerName, &pa.OwnerEmail)
		if err := rows.Scan(fields...); err != nil {
			return nil, fmt.Errorf("scanning pending approval: %w", err)
		}
		if err := finish(); err != nil {
			return nil, err
		}
		out = append(out, pa)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pending approvals: %w", err)
	}
	return out, nil
}

func (r *SQLiteProgressRepo) CountPendingByPlan(ctx context.Context, planID string) (int, error) {
	query := `SELECT COUNT(*) FROM progress_entries e
		JOIN skills s ON s.id = e.skill_id
		WHERE s.plan_id = ? AND e.approved = 0`
	var n int
	if err := r.db.QueryRowContext(ctx, query, planID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting pending entries: %w", err)
	}
	return n, nil
}

// DistinctApprovedByPlan returns each (skill, criterion) pair of the plan with
// at least one approved entry.
func (r *SQLiteProgressRepo) DistinctApprovedByPlan(ctx context.Context, planID string) ([]CriterionRef, error) {
	query := `SELECT DISTINCT e.skill_id, e.criterion_index FROM progress_entries e
		JOIN skills s ON s.id = e.skill_id
		WHERE s.plan_id = ? AND e.approved = 1
		ORDER BY e.skill_id, e.criterion_index`
	rows, err := r.db.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("listing approved criteria: %w", err)
	}
	defer rows.Close()

	var refs []CriterionRef
	for rows.Next() {
		var ref CriterionRef
		if err := rows.Scan(&ref.SkillID, &ref.Index); err != nil {
			return nil, fmt.Errorf("scanning approved criterion: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating approved criteria: %w", err)
	}
	return refs, nil
}

func (r *SQLiteProgressRepo) Update(ctx context.Context, e *domain.ProgressEntry) error {
	query := `UPDATE progress_entries SET note = ?, approved = ?, curator_comment = ?,
		approved_at = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		e.Note,
		boolToInt(e.Approved),
		nullableString(e.CuratorComment),
		nullableTimeToString(e.ApprovedAt),
		formatTime(e.UpdatedAt),
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating progress entry: %w", err)
	}
	return requireAffected(res, "progress entry")
}

func (r *SQLiteProgressRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM progress_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting progress entry: %w", err)
	}
	return requireAffected(res, "progress entry")
}

func (r *SQLiteProgressRepo) list(ctx context.Context, query string, args ...any) ([]*domain.ProgressEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing progress entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.ProgressEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating progress entries: %w", err)
	}
	return entries, nil
}

// entryScanTargets returns scan destinations for entryColumns and a func that
// converts the raw columns once Scan has run.
func entryScanTargets(e *domain.ProgressEntry) ([]any, func() error) {
	var approved int
	var comment, approvedAt sql.NullString
	var createdAt, updatedAt string

	fields := []any{
		&e.ID, &e.SkillID, &e.CriterionIndex, &e.AuthorID, &e.Note, &approved,
		&comment, &approvedAt, &createdAt, &updatedAt,
	}
	finish := func() error {
		e.Approved = intToBool(approved)
		e.CuratorComment = stringPtr(comment)
		e.ApprovedAt = parseNullableTime(approvedAt)
		var err error
		if e.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return err
		}
		if e.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
			return err
		}
		return nil
	}
	return fields, finish
}

func scanEntry(s scanner) (*domain.ProgressEntry, error) {
	var e domain.ProgressEntry
	fields, finish := entryScanTargets(&e)
	if err := s.Scan(fields...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("progress entry: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scanning progress entry: %w", err)
	}
	if err := finish(); err != nil {
		return nil, err
	}
	return &e, nil
}
