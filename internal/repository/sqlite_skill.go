package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/pdptrack/internal/db"
	"github.com/alexanderramin/pdptrack/internal/domain"
)

const skillColumns = `id, plan_id, name, description, criteria, priority, eta, status,
		sort_order, template_skill_key, manual_override, created_at, updated_at`

// SQLiteSkillRepo implements SkillRepo using a SQLite database.
type SQLiteSkillRepo struct {
	db db.DBTX
}

// NewSQLiteSkillRepo creates a new SQLiteSkillRepo.
func NewSQLiteSkillRepo(conn db.DBTX) *SQLiteSkillRepo {
	return &SQLiteSkillRepo{db: conn}
}

func (r *SQLiteSkillRepo) Create(ctx context.Context, s *domain.Skill) error {
	query := `INSERT INTO skills (` + skillColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.PlanID,
		s.Name,
		s.Description,
		s.Criteria,
		string(s.Priority),
		nullableString(s.ETA),
		string(s.Status),
		s.SortOrder,
		nullableString(s.TemplateSkillKey),
		boolToInt(s.ManualOverride),
		formatTime(s.CreatedAt),
		formatTime(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting skill: %w", err)
	}
	return nil
}

func (r *SQLiteSkillRepo) GetByID(ctx context.Context, id string) (*domain.Skill, error) {
	query := `SELECT ` + skillColumns + ` FROM skills WHERE id = ?`
	return scanSkill(r.db.QueryRowContext(ctx, query, id))
}

// ListByPlan returns the plan's skills in display order.
func (r *SQLiteSkillRepo) ListByPlan(ctx context.Context, planID string) ([]*domain.Skill, error) {
	query := `SELECT ` + skillColumns + ` FROM skills
		WHERE plan_id = ? ORDER BY sort_order, created_at, rowid`
	rows, err := r.db.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("listing skills: %w", err)
	}
	defer rows.Close()

	var skills []*domain.Skill
	for rows.Next() {
		s, err := scanSkill(rows)
		if err != nil {
			return nil, err
		}
		skills = append(skills, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating skills: %w", err)
	}
	return skills, nil
}

// MaxSortOrder returns the highest sort order in the plan, or -1 when empty.
func (r *SQLiteSkillRepo) MaxSortOrder(ctx context.Context, planID string) (int, error) {
	var max int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sort_order), -1) FROM skills WHERE plan_id = ?`, planID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("querying max sort order: %w", err)
	}
	return max, nil
}

func (r *SQLiteSkillRepo) Update(ctx context.Context, s *domain.Skill) error {
	query := `UPDATE skills SET name = ?, description = ?, criteria = ?, priority = ?, eta = ?,
		status = ?, sort_order = ?, template_skill_key = ?, manual_override = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		s.Name,
		s.Description,
		s.Criteria,
		string(s.Priority),
		nullableString(s.ETA),
		string(s.Status),
		s.SortOrder,
		nullableString(s.TemplateSkillKey),
		boolToInt(s.ManualOverride),
		formatTime(s.UpdatedAt),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("updating skill: %w", err)
	}
	return requireAffected(res, "skill")
}

func (r *SQLiteSkillRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM skills WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting skill: %w", err)
	}
	return requireAffected(res, "skill")
}

// DeleteUnmanagedByKeys removes every skill, in any plan, that carries one of
// the keys and is not manually overridden.
func (r *SQLiteSkillRepo) DeleteUnmanagedByKeys(ctx context.Context, keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	marks, args := placeholders(keys)
	query := `DELETE FROM skills WHERE manual_override = 0 AND template_skill_key IN (` + marks + `)`
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting template skills: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// CountByOwnerAndStatus counts skills with the status across plans owned by ownerID.
func (r *SQLiteSkillRepo) CountByOwnerAndStatus(ctx context.Context, ownerID string, status domain.Status) (int, error) {
	query := `SELECT COUNT(*) FROM skills s
		JOIN plans p ON p.id = s.plan_id
		WHERE p.owner_id = ? AND s.status = ?`
	var n int
	if err := r.db.QueryRowContext(ctx, query, ownerID, string(status)).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting skills: %w", err)
	}
	return n, nil
}

func scanSkill(s scanner) (*domain.Skill, error) {
	var sk domain.Skill
	var priority, status, createdAt, updatedAt string
	var eta, key sql.NullString
	var override int

	err := s.Scan(
		&sk.ID, &sk.PlanID, &sk.Name, &sk.Description, &sk.Criteria,
		&priority, &eta, &status, &sk.SortOrder, &key, &override,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("skill: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scanning skill: %w", err)
	}

	sk.Priority = domain.Priority(priority)
	sk.Status = domain.Status(status)
	sk.ETA = stringPtr(eta)
	sk.TemplateSkillKey = stringPtr(key)
	sk.ManualOverride = intToBool(override)

	if sk.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if sk.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &sk, nil
}
