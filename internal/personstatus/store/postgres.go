// Package store persists the person status aggregate in PostgreSQL. The store
// is pure I/O; merge semantics (lookup, seed-on-create, conflict fallback)
// belong to the service. All statements join a caller transaction when one is
// present in context, so a consumer batch commits atomically.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"syfooversiktsrv/internal/personstatus/models"
	"syfooversiktsrv/pkg/platform/sentinel"
	"syfooversiktsrv/pkg/platform/tx"
)

const statusColumns = `
	uuid, ident, name, birthdate,
	assigned_caseworker, assigned_org_unit, org_unit_assigned_at,
	active_follow_up_task, follow_up_task_updated_at,
	dialog_meeting_status, dialog_meeting_generated_at,
	capacity_assessment_status, capacity_assessment_updated_at,
	cooperation_status, cooperation_updated_at,
	late_follow_up_status, late_follow_up_updated_at,
	activity_requirement_status, activity_requirement_updated_at,
	case_start, case_end, case_sick_days, case_generated_at,
	created_at, last_modified_at`

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore is the PostgreSQL-backed aggregate store.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed person status store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) q(ctx context.Context) queryer {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

// GetByIdent loads one aggregate, employer sub-rows included.
// Returns sentinel.ErrNotFound when no row exists.
func (s *PostgresStore) GetByIdent(ctx context.Context, ident string) (*models.PersonStatus, error) {
	q := s.q(ctx)
	row := q.QueryRowContext(ctx, `SELECT `+statusColumns+` FROM person_status WHERE ident = $1`, ident)
	p, err := scanPersonStatus(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get person status: %w", err)
	}
	if p.FollowUpCase != nil {
		employers, err := s.listEmployers(ctx, p.UUID)
		if err != nil {
			return nil, err
		}
		p.FollowUpCase.Employers = employers
	}
	return p, nil
}

// Create inserts a new aggregate row seeded with only the given field group;
// every other domain's columns stay null. Returns sentinel.ErrConflict when a
// concurrent writer created the ident first.
func (s *PostgresStore) Create(ctx context.Context, ident string, values models.FieldValues, now time.Time) (*models.PersonStatus, error) {
	p := &models.PersonStatus{
		UUID:           uuid.New(),
		Ident:          ident,
		CreatedAt:      now,
		LastModifiedAt: now,
	}
	values.Apply(p)

	// ON CONFLICT DO NOTHING keeps a lost insert race from raising a
	// unique violation, which would abort the surrounding transaction.
	q := s.q(ctx)
	res, err := q.ExecContext(ctx, `
		INSERT INTO person_status (`+statusColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
		ON CONFLICT (ident) DO NOTHING
	`, insertArgs(p)...)
	if err != nil {
		return nil, fmt.Errorf("insert person status: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("insert person status rows affected: %w", err)
	}
	if inserted == 0 {
		return nil, sentinel.ErrConflict
	}

	if p.FollowUpCase != nil {
		if err := s.replaceEmployers(ctx, p.UUID, p.FollowUpCase.Employers, now); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// UpdateGroup issues the column-scoped UPDATE for one field group, touching
// only that group's columns plus last_modified_at (which never regresses).
// Returns the number of rows updated; 0 means the ident has no row.
func (s *PostgresStore) UpdateGroup(ctx context.Context, ident string, values models.FieldValues, now time.Time) (int64, error) {
	q := s.q(ctx)

	exec := func(query string, args ...any) (int64, error) {
		res, err := q.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("update %s: %w", values.Group(), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("update %s rows affected: %w", values.Group(), err)
		}
		return n, nil
	}

	switch v := values.(type) {
	case models.CaseworkerValues:
		return exec(`
			UPDATE person_status
			SET assigned_caseworker = $2, last_modified_at = GREATEST(last_modified_at, $3)
			WHERE ident = $1`,
			ident, v.AssignedCaseworker, now)
	case models.OrgUnitValues:
		return exec(`
			UPDATE person_status
			SET assigned_org_unit = $2, org_unit_assigned_at = $3,
			    last_modified_at = GREATEST(last_modified_at, $4)
			WHERE ident = $1`,
			ident, v.AssignedOrgUnit, v.AssignedAt, now)
	case models.PersonDetailsValues:
		return exec(`
			UPDATE person_status
			SET name = $2, birthdate = $3, last_modified_at = GREATEST(last_modified_at, $4)
			WHERE ident = $1`,
			ident, v.Name, v.Birthdate, now)
	case models.FollowUpTaskValues:
		return exec(`
			UPDATE person_status
			SET active_follow_up_task = $2, follow_up_task_updated_at = $3,
			    last_modified_at = GREATEST(last_modified_at, $4)
			WHERE ident = $1`,
			ident, v.Active, v.UpdatedAt, now)
	case models.DialogMeetingValues:
		return exec(`
			UPDATE person_status
			SET dialog_meeting_status = $2, dialog_meeting_generated_at = $3,
			    last_modified_at = GREATEST(last_modified_at, $4)
			WHERE ident = $1`,
			ident, string(v.Status), v.GeneratedAt, now)
	case models.CapacityAssessmentValues:
		return exec(`
			UPDATE person_status
			SET capacity_assessment_status = $2, capacity_assessment_updated_at = $3,
			    last_modified_at = GREATEST(last_modified_at, $4)
			WHERE ident = $1`,
			ident, string(v.Status), v.UpdatedAt, now)
	case models.CooperationValues:
		return exec(`
			UPDATE person_status
			SET cooperation_status = $2, cooperation_updated_at = $3,
			    last_modified_at = GREATEST(last_modified_at, $4)
			WHERE ident = $1`,
			ident, string(v.Status), v.UpdatedAt, now)
	case models.LateFollowUpValues:
		return exec(`
			UPDATE person_status
			SET late_follow_up_status = $2, late_follow_up_updated_at = $3,
			    last_modified_at = GREATEST(last_modified_at, $4)
			WHERE ident = $1`,
			ident, string(v.Status), v.UpdatedAt, now)
	case models.ActivityRequirementValues:
		return exec(`
			UPDATE person_status
			SET activity_requirement_status = $2, activity_requirement_updated_at = $3,
			    last_modified_at = GREATEST(last_modified_at, $4)
			WHERE ident = $1`,
			ident, string(v.Status), v.UpdatedAt, now)
	case models.FollowUpCaseValues:
		return s.updateFollowUpCase(ctx, ident, v.Case, now)
	default:
		return 0, fmt.Errorf("unknown field group %q", values.Group())
	}
}

func (s *PostgresStore) updateFollowUpCase(ctx context.Context, ident string, c models.FollowUpCase, now time.Time) (int64, error) {
	q := s.q(ctx)
	var personUUID uuid.UUID
	err := q.QueryRowContext(ctx, `
		UPDATE person_status
		SET case_start = $2, case_end = $3, case_sick_days = $4, case_generated_at = $5,
		    last_modified_at = GREATEST(last_modified_at, $6)
		WHERE ident = $1
		RETURNING uuid`,
		ident, c.Start, c.End, c.SickDays, c.GeneratedAt, now,
	).Scan(&personUUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("update follow-up case: %w", err)
	}
	if err := s.replaceEmployers(ctx, personUUID, c.Employers, now); err != nil {
		return 0, err
	}
	return 1, nil
}

// ListByOrgUnit returns every aggregate attached to one organizational unit.
// Employer sub-rows are not loaded; list callers only need the case period.
func (s *PostgresStore) ListByOrgUnit(ctx context.Context, orgUnit string) ([]*models.PersonStatus, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+statusColumns+` FROM person_status WHERE assigned_org_unit = $1 ORDER BY ident`, orgUnit)
	if err != nil {
		return nil, fmt.Errorf("list by org unit: %w", err)
	}
	defer rows.Close()
	return collectStatuses(rows)
}

// DistinctOrgUnits enumerates every unit that currently has tracked persons.
func (s *PostgresStore) DistinctOrgUnits(ctx context.Context) ([]string, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT DISTINCT assigned_org_unit FROM person_status WHERE assigned_org_unit IS NOT NULL ORDER BY assigned_org_unit`)
	if err != nil {
		return nil, fmt.Errorf("distinct org units: %w", err)
	}
	defer rows.Close()

	var units []string
	for rows.Next() {
		var unit string
		if err := rows.Scan(&unit); err != nil {
			return nil, fmt.Errorf("scan org unit: %w", err)
		}
		units = append(units, unit)
	}
	return units, rows.Err()
}

// ListStaleAssigned finds reaper candidates: caseworker assigned, follow-up
// case ended before caseEndBefore, and untouched since modifiedBefore.
func (s *PostgresStore) ListStaleAssigned(ctx context.Context, caseEndBefore, modifiedBefore time.Time, limit int) ([]*models.PersonStatus, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT `+statusColumns+`
		FROM person_status
		WHERE assigned_caseworker IS NOT NULL
		  AND case_end IS NOT NULL AND case_end < $1
		  AND last_modified_at <= $2
		ORDER BY last_modified_at
		LIMIT $3`,
		caseEndBefore, modifiedBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale assigned: %w", err)
	}
	defer rows.Close()
	return collectStatuses(rows)
}

// ListEmployersMissingName returns employer sub-rows without a resolved
// display name, oldest first, for the enrichment backfill.
func (s *PostgresStore) ListEmployersMissingName(ctx context.Context, limit int) ([]models.Employer, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT id, org_number, org_name, created_at
		FROM person_status_employer
		WHERE org_name IS NULL
		ORDER BY created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list employers missing name: %w", err)
	}
	defer rows.Close()

	var employers []models.Employer
	for rows.Next() {
		var e models.Employer
		var name sql.NullString
		if err := rows.Scan(&e.ID, &e.OrgNumber, &name, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan employer: %w", err)
		}
		if name.Valid {
			e.OrgName = &name.String
		}
		employers = append(employers, e)
	}
	return employers, rows.Err()
}

// SetEmployerName writes a resolved display name back to one employer sub-row.
func (s *PostgresStore) SetEmployerName(ctx context.Context, id int64, name string) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`UPDATE person_status_employer SET org_name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("set employer name: %w", err)
	}
	return nil
}

// UpdateIdent rewrites the aggregate primary key in place, preserving uuid
// and every domain column. Returns sentinel.ErrConflict when a row already
// exists under the new ident. The target-exists guard is part of the UPDATE
// itself so the collision never raises a unique violation, which would abort
// the surrounding transaction.
func (s *PostgresStore) UpdateIdent(ctx context.Context, fromIdent, toIdent string, now time.Time) (int64, error) {
	q := s.q(ctx)
	res, err := q.ExecContext(ctx, `
		UPDATE person_status
		SET ident = $2, last_modified_at = GREATEST(last_modified_at, $3)
		WHERE ident = $1
		  AND NOT EXISTS (SELECT 1 FROM person_status WHERE ident = $2)`,
		fromIdent, toIdent, now)
	if err != nil {
		return 0, fmt.Errorf("update ident: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update ident rows affected: %w", err)
	}
	if n == 0 {
		var targetExists bool
		if err := q.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM person_status WHERE ident = $1)`, toIdent,
		).Scan(&targetExists); err != nil {
			return 0, fmt.Errorf("check ident collision: %w", err)
		}
		if targetExists {
			return 0, sentinel.ErrConflict
		}
	}
	return n, nil
}

// DeleteByIdent removes one aggregate row; employer sub-rows cascade.
// Only identity reconciliation deletes rows.
func (s *PostgresStore) DeleteByIdent(ctx context.Context, ident string) (int64, error) {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM person_status WHERE ident = $1`, ident)
	if err != nil {
		return 0, fmt.Errorf("delete person status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete rows affected: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) listEmployers(ctx context.Context, personUUID uuid.UUID) ([]models.Employer, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT id, org_number, org_name, created_at
		FROM person_status_employer
		WHERE person_status_uuid = $1
		ORDER BY id`, personUUID)
	if err != nil {
		return nil, fmt.Errorf("list employers: %w", err)
	}
	defer rows.Close()

	var employers []models.Employer
	for rows.Next() {
		var e models.Employer
		var name sql.NullString
		if err := rows.Scan(&e.ID, &e.OrgNumber, &name, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan employer: %w", err)
		}
		if name.Valid {
			e.OrgName = &name.String
		}
		employers = append(employers, e)
	}
	return employers, rows.Err()
}

func (s *PostgresStore) replaceEmployers(ctx context.Context, personUUID uuid.UUID, employers []models.Employer, now time.Time) error {
	q := s.q(ctx)
	if _, err := q.ExecContext(ctx,
		`DELETE FROM person_status_employer WHERE person_status_uuid = $1`, personUUID); err != nil {
		return fmt.Errorf("clear employers: %w", err)
	}
	for _, e := range employers {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO person_status_employer (person_status_uuid, org_number, org_name, created_at)
			VALUES ($1, $2, $3, $4)`,
			personUUID, e.OrgNumber, e.OrgName, now); err != nil {
			return fmt.Errorf("insert employer %s: %w", e.OrgNumber, err)
		}
	}
	return nil
}
