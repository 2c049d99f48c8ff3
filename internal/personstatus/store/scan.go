package store

import (
	"database/sql"
	"time"

	"syfooversiktsrv/internal/personstatus/models"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPersonStatus(row rowScanner) (*models.PersonStatus, error) {
	var p models.PersonStatus
	var (
		name                sql.NullString
		birthdate           sql.NullTime
		caseworker          sql.NullString
		orgUnit             sql.NullString
		orgUnitAssignedAt   sql.NullTime
		activeTask          sql.NullBool
		taskUpdatedAt       sql.NullTime
		dialogStatus        sql.NullString
		dialogGeneratedAt   sql.NullTime
		capacityStatus      sql.NullString
		capacityUpdatedAt   sql.NullTime
		cooperationStatus   sql.NullString
		cooperationUpdated  sql.NullTime
		lateFollowUpStatus  sql.NullString
		lateFollowUpUpdated sql.NullTime
		activityStatus      sql.NullString
		activityUpdatedAt   sql.NullTime
		caseStart           sql.NullTime
		caseEnd             sql.NullTime
		caseSickDays        sql.NullInt64
		caseGeneratedAt     sql.NullTime
	)

	err := row.Scan(
		&p.UUID, &p.Ident, &name, &birthdate,
		&caseworker, &orgUnit, &orgUnitAssignedAt,
		&activeTask, &taskUpdatedAt,
		&dialogStatus, &dialogGeneratedAt,
		&capacityStatus, &capacityUpdatedAt,
		&cooperationStatus, &cooperationUpdated,
		&lateFollowUpStatus, &lateFollowUpUpdated,
		&activityStatus, &activityUpdatedAt,
		&caseStart, &caseEnd, &caseSickDays, &caseGeneratedAt,
		&p.CreatedAt, &p.LastModifiedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Name = nullString(name)
	p.Birthdate = nullTime(birthdate)
	p.AssignedCaseworker = nullString(caseworker)
	p.AssignedOrgUnit = nullString(orgUnit)
	p.OrgUnitAssignedAt = nullTime(orgUnitAssignedAt)
	if activeTask.Valid {
		p.ActiveFollowUpTask = &activeTask.Bool
	}
	p.FollowUpTaskUpdatedAt = nullTime(taskUpdatedAt)
	if dialogStatus.Valid {
		s := models.DialogMeetingStatus(dialogStatus.String)
		p.DialogMeetingStatus = &s
	}
	p.DialogMeetingGeneratedAt = nullTime(dialogGeneratedAt)
	if capacityStatus.Valid {
		s := models.CapacityAssessmentStatus(capacityStatus.String)
		p.CapacityAssessmentStatus = &s
	}
	p.CapacityAssessmentUpdatedAt = nullTime(capacityUpdatedAt)
	if cooperationStatus.Valid {
		s := models.CooperationStatus(cooperationStatus.String)
		p.CooperationStatus = &s
	}
	p.CooperationUpdatedAt = nullTime(cooperationUpdated)
	if lateFollowUpStatus.Valid {
		s := models.LateFollowUpStatus(lateFollowUpStatus.String)
		p.LateFollowUpStatus = &s
	}
	p.LateFollowUpUpdatedAt = nullTime(lateFollowUpUpdated)
	if activityStatus.Valid {
		s := models.ActivityRequirementStatus(activityStatus.String)
		p.ActivityRequirementStatus = &s
	}
	p.ActivityRequirementUpdatedAt = nullTime(activityUpdatedAt)

	if caseStart.Valid && caseEnd.Valid {
		c := models.FollowUpCase{Start: caseStart.Time, End: caseEnd.Time}
		if caseSickDays.Valid {
			n := int(caseSickDays.Int64)
			c.SickDays = &n
		}
		if caseGeneratedAt.Valid {
			c.GeneratedAt = caseGeneratedAt.Time
		}
		p.FollowUpCase = &c
	}
	return &p, nil
}

func collectStatuses(rows *sql.Rows) ([]*models.PersonStatus, error) {
	var statuses []*models.PersonStatus
	for rows.Next() {
		p, err := scanPersonStatus(rows)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, p)
	}
	return statuses, rows.Err()
}

// insertArgs flattens an aggregate into positional arguments matching
// statusColumns order.
func insertArgs(p *models.PersonStatus) []any {
	var (
		dialogStatus, capacityStatus, cooperationStatus, lateStatus, activityStatus *string
		caseStart, caseEnd, caseGeneratedAt                                         *time.Time
		caseSickDays                                                               *int
	)
	if p.DialogMeetingStatus != nil {
		s := string(*p.DialogMeetingStatus)
		dialogStatus = &s
	}
	if p.CapacityAssessmentStatus != nil {
		s := string(*p.CapacityAssessmentStatus)
		capacityStatus = &s
	}
	if p.CooperationStatus != nil {
		s := string(*p.CooperationStatus)
		cooperationStatus = &s
	}
	if p.LateFollowUpStatus != nil {
		s := string(*p.LateFollowUpStatus)
		lateStatus = &s
	}
	if p.ActivityRequirementStatus != nil {
		s := string(*p.ActivityRequirementStatus)
		activityStatus = &s
	}
	if p.FollowUpCase != nil {
		start, end, generated := p.FollowUpCase.Start, p.FollowUpCase.End, p.FollowUpCase.GeneratedAt
		caseStart, caseEnd, caseGeneratedAt = &start, &end, &generated
		caseSickDays = p.FollowUpCase.SickDays
	}

	return []any{
		p.UUID, p.Ident, p.Name, p.Birthdate,
		p.AssignedCaseworker, p.AssignedOrgUnit, p.OrgUnitAssignedAt,
		p.ActiveFollowUpTask, p.FollowUpTaskUpdatedAt,
		dialogStatus, p.DialogMeetingGeneratedAt,
		capacityStatus, p.CapacityAssessmentUpdatedAt,
		cooperationStatus, p.CooperationUpdatedAt,
		lateStatus, p.LateFollowUpUpdatedAt,
		activityStatus, p.ActivityRequirementUpdatedAt,
		caseStart, caseEnd, caseSickDays, caseGeneratedAt,
		p.CreatedAt, p.LastModifiedAt,
	}
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	return &v.Time
}
