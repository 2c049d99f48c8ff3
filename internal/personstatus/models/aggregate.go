// Package models defines the person status aggregate: one denormalized row
// per tracked person, with every column owned by exactly one upstream domain.
package models

import (
	"time"

	"github.com/google/uuid"
)

// DialogMeetingStatus mirrors the latest dialog-meeting signal for a person.
type DialogMeetingStatus string

const (
	DialogMeetingResponsePending  DialogMeetingStatus = "RESPONSE_PENDING"
	DialogMeetingResponseReceived DialogMeetingStatus = "RESPONSE_RECEIVED"
	DialogMeetingCompleted        DialogMeetingStatus = "COMPLETED"
)

func (s DialogMeetingStatus) Valid() bool {
	switch s {
	case DialogMeetingResponsePending, DialogMeetingResponseReceived, DialogMeetingCompleted:
		return true
	}
	return false
}

// CapacityAssessmentStatus mirrors the latest medical-capacity assessment signal.
type CapacityAssessmentStatus string

const (
	CapacityAwaitingDocumentation CapacityAssessmentStatus = "AWAITING_DOCUMENTATION"
	CapacityUnderAssessment       CapacityAssessmentStatus = "UNDER_ASSESSMENT"
	CapacityAssessed              CapacityAssessmentStatus = "ASSESSED"
)

func (s CapacityAssessmentStatus) Valid() bool {
	switch s {
	case CapacityAwaitingDocumentation, CapacityUnderAssessment, CapacityAssessed:
		return true
	}
	return false
}

// CooperationStatus mirrors the insufficient-cooperation follow-up signal.
type CooperationStatus string

const (
	CooperationAdvanceWarning CooperationStatus = "ADVANCE_WARNING"
	CooperationStopped        CooperationStatus = "STOPPED"
	CooperationResolved       CooperationStatus = "RESOLVED"
)

func (s CooperationStatus) Valid() bool {
	switch s {
	case CooperationAdvanceWarning, CooperationStopped, CooperationResolved:
		return true
	}
	return false
}

// LateFollowUpStatus mirrors the late-follow-up-candidate signal.
type LateFollowUpStatus string

const (
	LateFollowUpCandidate LateFollowUpStatus = "CANDIDATE"
	LateFollowUpStarted   LateFollowUpStatus = "FOLLOW_UP_STARTED"
	LateFollowUpDismissed LateFollowUpStatus = "DISMISSED"
)

func (s LateFollowUpStatus) Valid() bool {
	switch s {
	case LateFollowUpCandidate, LateFollowUpStarted, LateFollowUpDismissed:
		return true
	}
	return false
}

// ActivityRequirementStatus mirrors the activity-requirement assessment signal.
type ActivityRequirementStatus string

const (
	ActivityRequirementNew      ActivityRequirementStatus = "NEW"
	ActivityRequirementExempted ActivityRequirementStatus = "EXEMPTED"
	ActivityRequirementMet      ActivityRequirementStatus = "MET"
	ActivityRequirementStopped  ActivityRequirementStatus = "STOPPED"
)

func (s ActivityRequirementStatus) Valid() bool {
	switch s {
	case ActivityRequirementNew, ActivityRequirementExempted, ActivityRequirementMet, ActivityRequirementStopped:
		return true
	}
	return false
}

// Employer is one contributing employer within the latest follow-up case.
// OrgName is resolved lazily by the enrichment backfill job.
type Employer struct {
	ID        int64
	OrgNumber string
	OrgName   *string
	CreatedAt time.Time
}

// FollowUpCase is the latest time-bounded sick-leave tracking period for a
// person, owned exclusively by the follow-up-case domain.
type FollowUpCase struct {
	Start       time.Time
	End         time.Time
	SickDays    *int
	GeneratedAt time.Time
	Employers   []Employer
}

// VarighetUker derives the case duration in whole weeks as of today.
// Elapsed days run from Start to min(today, End) inclusive; when the sick-day
// count is known, presumed-healthy days (case length minus sick days) are
// subtracted. Negative intermediates clamp to zero; the second return value
// reports that a clamp happened so callers can log the data-quality anomaly.
func (c FollowUpCase) VarighetUker(today time.Time) (int, bool) {
	end := dateOf(c.End)
	if d := dateOf(today); d.Before(end) {
		end = d
	}
	days := daysInclusive(dateOf(c.Start), end)
	if c.SickDays != nil {
		caseLength := daysInclusive(dateOf(c.Start), dateOf(c.End))
		days -= caseLength - *c.SickDays
	}
	if days < 0 {
		return 0, true
	}
	return days / 7, false
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysInclusive(from, to time.Time) int {
	return int(to.Sub(from).Hours()/24) + 1
}

// PersonStatus is the per-person aggregate. Ident is the external primary key
// and changes only through identity reconciliation; UUID never changes.
type PersonStatus struct {
	UUID      uuid.UUID
	Ident     string
	Name      *string
	Birthdate *time.Time

	AssignedCaseworker *string
	AssignedOrgUnit    *string
	OrgUnitAssignedAt  *time.Time

	ActiveFollowUpTask    *bool
	FollowUpTaskUpdatedAt *time.Time

	DialogMeetingStatus      *DialogMeetingStatus
	DialogMeetingGeneratedAt *time.Time

	CapacityAssessmentStatus    *CapacityAssessmentStatus
	CapacityAssessmentUpdatedAt *time.Time

	CooperationStatus    *CooperationStatus
	CooperationUpdatedAt *time.Time

	LateFollowUpStatus    *LateFollowUpStatus
	LateFollowUpUpdatedAt *time.Time

	ActivityRequirementStatus    *ActivityRequirementStatus
	ActivityRequirementUpdatedAt *time.Time

	FollowUpCase *FollowUpCase

	LastModifiedAt time.Time
	CreatedAt      time.Time
}

// HasActiveSignal reports whether any domain currently flags this person as
// needing caseworker attention. The cache preloader warms exactly these rows.
func (p *PersonStatus) HasActiveSignal() bool {
	if p.ActiveFollowUpTask != nil && *p.ActiveFollowUpTask {
		return true
	}
	if p.DialogMeetingStatus != nil && *p.DialogMeetingStatus == DialogMeetingResponsePending {
		return true
	}
	if p.CapacityAssessmentStatus != nil {
		switch *p.CapacityAssessmentStatus {
		case CapacityAwaitingDocumentation, CapacityUnderAssessment:
			return true
		}
	}
	if p.CooperationStatus != nil && *p.CooperationStatus == CooperationAdvanceWarning {
		return true
	}
	if p.LateFollowUpStatus != nil && *p.LateFollowUpStatus == LateFollowUpCandidate {
		return true
	}
	if p.ActivityRequirementStatus != nil && *p.ActivityRequirementStatus == ActivityRequirementNew {
		return true
	}
	return false
}
