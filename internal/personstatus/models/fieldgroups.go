package models

import "time"

// FieldGroup identifies the subset of aggregate columns one upstream domain
// owns. Every write to the aggregate is scoped to exactly one group; this is
// what keeps concurrent writers from clobbering each other's columns.
type FieldGroup string

const (
	FieldGroupCaseworker          FieldGroup = "caseworker"
	FieldGroupOrgUnit             FieldGroup = "org_unit"
	FieldGroupPersonDetails       FieldGroup = "person_details"
	FieldGroupFollowUpTask        FieldGroup = "follow_up_task"
	FieldGroupDialogMeeting       FieldGroup = "dialog_meeting"
	FieldGroupCapacityAssessment  FieldGroup = "capacity_assessment"
	FieldGroupCooperation         FieldGroup = "cooperation"
	FieldGroupLateFollowUp        FieldGroup = "late_follow_up"
	FieldGroupActivityRequirement FieldGroup = "activity_requirement"
	FieldGroupFollowUpCase        FieldGroup = "follow_up_case"
)

// AllFieldGroups enumerates every declared group, in a stable order.
func AllFieldGroups() []FieldGroup {
	return []FieldGroup{
		FieldGroupCaseworker,
		FieldGroupOrgUnit,
		FieldGroupPersonDetails,
		FieldGroupFollowUpTask,
		FieldGroupDialogMeeting,
		FieldGroupCapacityAssessment,
		FieldGroupCooperation,
		FieldGroupLateFollowUp,
		FieldGroupActivityRequirement,
		FieldGroupFollowUpCase,
	}
}

// FieldValues is a typed, column-scoped write for one field group. Apply
// mutates only the group's own columns; stores translate the concrete type
// into a column-scoped UPDATE touching the same columns.
type FieldValues interface {
	Group() FieldGroup
	Apply(p *PersonStatus)
}

// CaseworkerValues assigns or clears the caseworker. Written by the
// assignment API and cleared by the stale-assignment reaper.
type CaseworkerValues struct {
	AssignedCaseworker *string
}

func (CaseworkerValues) Group() FieldGroup { return FieldGroupCaseworker }

func (v CaseworkerValues) Apply(p *PersonStatus) {
	p.AssignedCaseworker = v.AssignedCaseworker
}

// OrgUnitValues records the organizational unit a person is attached to.
type OrgUnitValues struct {
	AssignedOrgUnit *string
	AssignedAt      time.Time
}

func (OrgUnitValues) Group() FieldGroup { return FieldGroupOrgUnit }

func (v OrgUnitValues) Apply(p *PersonStatus) {
	p.AssignedOrgUnit = v.AssignedOrgUnit
	at := v.AssignedAt
	p.OrgUnitAssignedAt = &at
}

// PersonDetailsValues carries name and birthdate from the identity registry.
type PersonDetailsValues struct {
	Name      *string
	Birthdate *time.Time
}

func (PersonDetailsValues) Group() FieldGroup { return FieldGroupPersonDetails }

func (v PersonDetailsValues) Apply(p *PersonStatus) {
	p.Name = v.Name
	p.Birthdate = v.Birthdate
}

// FollowUpTaskValues mirrors whether an open follow-up task exists.
type FollowUpTaskValues struct {
	Active    bool
	UpdatedAt time.Time
}

func (FollowUpTaskValues) Group() FieldGroup { return FieldGroupFollowUpTask }

func (v FollowUpTaskValues) Apply(p *PersonStatus) {
	active, at := v.Active, v.UpdatedAt
	p.ActiveFollowUpTask = &active
	p.FollowUpTaskUpdatedAt = &at
}

// DialogMeetingValues mirrors the latest dialog-meeting status signal.
type DialogMeetingValues struct {
	Status      DialogMeetingStatus
	GeneratedAt time.Time
}

func (DialogMeetingValues) Group() FieldGroup { return FieldGroupDialogMeeting }

func (v DialogMeetingValues) Apply(p *PersonStatus) {
	status, at := v.Status, v.GeneratedAt
	p.DialogMeetingStatus = &status
	p.DialogMeetingGeneratedAt = &at
}

// CapacityAssessmentValues mirrors the latest capacity-assessment signal.
type CapacityAssessmentValues struct {
	Status    CapacityAssessmentStatus
	UpdatedAt time.Time
}

func (CapacityAssessmentValues) Group() FieldGroup { return FieldGroupCapacityAssessment }

func (v CapacityAssessmentValues) Apply(p *PersonStatus) {
	status, at := v.Status, v.UpdatedAt
	p.CapacityAssessmentStatus = &status
	p.CapacityAssessmentUpdatedAt = &at
}

// CooperationValues mirrors the insufficient-cooperation signal.
type CooperationValues struct {
	Status    CooperationStatus
	UpdatedAt time.Time
}

func (CooperationValues) Group() FieldGroup { return FieldGroupCooperation }

func (v CooperationValues) Apply(p *PersonStatus) {
	status, at := v.Status, v.UpdatedAt
	p.CooperationStatus = &status
	p.CooperationUpdatedAt = &at
}

// LateFollowUpValues mirrors the late-follow-up-candidate signal.
type LateFollowUpValues struct {
	Status    LateFollowUpStatus
	UpdatedAt time.Time
}

func (LateFollowUpValues) Group() FieldGroup { return FieldGroupLateFollowUp }

func (v LateFollowUpValues) Apply(p *PersonStatus) {
	status, at := v.Status, v.UpdatedAt
	p.LateFollowUpStatus = &status
	p.LateFollowUpUpdatedAt = &at
}

// ActivityRequirementValues mirrors the activity-requirement signal.
type ActivityRequirementValues struct {
	Status    ActivityRequirementStatus
	UpdatedAt time.Time
}

func (ActivityRequirementValues) Group() FieldGroup { return FieldGroupActivityRequirement }

func (v ActivityRequirementValues) Apply(p *PersonStatus) {
	status, at := v.Status, v.UpdatedAt
	p.ActivityRequirementStatus = &status
	p.ActivityRequirementUpdatedAt = &at
}

// FollowUpCaseValues replaces the latest follow-up case, employers included.
type FollowUpCaseValues struct {
	Case FollowUpCase
}

func (FollowUpCaseValues) Group() FieldGroup { return FieldGroupFollowUpCase }

func (v FollowUpCaseValues) Apply(p *PersonStatus) {
	c := v.Case
	p.FollowUpCase = &c
}

// GroupTimestamp returns the group's own signal timestamp on p, falling back
// to the row's LastModifiedAt for groups that carry none. Identity
// reconciliation uses this to decide, field group by field group, which of
// two colliding rows holds the newer data.
func GroupTimestamp(p *PersonStatus, g FieldGroup) time.Time {
	switch g {
	case FieldGroupOrgUnit:
		if p.OrgUnitAssignedAt != nil {
			return *p.OrgUnitAssignedAt
		}
	case FieldGroupFollowUpTask:
		if p.FollowUpTaskUpdatedAt != nil {
			return *p.FollowUpTaskUpdatedAt
		}
	case FieldGroupDialogMeeting:
		if p.DialogMeetingGeneratedAt != nil {
			return *p.DialogMeetingGeneratedAt
		}
	case FieldGroupCapacityAssessment:
		if p.CapacityAssessmentUpdatedAt != nil {
			return *p.CapacityAssessmentUpdatedAt
		}
	case FieldGroupCooperation:
		if p.CooperationUpdatedAt != nil {
			return *p.CooperationUpdatedAt
		}
	case FieldGroupLateFollowUp:
		if p.LateFollowUpUpdatedAt != nil {
			return *p.LateFollowUpUpdatedAt
		}
	case FieldGroupActivityRequirement:
		if p.ActivityRequirementUpdatedAt != nil {
			return *p.ActivityRequirementUpdatedAt
		}
	case FieldGroupFollowUpCase:
		if p.FollowUpCase != nil {
			return p.FollowUpCase.GeneratedAt
		}
	}
	return p.LastModifiedAt
}

// HasGroup reports whether any column of the group is populated on p.
func HasGroup(p *PersonStatus, g FieldGroup) bool {
	switch g {
	case FieldGroupCaseworker:
		return p.AssignedCaseworker != nil
	case FieldGroupOrgUnit:
		return p.AssignedOrgUnit != nil
	case FieldGroupPersonDetails:
		return p.Name != nil || p.Birthdate != nil
	case FieldGroupFollowUpTask:
		return p.ActiveFollowUpTask != nil
	case FieldGroupDialogMeeting:
		return p.DialogMeetingStatus != nil
	case FieldGroupCapacityAssessment:
		return p.CapacityAssessmentStatus != nil
	case FieldGroupCooperation:
		return p.CooperationStatus != nil
	case FieldGroupLateFollowUp:
		return p.LateFollowUpStatus != nil
	case FieldGroupActivityRequirement:
		return p.ActivityRequirementStatus != nil
	case FieldGroupFollowUpCase:
		return p.FollowUpCase != nil
	}
	return false
}

// ValuesFor extracts a group's current values from p as a column-scoped
// write, or false when the group is unpopulated.
func ValuesFor(p *PersonStatus, g FieldGroup) (FieldValues, bool) {
	if !HasGroup(p, g) {
		return nil, false
	}
	switch g {
	case FieldGroupCaseworker:
		return CaseworkerValues{AssignedCaseworker: p.AssignedCaseworker}, true
	case FieldGroupOrgUnit:
		at := p.LastModifiedAt
		if p.OrgUnitAssignedAt != nil {
			at = *p.OrgUnitAssignedAt
		}
		return OrgUnitValues{AssignedOrgUnit: p.AssignedOrgUnit, AssignedAt: at}, true
	case FieldGroupPersonDetails:
		return PersonDetailsValues{Name: p.Name, Birthdate: p.Birthdate}, true
	case FieldGroupFollowUpTask:
		return FollowUpTaskValues{Active: *p.ActiveFollowUpTask, UpdatedAt: tsOr(p.FollowUpTaskUpdatedAt, p.LastModifiedAt)}, true
	case FieldGroupDialogMeeting:
		return DialogMeetingValues{Status: *p.DialogMeetingStatus, GeneratedAt: tsOr(p.DialogMeetingGeneratedAt, p.LastModifiedAt)}, true
	case FieldGroupCapacityAssessment:
		return CapacityAssessmentValues{Status: *p.CapacityAssessmentStatus, UpdatedAt: tsOr(p.CapacityAssessmentUpdatedAt, p.LastModifiedAt)}, true
	case FieldGroupCooperation:
		return CooperationValues{Status: *p.CooperationStatus, UpdatedAt: tsOr(p.CooperationUpdatedAt, p.LastModifiedAt)}, true
	case FieldGroupLateFollowUp:
		return LateFollowUpValues{Status: *p.LateFollowUpStatus, UpdatedAt: tsOr(p.LateFollowUpUpdatedAt, p.LastModifiedAt)}, true
	case FieldGroupActivityRequirement:
		return ActivityRequirementValues{Status: *p.ActivityRequirementStatus, UpdatedAt: tsOr(p.ActivityRequirementUpdatedAt, p.LastModifiedAt)}, true
	case FieldGroupFollowUpCase:
		return FollowUpCaseValues{Case: *p.FollowUpCase}, true
	}
	return nil, false
}

func tsOr(t *time.Time, fallback time.Time) time.Time {
	if t != nil {
		return *t
	}
	return fallback
}
