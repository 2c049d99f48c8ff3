package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestVarighetUker(t *testing.T) {
	tests := []struct {
		name      string
		c         FollowUpCase
		today     time.Time
		want      int
		clamped   bool
	}{
		{
			name:  "one day case",
			c:     FollowUpCase{Start: date(2026, 3, 2), End: date(2026, 3, 2)},
			today: date(2026, 3, 2),
			want:  0,
		},
		{
			name:  "exactly seven days is one week",
			c:     FollowUpCase{Start: date(2026, 3, 2), End: date(2026, 3, 8)},
			today: date(2026, 3, 8),
			want:  1,
		},
		{
			name:  "six days is zero weeks",
			c:     FollowUpCase{Start: date(2026, 3, 2), End: date(2026, 3, 7)},
			today: date(2026, 3, 7),
			want:  0,
		},
		{
			name:  "ongoing case measures to today",
			c:     FollowUpCase{Start: date(2026, 1, 5), End: date(2026, 6, 1)},
			today: date(2026, 1, 19), // 15 inclusive days
			want:  2,
		},
		{
			name:  "ended case measures to end",
			c:     FollowUpCase{Start: date(2026, 1, 5), End: date(2026, 1, 25)},
			today: date(2026, 3, 1),
			want:  3,
		},
		{
			name: "sick days subtract presumed healthy days",
			// 28 day case fully elapsed, only 14 of them sick.
			c:     FollowUpCase{Start: date(2026, 1, 5), End: date(2026, 2, 1), SickDays: intPtr(14)},
			today: date(2026, 2, 1),
			want:  2,
		},
		{
			name:    "inconsistent sick day count clamps to zero",
			c:       FollowUpCase{Start: date(2026, 1, 5), End: date(2026, 2, 1), SickDays: intPtr(0)},
			today:   date(2026, 1, 10),
			want:    0,
			clamped: true,
		},
		{
			name:  "time of day does not change the day count",
			c:     FollowUpCase{Start: date(2026, 3, 2).Add(23 * time.Hour), End: date(2026, 3, 8).Add(1 * time.Minute)},
			today: date(2026, 3, 8).Add(5 * time.Hour),
			want:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, clamped := tt.c.VarighetUker(tt.today)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.clamped, clamped)
		})
	}
}

func TestVarighetUkerNeverNegative(t *testing.T) {
	// Whatever the inputs, the derived duration must never go below zero.
	cases := []FollowUpCase{
		{Start: date(2026, 2, 1), End: date(2026, 1, 1)},
		{Start: date(2026, 1, 1), End: date(2026, 12, 31), SickDays: intPtr(0)},
		{Start: date(2026, 1, 1), End: date(2026, 1, 31), SickDays: intPtr(400)},
	}
	for _, c := range cases {
		got, _ := c.VarighetUker(date(2026, 6, 15))
		assert.GreaterOrEqual(t, got, 0)
	}
}

func TestVarighetUkerMonotoneWhileOngoing(t *testing.T) {
	// With no sick-day correction, the duration never shrinks as days pass.
	c := FollowUpCase{Start: date(2026, 1, 5), End: date(2026, 12, 31)}
	prev := -1
	for day := 0; day < 120; day++ {
		got, clamped := c.VarighetUker(date(2026, 1, 5).AddDate(0, 0, day))
		require.False(t, clamped)
		require.GreaterOrEqual(t, got, prev, "duration regressed on day %d", day)
		prev = got
	}
}

func TestStatusEnumsRejectUnknownValues(t *testing.T) {
	assert.True(t, DialogMeetingResponsePending.Valid())
	assert.True(t, CapacityAssessed.Valid())
	assert.True(t, CooperationAdvanceWarning.Valid())
	assert.True(t, LateFollowUpDismissed.Valid())
	assert.True(t, ActivityRequirementExempted.Valid())

	assert.False(t, DialogMeetingStatus("PENDING").Valid())
	assert.False(t, CapacityAssessmentStatus("").Valid())
	assert.False(t, CooperationStatus("stopped").Valid())
	assert.False(t, LateFollowUpStatus("UNKNOWN").Valid())
	assert.False(t, ActivityRequirementStatus("DONE").Valid())
}

func TestApplyTouchesOnlyOwnGroup(t *testing.T) {
	now := date(2026, 4, 1)
	for _, g := range AllFieldGroups() {
		p := &PersonStatus{Ident: "12345678901"}
		values := sampleValues(g, now)
		require.Equal(t, g, values.Group())
		values.Apply(p)

		for _, other := range AllFieldGroups() {
			if other == g {
				assert.True(t, HasGroup(p, other), "group %s should be set after applying itself", g)
				continue
			}
			assert.False(t, HasGroup(p, other), "applying %s must not touch %s", g, other)
		}
	}
}

func TestValuesForRoundTrips(t *testing.T) {
	now := date(2026, 4, 1)
	for _, g := range AllFieldGroups() {
		p := &PersonStatus{Ident: "12345678901"}
		sampleValues(g, now).Apply(p)

		extracted, ok := ValuesFor(p, g)
		require.True(t, ok, "group %s should be extractable after apply", g)

		q := &PersonStatus{Ident: "12345678901"}
		extracted.Apply(q)
		assert.Equal(t, p, q, "round-tripping %s through ValuesFor changed the row", g)
	}
}

func TestValuesForUnpopulatedGroup(t *testing.T) {
	p := &PersonStatus{Ident: "12345678901"}
	for _, g := range AllFieldGroups() {
		_, ok := ValuesFor(p, g)
		assert.False(t, ok)
	}
}

func TestGroupTimestampFallsBackToLastModified(t *testing.T) {
	lastModified := date(2026, 2, 2)
	p := &PersonStatus{Ident: "12345678901", LastModifiedAt: lastModified}

	for _, g := range AllFieldGroups() {
		assert.Equal(t, lastModified, GroupTimestamp(p, g), "empty group %s must fall back", g)
	}

	at := date(2026, 3, 3)
	FollowUpTaskValues{Active: true, UpdatedAt: at}.Apply(p)
	assert.Equal(t, at, GroupTimestamp(p, FieldGroupFollowUpTask))

	// The caseworker group carries no timestamp of its own.
	CaseworkerValues{AssignedCaseworker: strPtr("Z999999")}.Apply(p)
	assert.Equal(t, lastModified, GroupTimestamp(p, FieldGroupCaseworker))
}

func TestHasActiveSignal(t *testing.T) {
	active := true
	inactive := false
	pending := DialogMeetingResponsePending
	completed := DialogMeetingCompleted
	candidate := LateFollowUpCandidate

	tests := []struct {
		name string
		p    PersonStatus
		want bool
	}{
		{name: "empty row", p: PersonStatus{}, want: false},
		{name: "open follow-up task", p: PersonStatus{ActiveFollowUpTask: &active}, want: true},
		{name: "closed follow-up task", p: PersonStatus{ActiveFollowUpTask: &inactive}, want: false},
		{name: "pending dialog meeting", p: PersonStatus{DialogMeetingStatus: &pending}, want: true},
		{name: "completed dialog meeting", p: PersonStatus{DialogMeetingStatus: &completed}, want: false},
		{name: "late follow-up candidate", p: PersonStatus{LateFollowUpStatus: &candidate}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.HasActiveSignal())
		})
	}
}

// sampleValues builds a representative write for each group.
func sampleValues(g FieldGroup, now time.Time) FieldValues {
	switch g {
	case FieldGroupCaseworker:
		return CaseworkerValues{AssignedCaseworker: strPtr("Z999999")}
	case FieldGroupOrgUnit:
		return OrgUnitValues{AssignedOrgUnit: strPtr("0314"), AssignedAt: now}
	case FieldGroupPersonDetails:
		birthdate := date(1990, 5, 17)
		return PersonDetailsValues{Name: strPtr("Ola Nordmann"), Birthdate: &birthdate}
	case FieldGroupFollowUpTask:
		return FollowUpTaskValues{Active: true, UpdatedAt: now}
	case FieldGroupDialogMeeting:
		return DialogMeetingValues{Status: DialogMeetingResponsePending, GeneratedAt: now}
	case FieldGroupCapacityAssessment:
		return CapacityAssessmentValues{Status: CapacityUnderAssessment, UpdatedAt: now}
	case FieldGroupCooperation:
		return CooperationValues{Status: CooperationAdvanceWarning, UpdatedAt: now}
	case FieldGroupLateFollowUp:
		return LateFollowUpValues{Status: LateFollowUpCandidate, UpdatedAt: now}
	case FieldGroupActivityRequirement:
		return ActivityRequirementValues{Status: ActivityRequirementNew, UpdatedAt: now}
	case FieldGroupFollowUpCase:
		return FollowUpCaseValues{Case: FollowUpCase{
			Start:       now.AddDate(0, 0, -14),
			End:         now.AddDate(0, 0, 14),
			GeneratedAt: now,
			Employers:   []Employer{{OrgNumber: "912345678"}},
		}}
	}
	panic("unknown field group " + string(g))
}
