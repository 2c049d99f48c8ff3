package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"syfooversiktsrv/internal/personstatus/models"
	"syfooversiktsrv/pkg/platform/sentinel"
)

// MemoryStore is an in-memory aggregate store for unit tests. It mirrors the
// PostgresStore contract, including column-scoped group updates and the
// never-regressing last_modified_at.
type MemoryStore struct {
	mu         sync.Mutex
	byIdent    map[string]*models.PersonStatus
	employerID int64
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{byIdent: make(map[string]*models.PersonStatus)}
}

func (s *MemoryStore) GetByIdent(_ context.Context, ident string) (*models.PersonStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byIdent[ident]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyStatus(p), nil
}

func (s *MemoryStore) Create(_ context.Context, ident string, values models.FieldValues, now time.Time) (*models.PersonStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byIdent[ident]; ok {
		return nil, sentinel.ErrConflict
	}
	p := &models.PersonStatus{
		UUID:           uuid.New(),
		Ident:          ident,
		CreatedAt:      now,
		LastModifiedAt: now,
	}
	values.Apply(p)
	s.assignEmployerIDs(p)
	s.byIdent[ident] = p
	return copyStatus(p), nil
}

func (s *MemoryStore) UpdateGroup(_ context.Context, ident string, values models.FieldValues, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byIdent[ident]
	if !ok {
		return 0, nil
	}
	values.Apply(p)
	s.assignEmployerIDs(p)
	if now.After(p.LastModifiedAt) {
		p.LastModifiedAt = now
	}
	return 1, nil
}

func (s *MemoryStore) ListByOrgUnit(_ context.Context, orgUnit string) ([]*models.PersonStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*models.PersonStatus
	for _, p := range s.byIdent {
		if p.AssignedOrgUnit != nil && *p.AssignedOrgUnit == orgUnit {
			result = append(result, copyStatus(p))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Ident < result[j].Ident })
	return result, nil
}

func (s *MemoryStore) DistinctOrgUnits(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{})
	var units []string
	for _, p := range s.byIdent {
		if p.AssignedOrgUnit == nil {
			continue
		}
		if _, ok := seen[*p.AssignedOrgUnit]; ok {
			continue
		}
		seen[*p.AssignedOrgUnit] = struct{}{}
		units = append(units, *p.AssignedOrgUnit)
	}
	sort.Strings(units)
	return units, nil
}

func (s *MemoryStore) ListStaleAssigned(_ context.Context, caseEndBefore, modifiedBefore time.Time, limit int) ([]*models.PersonStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*models.PersonStatus
	for _, p := range s.byIdent {
		if p.AssignedCaseworker == nil || p.FollowUpCase == nil {
			continue
		}
		if p.FollowUpCase.End.Before(caseEndBefore) && !p.LastModifiedAt.After(modifiedBefore) {
			result = append(result, copyStatus(p))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LastModifiedAt.Before(result[j].LastModifiedAt) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *MemoryStore) ListEmployersMissingName(_ context.Context, limit int) ([]models.Employer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var employers []models.Employer
	for _, p := range s.byIdent {
		if p.FollowUpCase == nil {
			continue
		}
		for _, e := range p.FollowUpCase.Employers {
			if e.OrgName == nil {
				employers = append(employers, e)
			}
		}
	}
	sort.Slice(employers, func(i, j int) bool { return employers[i].ID < employers[j].ID })
	if len(employers) > limit {
		employers = employers[:limit]
	}
	return employers, nil
}

func (s *MemoryStore) SetEmployerName(_ context.Context, id int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.byIdent {
		if p.FollowUpCase == nil {
			continue
		}
		for i := range p.FollowUpCase.Employers {
			if p.FollowUpCase.Employers[i].ID == id {
				n := name
				p.FollowUpCase.Employers[i].OrgName = &n
				return nil
			}
		}
	}
	return nil
}

func (s *MemoryStore) UpdateIdent(_ context.Context, fromIdent, toIdent string, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byIdent[fromIdent]
	if !ok {
		return 0, nil
	}
	if _, exists := s.byIdent[toIdent]; exists {
		return 0, sentinel.ErrConflict
	}
	delete(s.byIdent, fromIdent)
	p.Ident = toIdent
	if now.After(p.LastModifiedAt) {
		p.LastModifiedAt = now
	}
	s.byIdent[toIdent] = p
	return 1, nil
}

func (s *MemoryStore) DeleteByIdent(_ context.Context, ident string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byIdent[ident]; !ok {
		return 0, nil
	}
	delete(s.byIdent, ident)
	return 1, nil
}

func (s *MemoryStore) assignEmployerIDs(p *models.PersonStatus) {
	if p.FollowUpCase == nil {
		return
	}
	for i := range p.FollowUpCase.Employers {
		if p.FollowUpCase.Employers[i].ID == 0 {
			s.employerID++
			p.FollowUpCase.Employers[i].ID = s.employerID
		}
	}
}

func copyStatus(p *models.PersonStatus) *models.PersonStatus {
	c := *p
	c.Name = copyPtr(p.Name)
	c.Birthdate = copyPtr(p.Birthdate)
	c.AssignedCaseworker = copyPtr(p.AssignedCaseworker)
	c.AssignedOrgUnit = copyPtr(p.AssignedOrgUnit)
	c.OrgUnitAssignedAt = copyPtr(p.OrgUnitAssignedAt)
	c.ActiveFollowUpTask = copyPtr(p.ActiveFollowUpTask)
	c.FollowUpTaskUpdatedAt = copyPtr(p.FollowUpTaskUpdatedAt)
	c.DialogMeetingStatus = copyPtr(p.DialogMeetingStatus)
	c.DialogMeetingGeneratedAt = copyPtr(p.DialogMeetingGeneratedAt)
	c.CapacityAssessmentStatus = copyPtr(p.CapacityAssessmentStatus)
	c.CapacityAssessmentUpdatedAt = copyPtr(p.CapacityAssessmentUpdatedAt)
	c.CooperationStatus = copyPtr(p.CooperationStatus)
	c.CooperationUpdatedAt = copyPtr(p.CooperationUpdatedAt)
	c.LateFollowUpStatus = copyPtr(p.LateFollowUpStatus)
	c.LateFollowUpUpdatedAt = copyPtr(p.LateFollowUpUpdatedAt)
	c.ActivityRequirementStatus = copyPtr(p.ActivityRequirementStatus)
	c.ActivityRequirementUpdatedAt = copyPtr(p.ActivityRequirementUpdatedAt)
	if p.FollowUpCase != nil {
		fc := *p.FollowUpCase
		fc.SickDays = copyPtr(p.FollowUpCase.SickDays)
		fc.Employers = make([]models.Employer, len(p.FollowUpCase.Employers))
		for i, e := range p.FollowUpCase.Employers {
			fc.Employers[i] = e
			fc.Employers[i].OrgName = copyPtr(e.OrgName)
		}
		c.FollowUpCase = &fc
	}
	return &c
}

func copyPtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
