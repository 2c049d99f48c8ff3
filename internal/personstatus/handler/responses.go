package handler

import (
	"time"

	"syfooversiktsrv/internal/personstatus/models"
)

// personResponse is the wire shape of one aggregate row.
type personResponse struct {
	UUID                         string                `json:"uuid"`
	Ident                        string                `json:"fnr"`
	Name                         *string               `json:"navn,omitempty"`
	Birthdate                    *string               `json:"fodselsdato,omitempty"`
	AssignedCaseworker           *string               `json:"veilederIdent,omitempty"`
	AssignedOrgUnit              *string               `json:"enhet,omitempty"`
	ActiveFollowUpTask           *bool                 `json:"motebehov,omitempty"`
	DialogMeetingStatus          *string               `json:"dialogmotestatus,omitempty"`
	CapacityAssessmentStatus     *string               `json:"arbeidsevnestatus,omitempty"`
	CooperationStatus            *string               `json:"friskmeldingstatus,omitempty"`
	LateFollowUpStatus           *string               `json:"senOppfolgingStatus,omitempty"`
	ActivityRequirementStatus    *string               `json:"aktivitetskravStatus,omitempty"`
	FollowUpCase                 *followUpCaseResponse `json:"oppfolgingstilfelle,omitempty"`
	VarighetUker                 *int                  `json:"varighetUker,omitempty"`
	LastModifiedAt               time.Time             `json:"sistEndret"`
}

type followUpCaseResponse struct {
	Start     string             `json:"start"`
	End       string             `json:"slutt"`
	SickDays  *int               `json:"antallSykedager,omitempty"`
	Employers []employerResponse `json:"virksomheter"`
}

type employerResponse struct {
	OrgNumber string  `json:"virksomhetsnummer"`
	OrgName   *string `json:"virksomhetsnavn,omitempty"`
}

func toPersonResponse(p *models.PersonStatus, varighetUker *int) personResponse {
	resp := personResponse{
		UUID:               p.UUID.String(),
		Ident:              p.Ident,
		Name:               p.Name,
		AssignedCaseworker: p.AssignedCaseworker,
		AssignedOrgUnit:    p.AssignedOrgUnit,
		ActiveFollowUpTask: p.ActiveFollowUpTask,
		VarighetUker:       varighetUker,
		LastModifiedAt:     p.LastModifiedAt,
	}
	if p.Birthdate != nil {
		d := p.Birthdate.Format("2006-01-02")
		resp.Birthdate = &d
	}
	resp.DialogMeetingStatus = statusString(p.DialogMeetingStatus)
	resp.CapacityAssessmentStatus = statusString(p.CapacityAssessmentStatus)
	resp.CooperationStatus = statusString(p.CooperationStatus)
	resp.LateFollowUpStatus = statusString(p.LateFollowUpStatus)
	resp.ActivityRequirementStatus = statusString(p.ActivityRequirementStatus)

	if p.FollowUpCase != nil {
		resp.FollowUpCase = toFollowUpCaseResponse(p.FollowUpCase)
	}
	return resp
}

func toFollowUpCaseResponse(c *models.FollowUpCase) *followUpCaseResponse {
	out := &followUpCaseResponse{
		Start:     c.Start.Format("2006-01-02"),
		End:       c.End.Format("2006-01-02"),
		SickDays:  c.SickDays,
		Employers: make([]employerResponse, 0, len(c.Employers)),
	}
	for _, e := range c.Employers {
		out.Employers = append(out.Employers, employerResponse{
			OrgNumber: e.OrgNumber,
			OrgName:   e.OrgName,
		})
	}
	return out
}

// statusString converts any string-kinded status pointer for the wire.
func statusString[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
