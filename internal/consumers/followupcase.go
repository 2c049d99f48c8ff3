package consumers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"syfooversiktsrv/internal/kafka"
	"syfooversiktsrv/internal/personstatus/models"
)

// followUpCaseEvent replaces the latest sick-leave tracking period.
// Dates arrive as "2006-01-02"; employer names are resolved later by the
// enrichment backfill, so only organization numbers are carried here.
type followUpCaseEvent struct {
	Ident       string    `json:"ident"`
	CaseStart   string    `json:"caseStart"`
	CaseEnd     string    `json:"caseEnd"`
	SickDays    *int      `json:"sickDays"`
	GeneratedAt time.Time `json:"generatedAt"`
	Employers   []struct {
		OrgNumber string `json:"orgNumber"`
	} `json:"employers"`
}

func (e followUpCaseEvent) toCase() (models.FollowUpCase, error) {
	if e.Ident == "" {
		return models.FollowUpCase{}, fmt.Errorf("missing ident")
	}
	start, err := time.Parse("2006-01-02", e.CaseStart)
	if err != nil {
		return models.FollowUpCase{}, fmt.Errorf("parse caseStart: %w", err)
	}
	end, err := time.Parse("2006-01-02", e.CaseEnd)
	if err != nil {
		return models.FollowUpCase{}, fmt.Errorf("parse caseEnd: %w", err)
	}
	if end.Before(start) {
		return models.FollowUpCase{}, fmt.Errorf("caseEnd %s precedes caseStart %s", e.CaseEnd, e.CaseStart)
	}

	c := models.FollowUpCase{
		Start:       start,
		End:         end,
		SickDays:    e.SickDays,
		GeneratedAt: e.GeneratedAt,
	}
	for _, employer := range e.Employers {
		if employer.OrgNumber == "" {
			continue
		}
		c.Employers = append(c.Employers, models.Employer{OrgNumber: employer.OrgNumber})
	}
	return c, nil
}

// FollowUpCaseHandler owns the FollowUpCase field group, employer sub-rows
// included.
type FollowUpCaseHandler struct {
	handler
}

func NewFollowUpCaseHandler(service StatusWriter, logger *slog.Logger, m *kafka.Metrics) *FollowUpCaseHandler {
	return &FollowUpCaseHandler{handler: newHandler(service, logger, m)}
}

func (h *FollowUpCaseHandler) Topic() string { return TopicFollowUpCase }

func (h *FollowUpCaseHandler) Handle(ctx context.Context, records []*kgo.Record) error {
	for _, record := range records {
		event, err := decode[followUpCaseEvent](record)
		var followUpCase models.FollowUpCase
		if err == nil {
			followUpCase, err = event.toCase()
		}
		if err != nil {
			h.skipMalformed(h.Topic(), record, err)
			continue
		}

		values := models.FollowUpCaseValues{Case: followUpCase}
		if err := h.service.UpsertFieldGroup(ctx, event.Ident, values); err != nil {
			return fmt.Errorf("apply follow-up case: %w", err)
		}
	}
	return nil
}
