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

// orgAssignmentEvent is the organizational-assignment topic payload.
type orgAssignmentEvent struct {
	Ident      string    `json:"ident"`
	OrgUnit    string    `json:"orgUnit"`
	AssignedAt time.Time `json:"assignedAt"`
}

func (e orgAssignmentEvent) validate() error {
	if e.Ident == "" {
		return fmt.Errorf("missing ident")
	}
	if e.OrgUnit == "" {
		return fmt.Errorf("missing orgUnit")
	}
	return nil
}

// OrgAssignmentHandler mirrors organizational-unit assignments. It owns only
// the OrgUnit field group; notably it never touches the caseworker column.
type OrgAssignmentHandler struct {
	handler
}

func NewOrgAssignmentHandler(service StatusWriter, logger *slog.Logger, m *kafka.Metrics) *OrgAssignmentHandler {
	return &OrgAssignmentHandler{handler: newHandler(service, logger, m)}
}

func (h *OrgAssignmentHandler) Topic() string { return TopicOrgAssignment }

func (h *OrgAssignmentHandler) Handle(ctx context.Context, records []*kgo.Record) error {
	for _, record := range records {
		event, err := decode[orgAssignmentEvent](record)
		if err == nil {
			err = event.validate()
		}
		if err != nil {
			h.skipMalformed(h.Topic(), record, err)
			continue
		}

		unit := event.OrgUnit
		values := models.OrgUnitValues{AssignedOrgUnit: &unit, AssignedAt: event.AssignedAt}
		if err := h.service.UpsertFieldGroup(ctx, event.Ident, values); err != nil {
			return fmt.Errorf("apply org assignment: %w", err)
		}
	}
	return nil
}
