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

// capacityAssessmentEvent carries the medical-capacity assessment status.
type capacityAssessmentEvent struct {
	Ident     string    `json:"ident"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CapacityAssessmentHandler owns the CapacityAssessment field group.
type CapacityAssessmentHandler struct {
	handler
}

func NewCapacityAssessmentHandler(service StatusWriter, logger *slog.Logger, m *kafka.Metrics) *CapacityAssessmentHandler {
	return &CapacityAssessmentHandler{handler: newHandler(service, logger, m)}
}

func (h *CapacityAssessmentHandler) Topic() string { return TopicCapacityAssessment }

func (h *CapacityAssessmentHandler) Handle(ctx context.Context, records []*kgo.Record) error {
	for _, record := range records {
		event, err := decode[capacityAssessmentEvent](record)
		status := models.CapacityAssessmentStatus(event.Status)
		if err == nil {
			switch {
			case event.Ident == "":
				err = fmt.Errorf("missing ident")
			case !status.Valid():
				err = fmt.Errorf("unknown capacity-assessment status %q", event.Status)
			}
		}
		if err != nil {
			h.skipMalformed(h.Topic(), record, err)
			continue
		}

		values := models.CapacityAssessmentValues{Status: status, UpdatedAt: event.UpdatedAt}
		if err := h.service.UpsertFieldGroup(ctx, event.Ident, values); err != nil {
			return fmt.Errorf("apply capacity-assessment status: %w", err)
		}
	}
	return nil
}
