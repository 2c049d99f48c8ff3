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

// lateFollowUpEvent flags a person as a late-follow-up candidate.
type lateFollowUpEvent struct {
	Ident     string    `json:"ident"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LateFollowUpHandler owns the LateFollowUp field group.
type LateFollowUpHandler struct {
	handler
}

func NewLateFollowUpHandler(service StatusWriter, logger *slog.Logger, m *kafka.Metrics) *LateFollowUpHandler {
	return &LateFollowUpHandler{handler: newHandler(service, logger, m)}
}

func (h *LateFollowUpHandler) Topic() string { return TopicLateFollowUp }

func (h *LateFollowUpHandler) Handle(ctx context.Context, records []*kgo.Record) error {
	for _, record := range records {
		event, err := decode[lateFollowUpEvent](record)
		status := models.LateFollowUpStatus(event.Status)
		if err == nil {
			switch {
			case event.Ident == "":
				err = fmt.Errorf("missing ident")
			case !status.Valid():
				err = fmt.Errorf("unknown late-follow-up status %q", event.Status)
			}
		}
		if err != nil {
			h.skipMalformed(h.Topic(), record, err)
			continue
		}

		values := models.LateFollowUpValues{Status: status, UpdatedAt: event.UpdatedAt}
		if err := h.service.UpsertFieldGroup(ctx, event.Ident, values); err != nil {
			return fmt.Errorf("apply late-follow-up status: %w", err)
		}
	}
	return nil
}
