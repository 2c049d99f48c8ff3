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

// cooperationEvent carries the insufficient-cooperation follow-up status.
type cooperationEvent struct {
	Ident     string    `json:"ident"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CooperationHandler owns the Cooperation field group.
type CooperationHandler struct {
	handler
}

func NewCooperationHandler(service StatusWriter, logger *slog.Logger, m *kafka.Metrics) *CooperationHandler {
	return &CooperationHandler{handler: newHandler(service, logger, m)}
}

func (h *CooperationHandler) Topic() string { return TopicCooperation }

func (h *CooperationHandler) Handle(ctx context.Context, records []*kgo.Record) error {
	for _, record := range records {
		event, err := decode[cooperationEvent](record)
		status := models.CooperationStatus(event.Status)
		if err == nil {
			switch {
			case event.Ident == "":
				err = fmt.Errorf("missing ident")
			case !status.Valid():
				err = fmt.Errorf("unknown cooperation status %q", event.Status)
			}
		}
		if err != nil {
			h.skipMalformed(h.Topic(), record, err)
			continue
		}

		values := models.CooperationValues{Status: status, UpdatedAt: event.UpdatedAt}
		if err := h.service.UpsertFieldGroup(ctx, event.Ident, values); err != nil {
			return fmt.Errorf("apply cooperation status: %w", err)
		}
	}
	return nil
}
