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

// followUpTaskEvent signals whether a person currently has an open follow-up task.
type followUpTaskEvent struct {
	Ident     string    `json:"ident"`
	IsActive  bool      `json:"isActive"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FollowUpTaskHandler owns the FollowUpTask field group.
type FollowUpTaskHandler struct {
	handler
}

func NewFollowUpTaskHandler(service StatusWriter, logger *slog.Logger, m *kafka.Metrics) *FollowUpTaskHandler {
	return &FollowUpTaskHandler{handler: newHandler(service, logger, m)}
}

func (h *FollowUpTaskHandler) Topic() string { return TopicFollowUpTask }

func (h *FollowUpTaskHandler) Handle(ctx context.Context, records []*kgo.Record) error {
	for _, record := range records {
		event, err := decode[followUpTaskEvent](record)
		if err == nil && event.Ident == "" {
			err = fmt.Errorf("missing ident")
		}
		if err != nil {
			h.skipMalformed(h.Topic(), record, err)
			continue
		}

		values := models.FollowUpTaskValues{Active: event.IsActive, UpdatedAt: event.UpdatedAt}
		if err := h.service.UpsertFieldGroup(ctx, event.Ident, values); err != nil {
			return fmt.Errorf("apply follow-up task status: %w", err)
		}
	}
	return nil
}
