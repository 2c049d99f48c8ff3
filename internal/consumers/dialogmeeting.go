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

// dialogMeetingEvent carries the latest dialog-meeting status for a person.
type dialogMeetingEvent struct {
	Ident       string    `json:"ident"`
	Status      string    `json:"status"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// DialogMeetingHandler owns the DialogMeeting field group.
type DialogMeetingHandler struct {
	handler
}

func NewDialogMeetingHandler(service StatusWriter, logger *slog.Logger, m *kafka.Metrics) *DialogMeetingHandler {
	return &DialogMeetingHandler{handler: newHandler(service, logger, m)}
}

func (h *DialogMeetingHandler) Topic() string { return TopicDialogMeeting }

func (h *DialogMeetingHandler) Handle(ctx context.Context, records []*kgo.Record) error {
	for _, record := range records {
		event, err := decode[dialogMeetingEvent](record)
		status := models.DialogMeetingStatus(event.Status)
		if err == nil {
			switch {
			case event.Ident == "":
				err = fmt.Errorf("missing ident")
			case !status.Valid():
				err = fmt.Errorf("unknown dialog-meeting status %q", event.Status)
			}
		}
		if err != nil {
			h.skipMalformed(h.Topic(), record, err)
			continue
		}

		values := models.DialogMeetingValues{Status: status, GeneratedAt: event.GeneratedAt}
		if err := h.service.UpsertFieldGroup(ctx, event.Ident, values); err != nil {
			return fmt.Errorf("apply dialog-meeting status: %w", err)
		}
	}
	return nil
}
