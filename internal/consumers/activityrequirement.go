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

// activityRequirementEvent carries the activity-requirement assessment status.
type activityRequirementEvent struct {
	Ident     string    `json:"ident"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ActivityRequirementHandler owns the ActivityRequirement field group.
type ActivityRequirementHandler struct {
	handler
}

func NewActivityRequirementHandler(service StatusWriter, logger *slog.Logger, m *kafka.Metrics) *ActivityRequirementHandler {
	return &ActivityRequirementHandler{handler: newHandler(service, logger, m)}
}

func (h *ActivityRequirementHandler) Topic() string { return TopicActivityRequirement }

func (h *ActivityRequirementHandler) Handle(ctx context.Context, records []*kgo.Record) error {
	for _, record := range records {
		event, err := decode[activityRequirementEvent](record)
		status := models.ActivityRequirementStatus(event.Status)
		if err == nil {
			switch {
			case event.Ident == "":
				err = fmt.Errorf("missing ident")
			case !status.Valid():
				err = fmt.Errorf("unknown activity-requirement status %q", event.Status)
			}
		}
		if err != nil {
			h.skipMalformed(h.Topic(), record, err)
			continue
		}

		values := models.ActivityRequirementValues{Status: status, UpdatedAt: event.UpdatedAt}
		if err := h.service.UpsertFieldGroup(ctx, event.Ident, values); err != nil {
			return fmt.Errorf("apply activity-requirement status: %w", err)
		}
	}
	return nil
}
