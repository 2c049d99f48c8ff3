// Package consumers holds one batch handler per upstream topic. Each handler
// decodes its topic's payload into a typed event at the boundary, validates
// it, and applies it through the merge engine scoped to the single field
// group the topic owns. Malformed records are logged, counted and skipped;
// merge failures abort the batch so offsets never advance past unapplied
// events.
package consumers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"syfooversiktsrv/internal/kafka"
	"syfooversiktsrv/internal/personstatus/models"
)

// StatusWriter is the merge engine surface consumers write through.
type StatusWriter interface {
	UpsertFieldGroup(ctx context.Context, ident string, values models.FieldValues) error
}

// Upstream topics, one field group each.
const (
	TopicOrgAssignment       = "personstatus.org-assignment"
	TopicFollowUpTask        = "personstatus.follow-up-task"
	TopicDialogMeeting       = "personstatus.dialog-meeting"
	TopicCapacityAssessment  = "personstatus.capacity-assessment"
	TopicCooperation         = "personstatus.cooperation"
	TopicLateFollowUp        = "personstatus.late-follow-up"
	TopicActivityRequirement = "personstatus.activity-requirement"
	TopicFollowUpCase        = "personstatus.follow-up-case"
)

// handler carries the collaborators every topic handler shares.
type handler struct {
	service StatusWriter
	logger  *slog.Logger
	metrics *kafka.Metrics
}

func newHandler(service StatusWriter, logger *slog.Logger, m *kafka.Metrics) handler {
	return handler{service: service, logger: logger, metrics: m}
}

// decode unmarshals one record into a typed event.
func decode[T any](record *kgo.Record) (T, error) {
	var event T
	if err := json.Unmarshal(record.Value, &event); err != nil {
		return event, fmt.Errorf("unmarshal payload: %w", err)
	}
	return event, nil
}

// skipMalformed logs and counts a record rejected at the decode boundary.
func (h handler) skipMalformed(topic string, record *kgo.Record, err error) {
	h.logger.Warn("malformed record skipped",
		"topic", topic, "partition", record.Partition, "offset", record.Offset, "error", err)
	h.metrics.RecordMalformed(topic)
}
