package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
	apperrors "github.com/pct1089547896/games-marketplace-sub000/pkg/errors"
	pkgkafka "github.com/pct1089547896/games-marketplace-sub000/pkg/kafka"
)

// Inbound event types published by the catalog service.
const (
	TypeDownloadRecorded = "download.recorded"
	TypeCatalogDeleted   = "catalog.deleted"
)

// ConsumerGroupID is the default consumer group of this service.
const ConsumerGroupID = "engagement-service"

// CatalogSync applies inbound catalog events.
type CatalogSync interface {
	RecordDownload(ctx context.Context, ev *domain.DownloadEvent) error
	PurgeContent(ctx context.Context, ref domain.ContentRef) error
}

type downloadRecordedData struct {
	ContentID    string             `json:"content_id"`
	ContentType  domain.ContentType `json:"content_type"`
	UserID       *string            `json:"user_id,omitempty"`
	DownloadedAt time.Time          `json:"downloaded_at"`
}

type catalogDeletedData struct {
	ContentID   string             `json:"content_id"`
	ContentType domain.ContentType `json:"content_type"`
}

// ConsumerHandler routes inbound envelopes to the catalog sync service.
type ConsumerHandler struct {
	sync   CatalogSync
	logger *slog.Logger
}

func NewConsumerHandler(sync CatalogSync, logger *slog.Logger) *ConsumerHandler {
	return &ConsumerHandler{sync: sync, logger: logger}
}

// Handle dispatches on event type. Unknown types and payloads that can never
// be applied are logged and acknowledged; store failures are returned so the
// consumer retries and eventually dead-letters them.
func (h *ConsumerHandler) Handle(ctx context.Context, event *pkgkafka.Event) error {
	var err error
	switch event.EventType {
	case TypeDownloadRecorded:
		err = h.handleDownloadRecorded(ctx, event)
	case TypeCatalogDeleted:
		err = h.handleCatalogDeleted(ctx, event)
	default:
		h.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	if err != nil && errors.Is(err, apperrors.ErrInvalidInput) {
		h.logger.WarnContext(ctx, "discarding unusable event",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return err
}

func (h *ConsumerHandler) handleDownloadRecorded(ctx context.Context, event *pkgkafka.Event) error {
	var data downloadRecordedData
	if err := event.UnmarshalData(&data); err != nil {
		return apperrors.InvalidInput(err.Error())
	}

	at := data.DownloadedAt
	if at.IsZero() {
		at = event.Timestamp
	}
	ev := &domain.DownloadEvent{
		ID:          event.EventID,
		ContentID:   data.ContentID,
		ContentType: data.ContentType,
		UserID:      data.UserID,
		CreatedAt:   at.UTC(),
	}
	if err := h.sync.RecordDownload(ctx, ev); err != nil {
		return fmt.Errorf("handle %s: %w", event.EventType, err)
	}
	return nil
}

func (h *ConsumerHandler) handleCatalogDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data catalogDeletedData
	if err := event.UnmarshalData(&data); err != nil {
		return apperrors.InvalidInput(err.Error())
	}

	ref := domain.ContentRef{ContentID: data.ContentID, ContentType: data.ContentType}
	if err := h.sync.PurgeContent(ctx, ref); err != nil {
		return fmt.Errorf("handle %s: %w", event.EventType, err)
	}
	return nil
}

// ConsumerOptions configures the inbound consumers.
type ConsumerOptions struct {
	Brokers    []string
	GroupID    string
	MaxRetries int
	RetryWait  time.Duration
}

// NewConsumers builds one consumer per inbound topic. handler is usually
// Handle wrapped in pkgkafka.IdempotentHandler.
func NewConsumers(opts ConsumerOptions, handler pkgkafka.Handler, dlq *pkgkafka.DLQProducer, logger *slog.Logger) []*pkgkafka.Consumer {
	topics := []string{TopicFor(TypeDownloadRecorded), TopicFor(TypeCatalogDeleted)}
	groupID := opts.GroupID
	if groupID == "" {
		groupID = ConsumerGroupID
	}

	consumers := make([]*pkgkafka.Consumer, 0, len(topics))
	for _, topic := range topics {
		consumers = append(consumers, pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:    opts.Brokers,
			GroupID:    groupID,
			Topic:      topic,
			MaxRetries: opts.MaxRetries,
			RetryWait:  opts.RetryWait,
		}, handler, dlq, logger))
	}
	return consumers
}
