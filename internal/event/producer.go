package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
	pkgkafka "github.com/pct1089547896/games-marketplace-sub000/pkg/kafka"
)

// Outbound event types. The topic for each is pkgkafka.Topic(domain, action).
const (
	TypeRatingSubmitted     = "rating.submitted"
	TypeRatingModerated     = "rating.moderated"
	TypeAggregateUpdated    = "content.aggregate_updated"
	TypeFavoriteToggled     = "favorite.toggled"
	TypeReportFiled         = "report.filed"
	TypeReportStatusChanged = "report.status_changed"
)

const (
	aggregateRating  = "rating"
	aggregateContent = "content"
	aggregateReport  = "report"
)

// Source is stamped on every envelope this service publishes.
const Source = "engagement-service"

// Publisher is the part of *pkgkafka.Producer the event producer needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

type RatingData struct {
	RatingID    string             `json:"rating_id"`
	UserID      string             `json:"user_id"`
	ContentID   string             `json:"content_id"`
	ContentType domain.ContentType `json:"content_type"`
	Score       int                `json:"score"`
	IsApproved  bool               `json:"is_approved"`
	HasReview   bool               `json:"has_review"`
}

type AggregateData struct {
	ContentID     string             `json:"content_id"`
	ContentType   domain.ContentType `json:"content_type"`
	AverageRating float64            `json:"average_rating"`
	TotalRatings  int                `json:"total_ratings"`
}

type FavoriteData struct {
	UserID      string             `json:"user_id"`
	ContentID   string             `json:"content_id"`
	ContentType domain.ContentType `json:"content_type"`
	Favorited   bool               `json:"favorited"`
}

type ReportData struct {
	ReportID    string              `json:"report_id"`
	ContentID   string              `json:"content_id"`
	ContentType domain.ContentType  `json:"content_type"`
	ReporterID  string              `json:"reporter_id"`
	Reason      domain.ReportReason `json:"reason"`
	Status      domain.ReportStatus `json:"status"`
	From        domain.ReportStatus `json:"from,omitempty"`
	ResolvedAt  *time.Time          `json:"resolved_at,omitempty"`
	ResolvedBy  *string             `json:"resolved_by,omitempty"`
}

// Producer turns service state changes into Kafka envelopes.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// TopicFor maps an event type such as "rating.submitted" to its topic.
func TopicFor(eventType string) string {
	return pkgkafka.TopicPrefix + "." + eventType
}

func (p *Producer) publish(ctx context.Context, eventType, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(eventType, aggregateID, aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	if err := p.kafka.Publish(ctx, TopicFor(eventType), event); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}
	p.logger.DebugContext(ctx, "published event",
		slog.String("event_type", eventType),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

func ratingData(r *domain.Rating) RatingData {
	return RatingData{
		RatingID:    r.ID,
		UserID:      r.UserID,
		ContentID:   r.ContentID,
		ContentType: r.ContentType,
		Score:       r.Score,
		IsApproved:  r.IsApproved,
		HasReview:   r.ReviewText != nil,
	}
}

func (p *Producer) RatingSubmitted(ctx context.Context, r *domain.Rating) error {
	return p.publish(ctx, TypeRatingSubmitted, r.ID, aggregateRating, ratingData(r))
}

func (p *Producer) RatingModerated(ctx context.Context, r *domain.Rating) error {
	return p.publish(ctx, TypeRatingModerated, r.ID, aggregateRating, ratingData(r))
}

// AggregateUpdated is keyed by content id so updates for one item stay ordered.
func (p *Producer) AggregateUpdated(ctx context.Context, ref domain.ContentRef, agg domain.RatingAggregate) error {
	return p.publish(ctx, TypeAggregateUpdated, ref.ContentID, aggregateContent, AggregateData{
		ContentID:     ref.ContentID,
		ContentType:   ref.ContentType,
		AverageRating: agg.AverageRating,
		TotalRatings:  agg.TotalRatings,
	})
}

func (p *Producer) FavoriteToggled(ctx context.Context, userID string, ref domain.ContentRef, res domain.FavoriteResult) error {
	return p.publish(ctx, TypeFavoriteToggled, ref.ContentID, aggregateContent, FavoriteData{
		UserID:      userID,
		ContentID:   ref.ContentID,
		ContentType: ref.ContentType,
		Favorited:   res.Favorited,
	})
}

func reportData(r *domain.ContentReport) ReportData {
	return ReportData{
		ReportID:    r.ID,
		ContentID:   r.ContentID,
		ContentType: r.ContentType,
		ReporterID:  r.ReporterID,
		Reason:      r.Reason,
		Status:      r.Status,
		ResolvedAt:  r.ResolvedAt,
		ResolvedBy:  r.ResolvedBy,
	}
}

func (p *Producer) ReportFiled(ctx context.Context, r *domain.ContentReport) error {
	return p.publish(ctx, TypeReportFiled, r.ID, aggregateReport, reportData(r))
}

func (p *Producer) ReportStatusChanged(ctx context.Context, r *domain.ContentReport, from domain.ReportStatus) error {
	data := reportData(r)
	data.From = from
	return p.publish(ctx, TypeReportStatusChanged, r.ID, aggregateReport, data)
}

// NopPublisher drops every event. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) RatingSubmitted(context.Context, *domain.Rating) error { return nil }
func (NopPublisher) RatingModerated(context.Context, *domain.Rating) error { return nil }
func (NopPublisher) AggregateUpdated(context.Context, domain.ContentRef, domain.RatingAggregate) error {
	return nil
}
func (NopPublisher) FavoriteToggled(context.Context, string, domain.ContentRef, domain.FavoriteResult) error {
	return nil
}
func (NopPublisher) ReportFiled(context.Context, *domain.ContentReport) error { return nil }
func (NopPublisher) ReportStatusChanged(context.Context, *domain.ContentReport, domain.ReportStatus) error {
	return nil
}
