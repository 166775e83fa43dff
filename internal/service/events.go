package service

import (
	"context"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
)

// EventPublisher announces state changes to other services. Implementations
// must be safe for concurrent use. Publish failures never fail the
// operation that triggered them; callers only log them.
type EventPublisher interface {
	RatingSubmitted(ctx context.Context, rating *domain.Rating) error
	RatingModerated(ctx context.Context, rating *domain.Rating) error
	AggregateUpdated(ctx context.Context, ref domain.ContentRef, agg domain.RatingAggregate) error
	FavoriteToggled(ctx context.Context, userID string, ref domain.ContentRef, res domain.FavoriteResult) error
	ReportFiled(ctx context.Context, report *domain.ContentReport) error
	ReportStatusChanged(ctx context.Context, report *domain.ContentReport, from domain.ReportStatus) error
}
