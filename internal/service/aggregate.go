package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
	"github.com/pct1089547896/games-marketplace-sub000/internal/repository"
)

const (
	kindRatingAggregate = "rating_aggregate"
	kindHelpfulness     = "helpfulness"
)

// Recomputer rebuilds derived fields from the ledger. Every call reads the
// current rows after the caller's write, so concurrent recomputes converge
// on the last writer's view.
type Recomputer struct {
	catalog repository.CatalogRepository
	ratings repository.RatingRepository
	votes   repository.VoteRepository
	logger  *slog.Logger
}

func NewRecomputer(catalog repository.CatalogRepository, ratings repository.RatingRepository, votes repository.VoteRepository, logger *slog.Logger) *Recomputer {
	return &Recomputer{catalog: catalog, ratings: ratings, votes: votes, logger: logger}
}

// RatingAggregate recomputes average_rating and total_ratings for an item
// from its approved ratings.
func (r *Recomputer) RatingAggregate(ctx context.Context, ref domain.ContentRef) (domain.RatingAggregate, error) {
	start := time.Now()
	defer func() { recomputeDuration.WithLabelValues(kindRatingAggregate).Observe(time.Since(start).Seconds()) }()

	scores, err := r.ratings.ListApprovedScores(ctx, ref)
	if err != nil {
		recomputeTotal.WithLabelValues(kindRatingAggregate, "error").Inc()
		return domain.RatingAggregate{}, storeErr("recompute rating aggregate", err)
	}

	agg := domain.ComputeRatingAggregate(scores)
	if err := r.catalog.UpdateAggregates(ctx, ref, agg); err != nil {
		recomputeTotal.WithLabelValues(kindRatingAggregate, "error").Inc()
		return domain.RatingAggregate{}, storeErr("recompute rating aggregate", err)
	}

	recomputeTotal.WithLabelValues(kindRatingAggregate, "ok").Inc()
	r.logger.DebugContext(ctx, "rating aggregate recomputed",
		slog.String("content_id", ref.ContentID),
		slog.String("content_type", string(ref.ContentType)),
		slog.Float64("average_rating", agg.AverageRating),
		slog.Int("total_ratings", agg.TotalRatings),
	)
	return agg, nil
}

// Helpfulness recomputes a review's helpfulness_count from its votes.
func (r *Recomputer) Helpfulness(ctx context.Context, reviewID string) (int, error) {
	start := time.Now()
	defer func() { recomputeDuration.WithLabelValues(kindHelpfulness).Observe(time.Since(start).Seconds()) }()

	n, err := r.votes.CountHelpful(ctx, reviewID)
	if err != nil {
		recomputeTotal.WithLabelValues(kindHelpfulness, "error").Inc()
		return 0, storeErr("recompute helpfulness", err)
	}
	if err := r.ratings.SetHelpfulnessCount(ctx, reviewID, n); err != nil {
		recomputeTotal.WithLabelValues(kindHelpfulness, "error").Inc()
		return 0, storeErr("recompute helpfulness", err)
	}

	recomputeTotal.WithLabelValues(kindHelpfulness, "ok").Inc()
	r.logger.DebugContext(ctx, "helpfulness recomputed",
		slog.String("review_id", reviewID),
		slog.Int("helpfulness_count", n),
	)
	return n, nil
}
