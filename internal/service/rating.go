package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
	"github.com/pct1089547896/games-marketplace-sub000/internal/repository"
	apperrors "github.com/pct1089547896/games-marketplace-sub000/pkg/errors"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/pagination"
)

// MaxBulkDelete bounds the ids accepted by one bulk delete.
const MaxBulkDelete = 100

// SubmitRatingInput holds the parameters for submitting a rating.
type SubmitRatingInput struct {
	UserID      string
	ContentID   string
	ContentType domain.ContentType
	Score       int
	ReviewText  string
}

// ReviewListResult is one page of approved reviews plus the item's aggregate.
type ReviewListResult struct {
	Reviews pagination.Result[domain.Rating] `json:"reviews"`
	Summary domain.RatingAggregate           `json:"summary"`
}

// RatingService implements the rating lifecycle: submit, moderate, delete.
type RatingService struct {
	ratings   repository.RatingRepository
	catalog   repository.CatalogRepository
	recompute *Recomputer
	events    EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewRatingService(
	ratings repository.RatingRepository,
	catalog repository.CatalogRepository,
	recompute *Recomputer,
	events EventPublisher,
	logger *slog.Logger,
) *RatingService {
	return &RatingService{
		ratings:   ratings,
		catalog:   catalog,
		recompute: recompute,
		events:    events,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func validateCatalogRef(ref domain.ContentRef) error {
	if !ref.ContentType.IsCatalog() {
		return apperrors.InvalidInput(fmt.Sprintf("content type %q cannot be rated", ref.ContentType))
	}
	if strings.TrimSpace(ref.ContentID) == "" {
		return apperrors.InvalidInput("content_id is required")
	}
	return nil
}

// SubmitRating stores the caller's rating for an item, replacing any earlier
// one. The stored rating is always unapproved. If the replaced rating was
// approved the item's aggregate is recomputed, since that score just left
// the approved set.
func (s *RatingService) SubmitRating(ctx context.Context, input *SubmitRatingInput) (*domain.Rating, error) {
	if input.UserID == "" {
		return nil, apperrors.Unauthorized("sign in to rate content")
	}
	ref := domain.ContentRef{ContentID: input.ContentID, ContentType: input.ContentType}
	if err := validateCatalogRef(ref); err != nil {
		return nil, err
	}
	if !domain.ValidScore(input.Score) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("score must be between %d and %d", domain.MinScore, domain.MaxScore))
	}
	var reviewText *string
	if text := strings.TrimSpace(input.ReviewText); text != "" {
		if utf8.RuneCountInString(text) > domain.MaxReviewTextLength {
			return nil, apperrors.InvalidInput(fmt.Sprintf("review_text must be at most %d characters", domain.MaxReviewTextLength))
		}
		reviewText = &text
	}

	if _, err := s.catalog.GetItem(ctx, ref); err != nil {
		return nil, storeErr("submit rating", err)
	}

	rating := &domain.Rating{
		ID:          uuid.New().String(),
		UserID:      input.UserID,
		ContentID:   ref.ContentID,
		ContentType: ref.ContentType,
		Score:       input.Score,
		ReviewText:  reviewText,
		UpdatedAt:   s.now(),
	}

	wasApproved, err := s.ratings.Upsert(ctx, rating)
	if err != nil {
		return nil, storeErr("submit rating", err)
	}

	s.logger.InfoContext(ctx, "rating submitted",
		slog.String("rating_id", rating.ID),
		slog.String("content_id", rating.ContentID),
		slog.String("content_type", string(rating.ContentType)),
		slog.String("user_id", rating.UserID),
		slog.Int("score", rating.Score),
		slog.Bool("replaced_approved", wasApproved),
	)

	if err := s.events.RatingSubmitted(ctx, rating); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish rating submitted event",
			slog.String("rating_id", rating.ID),
			slog.String("error", err.Error()),
		)
	}

	if wasApproved {
		agg, err := s.recompute.RatingAggregate(ctx, ref)
		if err != nil {
			return nil, err
		}
		s.publishAggregate(ctx, ref, agg)
	}

	return rating, nil
}

// SetApproval approves or rejects a rating and recomputes its item.
// Repeating the current state is harmless.
func (s *RatingService) SetApproval(ctx context.Context, ratingID string, approved bool) (*domain.Rating, domain.RatingAggregate, error) {
	if ratingID == "" {
		return nil, domain.RatingAggregate{}, apperrors.InvalidInput("rating id is required")
	}

	rating, err := s.ratings.SetApproval(ctx, ratingID, approved, s.now())
	if err != nil {
		return nil, domain.RatingAggregate{}, storeErr("set rating approval", err)
	}

	agg, err := s.recompute.RatingAggregate(ctx, rating.Ref())
	if err != nil {
		return nil, domain.RatingAggregate{}, err
	}

	s.logger.InfoContext(ctx, "rating moderated",
		slog.String("rating_id", rating.ID),
		slog.Bool("approved", approved),
		slog.Float64("average_rating", agg.AverageRating),
		slog.Int("total_ratings", agg.TotalRatings),
	)

	if err := s.events.RatingModerated(ctx, rating); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish rating moderated event",
			slog.String("rating_id", rating.ID),
			slog.String("error", err.Error()),
		)
	}
	s.publishAggregate(ctx, rating.Ref(), agg)

	return rating, agg, nil
}

// DeleteRating removes a rating and recomputes its item.
func (s *RatingService) DeleteRating(ctx context.Context, ratingID string) error {
	if ratingID == "" {
		return apperrors.InvalidInput("rating id is required")
	}

	rating, err := s.ratings.Delete(ctx, ratingID)
	if err != nil {
		return storeErr("delete rating", err)
	}

	agg, err := s.recompute.RatingAggregate(ctx, rating.Ref())
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "rating deleted",
		slog.String("rating_id", rating.ID),
		slog.String("content_id", rating.ContentID),
	)
	s.publishAggregate(ctx, rating.Ref(), agg)
	return nil
}

// BulkDeleteRatings removes the given ratings and recomputes each affected
// item once. Unknown ids are skipped. It returns the number removed.
func (s *RatingService) BulkDeleteRatings(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, apperrors.InvalidInput("ids must not be empty")
	}
	if len(ids) > MaxBulkDelete {
		return 0, apperrors.InvalidInput(fmt.Sprintf("at most %d ids per request", MaxBulkDelete))
	}

	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			return 0, apperrors.InvalidInput("ids must not contain empty values")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	deleted, err := s.ratings.DeleteMany(ctx, unique)
	if err != nil {
		return 0, storeErr("bulk delete ratings", err)
	}

	var refs []domain.ContentRef
	affected := make(map[domain.ContentRef]struct{})
	for i := range deleted {
		ref := deleted[i].Ref()
		if _, ok := affected[ref]; !ok {
			affected[ref] = struct{}{}
			refs = append(refs, ref)
		}
	}

	for _, ref := range refs {
		agg, err := s.recompute.RatingAggregate(ctx, ref)
		if err != nil {
			return len(deleted), err
		}
		s.publishAggregate(ctx, ref, agg)
	}

	s.logger.InfoContext(ctx, "ratings bulk deleted",
		slog.Int("requested", len(unique)),
		slog.Int("deleted", len(deleted)),
		slog.Int("items_recomputed", len(refs)),
	)
	return len(deleted), nil
}

// ListReviews returns approved reviews of an item, newest first.
func (s *RatingService) ListReviews(ctx context.Context, ref domain.ContentRef, page pagination.Params) (*ReviewListResult, error) {
	if err := validateCatalogRef(ref); err != nil {
		return nil, err
	}

	item, err := s.catalog.GetItem(ctx, ref)
	if err != nil {
		return nil, storeErr("list reviews", err)
	}

	reviews, total, err := s.ratings.ListApproved(ctx, ref, page)
	if err != nil {
		return nil, storeErr("list reviews", err)
	}

	return &ReviewListResult{
		Reviews: pagination.NewResult(reviews, total, page),
		Summary: domain.RatingAggregate{AverageRating: item.AverageRating, TotalRatings: item.TotalRatings},
	}, nil
}

// ListPendingRatings returns the moderation queue, oldest first.
func (s *RatingService) ListPendingRatings(ctx context.Context, page pagination.Params) (pagination.Result[domain.Rating], error) {
	ratings, total, err := s.ratings.ListPending(ctx, page)
	if err != nil {
		return pagination.Result[domain.Rating]{}, storeErr("list pending ratings", err)
	}
	return pagination.NewResult(ratings, total, page), nil
}

// GetMyRating returns the caller's own rating for an item, approved or not.
func (s *RatingService) GetMyRating(ctx context.Context, userID string, ref domain.ContentRef) (*domain.Rating, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("sign in to see your rating")
	}
	if err := validateCatalogRef(ref); err != nil {
		return nil, err
	}
	rating, err := s.ratings.GetByUser(ctx, userID, ref)
	if err != nil {
		return nil, storeErr("get rating", err)
	}
	return rating, nil
}

func (s *RatingService) publishAggregate(ctx context.Context, ref domain.ContentRef, agg domain.RatingAggregate) {
	if err := s.events.AggregateUpdated(ctx, ref, agg); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish aggregate updated event",
			slog.String("content_id", ref.ContentID),
			slog.String("error", err.Error()),
		)
	}
}
