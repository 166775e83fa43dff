package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
	"github.com/pct1089547896/games-marketplace-sub000/internal/repository"
	apperrors "github.com/pct1089547896/games-marketplace-sub000/pkg/errors"
)

// VoteService manages helpfulness votes on approved reviews.
type VoteService struct {
	ratings   repository.RatingRepository
	votes     repository.VoteRepository
	recompute *Recomputer
	logger    *slog.Logger
	now       func() time.Time
}

func NewVoteService(ratings repository.RatingRepository, votes repository.VoteRepository, recompute *Recomputer, logger *slog.Logger) *VoteService {
	return &VoteService{
		ratings:   ratings,
		votes:     votes,
		recompute: recompute,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Vote records the caller's verdict on a review and returns the review's
// helpfulness count. Repeating the same verdict changes nothing.
func (s *VoteService) Vote(ctx context.Context, reviewID, userID string, isHelpful bool) (int, error) {
	if userID == "" {
		return 0, apperrors.Unauthorized("sign in to vote on reviews")
	}
	if reviewID == "" {
		return 0, apperrors.InvalidInput("review id is required")
	}

	review, err := s.ratings.GetByID(ctx, reviewID)
	if err != nil {
		return 0, storeErr("vote", err)
	}
	if !review.IsApproved {
		return 0, apperrors.NotFound("review", reviewID)
	}

	vote := &domain.HelpfulnessVote{
		ID:        uuid.New().String(),
		ReviewID:  reviewID,
		UserID:    userID,
		IsHelpful: isHelpful,
		UpdatedAt: s.now(),
	}
	changed, err := s.votes.Upsert(ctx, vote)
	if err != nil {
		return 0, storeErr("vote", err)
	}
	if !changed {
		return review.HelpfulnessCount, nil
	}

	count, err := s.recompute.Helpfulness(ctx, reviewID)
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "helpfulness vote recorded",
		slog.String("review_id", reviewID),
		slog.String("user_id", userID),
		slog.Bool("is_helpful", isHelpful),
		slog.Int("helpfulness_count", count),
	)
	return count, nil
}

// RetractVote removes the caller's vote if there is one and returns the
// review's helpfulness count.
func (s *VoteService) RetractVote(ctx context.Context, reviewID, userID string) (int, error) {
	if userID == "" {
		return 0, apperrors.Unauthorized("sign in to vote on reviews")
	}
	if reviewID == "" {
		return 0, apperrors.InvalidInput("review id is required")
	}

	review, err := s.ratings.GetByID(ctx, reviewID)
	if err != nil {
		return 0, storeErr("retract vote", err)
	}

	removed, err := s.votes.Delete(ctx, reviewID, userID)
	if err != nil {
		return 0, storeErr("retract vote", err)
	}
	if removed == nil {
		return review.HelpfulnessCount, nil
	}

	count, err := s.recompute.Helpfulness(ctx, reviewID)
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "helpfulness vote retracted",
		slog.String("review_id", reviewID),
		slog.String("user_id", userID),
		slog.Int("helpfulness_count", count),
	)
	return count, nil
}

// GetMyVote returns the caller's vote on a review, or nil. Unknown reviews
// are a NotFoundError.
func (s *VoteService) GetMyVote(ctx context.Context, reviewID, userID string) (*domain.HelpfulnessVote, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("sign in to see your vote")
	}
	if reviewID == "" {
		return nil, apperrors.InvalidInput("review id is required")
	}
	if _, err := s.ratings.GetByID(ctx, reviewID); err != nil {
		return nil, storeErr("get vote", err)
	}

	vote, err := s.votes.Get(ctx, reviewID, userID)
	if err != nil {
		return nil, storeErr("get vote", err)
	}
	return vote, nil
}
