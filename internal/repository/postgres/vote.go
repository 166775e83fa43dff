package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/database"
	apperrors "github.com/pct1089547896/games-marketplace-sub000/pkg/errors"
)

const voteColumns = `id, review_id, user_id, is_helpful, created_at, updated_at`

// VoteRepository implements helpfulness vote persistence using PostgreSQL.
type VoteRepository struct {
	pool database.DBTX
}

func NewVoteRepository(pool database.DBTX) *VoteRepository {
	return &VoteRepository{pool: pool}
}

// Upsert inserts the vote or flips an existing one. The conditional DO UPDATE
// returns no row when the stored value already matches, which is reported as
// unchanged.
func (r *VoteRepository) Upsert(ctx context.Context, vote *domain.HelpfulnessVote) (changed bool, err error) {
	query := `
		INSERT INTO review_helpfulness_votes (id, review_id, user_id, is_helpful, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (review_id, user_id) DO UPDATE
		SET is_helpful = EXCLUDED.is_helpful, updated_at = EXCLUDED.updated_at
		WHERE review_helpfulness_votes.is_helpful IS DISTINCT FROM EXCLUDED.is_helpful
		RETURNING id`
	ctx, end := database.TraceQuery(ctx, "UpsertVote", query)
	defer func() { end(err) }()

	err = r.pool.QueryRow(ctx, query,
		vote.ID, vote.ReviewID, vote.UserID, vote.IsHelpful, vote.UpdatedAt,
	).Scan(&vote.ID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, pgx.ErrNoRows):
		return false, nil
	case isForeignKeyViolation(err):
		return false, apperrors.NotFound("review", vote.ReviewID)
	default:
		return false, fmt.Errorf("upsert vote: %w", err)
	}
}

// Delete removes the user's vote and returns it, or nil when there was none.
func (r *VoteRepository) Delete(ctx context.Context, reviewID, userID string) (_ *domain.HelpfulnessVote, err error) {
	query := `DELETE FROM review_helpfulness_votes WHERE review_id = $1 AND user_id = $2 RETURNING ` + voteColumns
	ctx, end := database.TraceQuery(ctx, "DeleteVote", query)
	defer func() { end(err) }()

	vote, err := scanVote(r.pool.QueryRow(ctx, query, reviewID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("delete vote: %w", err)
	}
	return vote, nil
}

// Get returns the user's vote on a review, or nil when there is none.
func (r *VoteRepository) Get(ctx context.Context, reviewID, userID string) (_ *domain.HelpfulnessVote, err error) {
	query := `SELECT ` + voteColumns + ` FROM review_helpfulness_votes WHERE review_id = $1 AND user_id = $2`
	ctx, end := database.TraceQuery(ctx, "GetVote", query)
	defer func() { end(err) }()

	vote, err := scanVote(r.pool.QueryRow(ctx, query, reviewID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get vote: %w", err)
	}
	return vote, nil
}

func (r *VoteRepository) CountHelpful(ctx context.Context, reviewID string) (_ int, err error) {
	query := `SELECT COUNT(*) FROM review_helpfulness_votes WHERE review_id = $1 AND is_helpful`
	ctx, end := database.TraceQuery(ctx, "CountHelpfulVotes", query)
	defer func() { end(err) }()

	var n int
	if err = r.pool.QueryRow(ctx, query, reviewID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count helpful votes: %w", err)
	}
	return n, nil
}

func scanVote(row rowScanner) (*domain.HelpfulnessVote, error) {
	var v domain.HelpfulnessVote
	if err := row.Scan(&v.ID, &v.ReviewID, &v.UserID, &v.IsHelpful, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}
