package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/database"
	apperrors "github.com/pct1089547896/games-marketplace-sub000/pkg/errors"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/pagination"
)

const ratingColumns = `id, user_id, content_id, content_type, score, review_text, is_approved, helpfulness_count, created_at, updated_at`

// RatingRepository implements rating persistence using PostgreSQL.
type RatingRepository struct {
	pool database.DBTX
}

func NewRatingRepository(pool database.DBTX) *RatingRepository {
	return &RatingRepository{pool: pool}
}

// Upsert inserts or overwrites the user's rating for an item. The prev CTE
// reads the row as it was before the statement so the caller learns whether
// an approved rating just left the aggregate.
func (r *RatingRepository) Upsert(ctx context.Context, rating *domain.Rating) (wasApproved bool, err error) {
	query := `
		WITH prev AS (
			SELECT is_approved FROM ratings
			WHERE user_id = $2 AND content_id = $3 AND content_type = $4
		)
		INSERT INTO ratings (id, user_id, content_id, content_type, score, review_text, is_approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $7)
		ON CONFLICT (user_id, content_id, content_type) DO UPDATE
		SET score = EXCLUDED.score,
		    review_text = EXCLUDED.review_text,
		    is_approved = FALSE,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, helpfulness_count, created_at, updated_at,
		          COALESCE((SELECT is_approved FROM prev), FALSE)`
	ctx, end := database.TraceQuery(ctx, "UpsertRating", query)
	defer func() { end(err) }()

	err = r.pool.QueryRow(ctx, query,
		rating.ID,
		rating.UserID,
		rating.ContentID,
		string(rating.ContentType),
		rating.Score,
		rating.ReviewText,
		rating.UpdatedAt,
	).Scan(&rating.ID, &rating.HelpfulnessCount, &rating.CreatedAt, &rating.UpdatedAt, &wasApproved)
	if err != nil {
		return false, fmt.Errorf("upsert rating: %w", err)
	}
	rating.IsApproved = false
	return wasApproved, nil
}

func (r *RatingRepository) GetByID(ctx context.Context, id string) (_ *domain.Rating, err error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE id = $1`
	ctx, end := database.TraceQuery(ctx, "GetRating", query)
	defer func() { end(err) }()

	rating, err := scanRating(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("rating", id)
		}
		return nil, fmt.Errorf("get rating: %w", err)
	}
	return rating, nil
}

// GetByUser returns the user's rating for an item, or a NotFound error.
func (r *RatingRepository) GetByUser(ctx context.Context, userID string, ref domain.ContentRef) (_ *domain.Rating, err error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE user_id = $1 AND content_id = $2 AND content_type = $3`
	ctx, end := database.TraceQuery(ctx, "GetUserRating", query)
	defer func() { end(err) }()

	rating, err := scanRating(r.pool.QueryRow(ctx, query, userID, ref.ContentID, string(ref.ContentType)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("rating", ref.ContentID)
		}
		return nil, fmt.Errorf("get user rating: %w", err)
	}
	return rating, nil
}

func (r *RatingRepository) SetApproval(ctx context.Context, id string, approved bool, now time.Time) (_ *domain.Rating, err error) {
	query := `UPDATE ratings SET is_approved = $2, updated_at = $3 WHERE id = $1 RETURNING ` + ratingColumns
	ctx, end := database.TraceQuery(ctx, "SetRatingApproval", query)
	defer func() { end(err) }()

	rating, err := scanRating(r.pool.QueryRow(ctx, query, id, approved, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("rating", id)
		}
		return nil, fmt.Errorf("set rating approval: %w", err)
	}
	return rating, nil
}

func (r *RatingRepository) Delete(ctx context.Context, id string) (_ *domain.Rating, err error) {
	query := `DELETE FROM ratings WHERE id = $1 RETURNING ` + ratingColumns
	ctx, end := database.TraceQuery(ctx, "DeleteRating", query)
	defer func() { end(err) }()

	rating, err := scanRating(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("rating", id)
		}
		return nil, fmt.Errorf("delete rating: %w", err)
	}
	return rating, nil
}

func (r *RatingRepository) DeleteMany(ctx context.Context, ids []string) (_ []domain.Rating, err error) {
	query := `DELETE FROM ratings WHERE id = ANY($1) RETURNING ` + ratingColumns
	ctx, end := database.TraceQuery(ctx, "DeleteRatings", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("delete ratings: %w", err)
	}
	defer rows.Close()
	return collectRatings(rows)
}

func (r *RatingRepository) ListApprovedScores(ctx context.Context, ref domain.ContentRef) (_ []int, err error) {
	query := `SELECT score FROM ratings WHERE content_id = $1 AND content_type = $2 AND is_approved`
	ctx, end := database.TraceQuery(ctx, "ListApprovedScores", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, ref.ContentID, string(ref.ContentType))
	if err != nil {
		return nil, fmt.Errorf("list approved scores: %w", err)
	}
	defer rows.Close()

	scores := []int{}
	for rows.Next() {
		var s int
		if err = rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		scores = append(scores, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}
	return scores, nil
}

func (r *RatingRepository) ListApproved(ctx context.Context, ref domain.ContentRef, page pagination.Params) (_ []domain.Rating, _ int, err error) {
	query := `
		SELECT ` + ratingColumns + `, count(*) OVER() AS total_count
		FROM ratings
		WHERE content_id = $1 AND content_type = $2 AND is_approved
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`
	ctx, end := database.TraceQuery(ctx, "ListApprovedRatings", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, ref.ContentID, string(ref.ContentType), page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list approved ratings: %w", err)
	}
	defer rows.Close()
	return collectCountedRatings(rows)
}

func (r *RatingRepository) ListPending(ctx context.Context, page pagination.Params) (_ []domain.Rating, _ int, err error) {
	query := `
		SELECT ` + ratingColumns + `, count(*) OVER() AS total_count
		FROM ratings
		WHERE NOT is_approved
		ORDER BY created_at ASC, id
		LIMIT $1 OFFSET $2`
	ctx, end := database.TraceQuery(ctx, "ListPendingRatings", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list pending ratings: %w", err)
	}
	defer rows.Close()
	return collectCountedRatings(rows)
}

func (r *RatingRepository) SetHelpfulnessCount(ctx context.Context, id string, count int) (err error) {
	query := `UPDATE ratings SET helpfulness_count = $2 WHERE id = $1`
	ctx, end := database.TraceQuery(ctx, "SetHelpfulnessCount", query)
	defer func() { end(err) }()

	if _, err = r.pool.Exec(ctx, query, id, count); err != nil {
		return fmt.Errorf("set helpfulness count: %w", err)
	}
	return nil
}

func (r *RatingRepository) DeleteByContent(ctx context.Context, ref domain.ContentRef) (_ int64, err error) {
	query := `DELETE FROM ratings WHERE content_id = $1 AND content_type = $2`
	ctx, end := database.TraceQuery(ctx, "DeleteRatingsByContent", query)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, query, ref.ContentID, string(ref.ContentType))
	if err != nil {
		return 0, fmt.Errorf("delete ratings by content: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanRating(row rowScanner, extra ...any) (*domain.Rating, error) {
	var (
		rt          domain.Rating
		contentType string
	)
	dest := []any{
		&rt.ID,
		&rt.UserID,
		&rt.ContentID,
		&contentType,
		&rt.Score,
		&rt.ReviewText,
		&rt.IsApproved,
		&rt.HelpfulnessCount,
		&rt.CreatedAt,
		&rt.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	rt.ContentType = domain.ContentType(contentType)
	return &rt, nil
}

func collectRatings(rows pgx.Rows) ([]domain.Rating, error) {
	ratings := []domain.Rating{}
	for rows.Next() {
		rt, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rating row: %w", err)
		}
		ratings = append(ratings, *rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rating rows: %w", err)
	}
	return ratings, nil
}

func collectCountedRatings(rows pgx.Rows) ([]domain.Rating, int, error) {
	var total int
	ratings := []domain.Rating{}
	for rows.Next() {
		rt, err := scanRating(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan rating row: %w", err)
		}
		ratings = append(ratings, *rt)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate rating rows: %w", err)
	}
	return ratings, total, nil
}
