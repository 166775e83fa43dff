package postgres

import (
	"context"
	"fmt"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/database"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/pagination"
)

// FavoriteRepository implements favorite persistence using PostgreSQL.
type FavoriteRepository struct {
	pool database.DBTX
}

func NewFavoriteRepository(pool database.DBTX) *FavoriteRepository {
	return &FavoriteRepository{pool: pool}
}

// Add inserts a favorite. ON CONFLICT DO NOTHING keeps repeated adds
// idempotent; created is false when the row was already there.
func (r *FavoriteRepository) Add(ctx context.Context, fav *domain.Favorite) (created bool, err error) {
	query := `
		INSERT INTO favorites (id, user_id, content_id, content_type, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, content_id, content_type) DO NOTHING`
	ctx, end := database.TraceQuery(ctx, "AddFavorite", query)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, query, fav.ID, fav.UserID, fav.ContentID, string(fav.ContentType), fav.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("add favorite: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID string, ref domain.ContentRef) (removed bool, err error) {
	query := `DELETE FROM favorites WHERE user_id = $1 AND content_id = $2 AND content_type = $3`
	ctx, end := database.TraceQuery(ctx, "RemoveFavorite", query)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, query, userID, ref.ContentID, string(ref.ContentType))
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID string, ref domain.ContentRef) (_ bool, err error) {
	query := `SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = $1 AND content_id = $2 AND content_type = $3)`
	ctx, end := database.TraceQuery(ctx, "FavoriteExists", query)
	defer func() { end(err) }()

	var exists bool
	if err = r.pool.QueryRow(ctx, query, userID, ref.ContentID, string(ref.ContentType)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return exists, nil
}

func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string, page pagination.Params) (_ []domain.Favorite, _ int, err error) {
	query := `
		SELECT id, user_id, content_id, content_type, created_at, count(*) OVER() AS total_count
		FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`
	ctx, end := database.TraceQuery(ctx, "ListFavorites", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, userID, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var total int
	favs := []domain.Favorite{}
	for rows.Next() {
		var (
			f  domain.Favorite
			ct string
		)
		if err = rows.Scan(&f.ID, &f.UserID, &f.ContentID, &ct, &f.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan favorite row: %w", err)
		}
		f.ContentType = domain.ContentType(ct)
		favs = append(favs, f)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate favorite rows: %w", err)
	}
	return favs, total, nil
}

func (r *FavoriteRepository) DeleteByContent(ctx context.Context, ref domain.ContentRef) (_ int64, err error) {
	query := `DELETE FROM favorites WHERE content_id = $1 AND content_type = $2`
	ctx, end := database.TraceQuery(ctx, "DeleteFavoritesByContent", query)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, query, ref.ContentID, string(ref.ContentType))
	if err != nil {
		return 0, fmt.Errorf("delete favorites by content: %w", err)
	}
	return tag.RowsAffected(), nil
}
