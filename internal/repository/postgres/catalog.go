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

const catalogColumns = `id, title, slug, category, tags, average_rating, total_ratings, download_count, created_at, updated_at`

// CatalogRepository reads and maintains the games and programs tables.
type CatalogRepository struct {
	pool database.DBTX
}

func NewCatalogRepository(pool database.DBTX) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) GetItem(ctx context.Context, ref domain.ContentRef) (_ *domain.CatalogItem, err error) {
	table, ok := catalogTable(ref.ContentType)
	if !ok {
		return nil, apperrors.NotFound(string(ref.ContentType), ref.ContentID)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, catalogColumns, table)
	ctx, end := database.TraceQuery(ctx, "GetCatalogItem", query)
	defer func() { end(err) }()

	item, err := scanCatalogItem(r.pool.QueryRow(ctx, query, ref.ContentID), ref.ContentType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(string(ref.ContentType), ref.ContentID)
		}
		return nil, fmt.Errorf("get %s: %w", ref.ContentType, err)
	}
	return item, nil
}

// UpdateAggregates writes the rating aggregate. An item that no longer exists
// is left alone; there is nothing to cache on it.
func (r *CatalogRepository) UpdateAggregates(ctx context.Context, ref domain.ContentRef, agg domain.RatingAggregate) (err error) {
	table, ok := catalogTable(ref.ContentType)
	if !ok {
		return apperrors.InvalidInput(fmt.Sprintf("content type %q has no rating aggregate", ref.ContentType))
	}

	query := fmt.Sprintf(`
		UPDATE %s SET average_rating = $2, total_ratings = $3, updated_at = NOW()
		WHERE id = $1`, table)
	ctx, end := database.TraceQuery(ctx, "UpdateRatingAggregate", query)
	defer func() { end(err) }()

	if _, err = r.pool.Exec(ctx, query, ref.ContentID, agg.AverageRating, agg.TotalRatings); err != nil {
		return fmt.Errorf("update %s aggregate: %w", ref.ContentType, err)
	}
	return nil
}

func (r *CatalogRepository) ListRelatedCandidates(ctx context.Context, contentType domain.ContentType, category, excludeID string, limit int) (_ []domain.CatalogItem, err error) {
	table, ok := catalogTable(contentType)
	if !ok {
		return []domain.CatalogItem{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE category = $1 AND id <> $2
		ORDER BY download_count DESC, id ASC
		LIMIT $3`, catalogColumns, table)
	ctx, end := database.TraceQuery(ctx, "ListRelatedCandidates", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, category, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list related %s: %w", contentType, err)
	}
	defer rows.Close()

	items := []domain.CatalogItem{}
	for rows.Next() {
		item, err := scanCatalogItem(rows, contentType)
		if err != nil {
			return nil, fmt.Errorf("scan %s row: %w", contentType, err)
		}
		items = append(items, *item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", contentType, err)
	}
	return items, nil
}

func (r *CatalogRepository) UpdateDownloadCount(ctx context.Context, ref domain.ContentRef, count int64) (err error) {
	table, ok := catalogTable(ref.ContentType)
	if !ok {
		return apperrors.InvalidInput(fmt.Sprintf("content type %q has no download count", ref.ContentType))
	}

	query := fmt.Sprintf(`UPDATE %s SET download_count = $2, updated_at = NOW() WHERE id = $1`, table)
	ctx, end := database.TraceQuery(ctx, "UpdateDownloadCount", query)
	defer func() { end(err) }()

	if _, err = r.pool.Exec(ctx, query, ref.ContentID, count); err != nil {
		return fmt.Errorf("update %s download count: %w", ref.ContentType, err)
	}
	return nil
}

func scanCatalogItem(row rowScanner, ct domain.ContentType) (*domain.CatalogItem, error) {
	item := domain.CatalogItem{ContentType: ct}
	if err := row.Scan(
		&item.ID,
		&item.Title,
		&item.Slug,
		&item.Category,
		&item.Tags,
		&item.AverageRating,
		&item.TotalRatings,
		&item.DownloadCount,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if item.Tags == nil {
		item.Tags = []string{}
	}
	return &item, nil
}
