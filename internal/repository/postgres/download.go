package postgres

import (
	"context"
	"fmt"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/database"
)

// DownloadRepository stores the download ledger that backs download_count.
type DownloadRepository struct {
	pool database.DBTX
}

func NewDownloadRepository(pool database.DBTX) *DownloadRepository {
	return &DownloadRepository{pool: pool}
}

// Record inserts the event keyed by its id; a redelivered event is ignored.
func (r *DownloadRepository) Record(ctx context.Context, ev *domain.DownloadEvent) (created bool, err error) {
	query := `
		INSERT INTO download_events (id, content_id, content_type, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`
	ctx, end := database.TraceQuery(ctx, "RecordDownload", query)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, query, ev.ID, ev.ContentID, string(ev.ContentType), ev.UserID, ev.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("record download: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *DownloadRepository) CountByContent(ctx context.Context, ref domain.ContentRef) (_ int64, err error) {
	query := `SELECT COUNT(*) FROM download_events WHERE content_id = $1 AND content_type = $2`
	ctx, end := database.TraceQuery(ctx, "CountDownloads", query)
	defer func() { end(err) }()

	var n int64
	if err = r.pool.QueryRow(ctx, query, ref.ContentID, string(ref.ContentType)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count downloads: %w", err)
	}
	return n, nil
}

func (r *DownloadRepository) DeleteByContent(ctx context.Context, ref domain.ContentRef) (_ int64, err error) {
	query := `DELETE FROM download_events WHERE content_id = $1 AND content_type = $2`
	ctx, end := database.TraceQuery(ctx, "DeleteDownloadsByContent", query)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, query, ref.ContentID, string(ref.ContentType))
	if err != nil {
		return 0, fmt.Errorf("delete downloads by content: %w", err)
	}
	return tag.RowsAffected(), nil
}
