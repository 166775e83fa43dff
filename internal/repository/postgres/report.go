package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
	"github.com/pct1089547896/games-marketplace-sub000/internal/repository"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/database"
	apperrors "github.com/pct1089547896/games-marketplace-sub000/pkg/errors"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/pagination"
)

const reportColumns = `id, content_id, content_type, reporter_id, reason, description, status, admin_notes, resolved_at, resolved_by, created_at, updated_at`

// ReportRepository implements content report persistence using PostgreSQL.
type ReportRepository struct {
	pool database.DBTX
}

func NewReportRepository(pool database.DBTX) *ReportRepository {
	return &ReportRepository{pool: pool}
}

func (r *ReportRepository) Create(ctx context.Context, report *domain.ContentReport) (err error) {
	query := `
		INSERT INTO content_reports (id, content_id, content_type, reporter_id, reason, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	ctx, end := database.TraceQuery(ctx, "CreateReport", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query,
		report.ID,
		report.ContentID,
		string(report.ContentType),
		report.ReporterID,
		string(report.Reason),
		report.Description,
		string(report.Status),
		report.CreatedAt,
		report.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id string) (_ *domain.ContentReport, err error) {
	query := `SELECT ` + reportColumns + ` FROM content_reports WHERE id = $1`
	ctx, end := database.TraceQuery(ctx, "GetReport", query)
	defer func() { end(err) }()

	report, err := scanReport(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("report", id)
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	return report, nil
}

// UpdateStatus is a compare-and-set on status: the row is written only if
// nobody moved it since it was read.
func (r *ReportRepository) UpdateStatus(ctx context.Context, report *domain.ContentReport, expected domain.ReportStatus) (_ bool, err error) {
	query := `
		UPDATE content_reports
		SET status = $3, admin_notes = $4, resolved_at = $5, resolved_by = $6, updated_at = $7
		WHERE id = $1 AND status = $2`
	ctx, end := database.TraceQuery(ctx, "UpdateReportStatus", query)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, query,
		report.ID,
		string(expected),
		string(report.Status),
		report.AdminNotes,
		report.ResolvedAt,
		report.ResolvedBy,
		report.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("update report status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ReportRepository) List(ctx context.Context, filter repository.ReportFilter, page pagination.Params) (_ []domain.ContentReport, _ int, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, string(*filter.Status))
		argIndex++
	}
	if filter.ContentType != nil {
		conditions = append(conditions, fmt.Sprintf("content_type = $%d", argIndex))
		args = append(args, string(*filter.ContentType))
		argIndex++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM content_reports
		%s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`, reportColumns, where, argIndex, argIndex+1)
	args = append(args, page.PerPage, page.Offset())

	ctx, end := database.TraceQuery(ctx, "ListReports", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var total int
	reports := []domain.ContentReport{}
	for rows.Next() {
		rep, err := scanReport(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan report row: %w", err)
		}
		reports = append(reports, *rep)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate report rows: %w", err)
	}
	return reports, total, nil
}

func scanReport(row rowScanner, extra ...any) (*domain.ContentReport, error) {
	var (
		rep                         domain.ContentReport
		contentType, reason, status string
	)
	dest := []any{
		&rep.ID,
		&rep.ContentID,
		&contentType,
		&rep.ReporterID,
		&reason,
		&rep.Description,
		&status,
		&rep.AdminNotes,
		&rep.ResolvedAt,
		&rep.ResolvedBy,
		&rep.CreatedAt,
		&rep.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	rep.ContentType = domain.ContentType(contentType)
	rep.Reason = domain.ReportReason(reason)
	rep.Status = domain.ReportStatus(status)
	return &rep, nil
}
