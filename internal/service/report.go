package service

import (
	"context"
	"errors"
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

// FileReportInput holds the parameters for filing a content report.
type FileReportInput struct {
	ReporterID  string
	ContentID   string
	ContentType domain.ContentType
	Reason      domain.ReportReason
	Description string
}

// ChangeReportStatusInput holds an admin's moderation decision.
type ChangeReportStatusInput struct {
	ReportID string
	AdminID  string
	Status   domain.ReportStatus
	Notes    *string
}

// ReportService runs the content report moderation workflow.
type ReportService struct {
	reports repository.ReportRepository
	catalog repository.CatalogRepository
	events  EventPublisher
	logger  *slog.Logger
	now     func() time.Time
}

func NewReportService(reports repository.ReportRepository, catalog repository.CatalogRepository, events EventPublisher, logger *slog.Logger) *ReportService {
	return &ReportService{
		reports: reports,
		catalog: catalog,
		events:  events,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func optionalText(field, raw string, max int) (*string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(text) > max {
		return nil, apperrors.InvalidInput(fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return &text, nil
}

// FileReport opens a pending report. Catalog items must exist; other content
// lives in other services and is taken at its word.
func (s *ReportService) FileReport(ctx context.Context, input *FileReportInput) (*domain.ContentReport, error) {
	if input.ReporterID == "" {
		return nil, apperrors.Unauthorized("sign in to report content")
	}
	if !input.ContentType.IsReportable() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("content type %q cannot be reported", input.ContentType))
	}
	if strings.TrimSpace(input.ContentID) == "" {
		return nil, apperrors.InvalidInput("content_id is required")
	}
	if !input.Reason.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown report reason %q", input.Reason))
	}
	description, err := optionalText("description", input.Description, domain.MaxReportDescriptionLength)
	if err != nil {
		return nil, err
	}

	ref := domain.ContentRef{ContentID: input.ContentID, ContentType: input.ContentType}
	if ref.ContentType.IsCatalog() {
		if _, err := s.catalog.GetItem(ctx, ref); err != nil {
			return nil, storeErr("file report", err)
		}
	}

	now := s.now()
	report := &domain.ContentReport{
		ID:          uuid.New().String(),
		ContentID:   ref.ContentID,
		ContentType: ref.ContentType,
		ReporterID:  input.ReporterID,
		Reason:      input.Reason,
		Description: description,
		Status:      domain.ReportPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, storeErr("file report", err)
	}

	s.logger.InfoContext(ctx, "content report filed",
		slog.String("report_id", report.ID),
		slog.String("content_id", report.ContentID),
		slog.String("content_type", string(report.ContentType)),
		slog.String("reason", string(report.Reason)),
	)
	if err := s.events.ReportFiled(ctx, report); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish report filed event",
			slog.String("report_id", report.ID),
			slog.String("error", err.Error()),
		)
	}
	return report, nil
}

// ChangeStatus moves a report through the moderation state machine. The
// write only lands if the report still has the status it was read with.
func (s *ReportService) ChangeStatus(ctx context.Context, input *ChangeReportStatusInput) (*domain.ContentReport, error) {
	if input.AdminID == "" {
		return nil, apperrors.Unauthorized("sign in to moderate reports")
	}
	if !input.Status.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown report status %q", input.Status))
	}
	var notes *string
	if input.Notes != nil {
		text := strings.TrimSpace(*input.Notes)
		if utf8.RuneCountInString(text) > domain.MaxReportDescriptionLength {
			return nil, apperrors.InvalidInput(fmt.Sprintf("admin_notes must be at most %d characters", domain.MaxReportDescriptionLength))
		}
		notes = &text
	}

	report, err := s.reports.GetByID(ctx, input.ReportID)
	if err != nil {
		return nil, storeErr("change report status", err)
	}

	from := report.Status
	if err := report.ApplyStatus(input.Status, input.AdminID, notes, s.now()); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return nil, apperrors.Conflict(fmt.Sprintf("report cannot move from %s to %s", from, input.Status))
		}
		return nil, err
	}

	ok, err := s.reports.UpdateStatus(ctx, report, from)
	if err != nil {
		return nil, storeErr("change report status", err)
	}
	if !ok {
		return nil, apperrors.Conflict("report was changed by someone else, reload and retry")
	}

	s.logger.InfoContext(ctx, "content report status changed",
		slog.String("report_id", report.ID),
		slog.String("from", string(from)),
		slog.String("to", string(report.Status)),
		slog.String("admin_id", input.AdminID),
	)
	if from != report.Status {
		if err := s.events.ReportStatusChanged(ctx, report, from); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish report status event",
				slog.String("report_id", report.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return report, nil
}

func (s *ReportService) GetReport(ctx context.Context, id string) (*domain.ContentReport, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get report", err)
	}
	return report, nil
}

// ListReports returns reports newest first.
func (s *ReportService) ListReports(ctx context.Context, filter repository.ReportFilter, page pagination.Params) (pagination.Result[domain.ContentReport], error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return pagination.Result[domain.ContentReport]{}, apperrors.InvalidInput(fmt.Sprintf("unknown report status %q", *filter.Status))
	}
	if filter.ContentType != nil && !filter.ContentType.IsReportable() {
		return pagination.Result[domain.ContentReport]{}, apperrors.InvalidInput(fmt.Sprintf("unknown content type %q", *filter.ContentType))
	}
	reports, total, err := s.reports.List(ctx, filter, page)
	if err != nil {
		return pagination.Result[domain.ContentReport]{}, storeErr("list reports", err)
	}
	return pagination.NewResult(reports, total, page), nil
}
