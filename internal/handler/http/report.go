package http

import (
	"log/slog"
	"net/http"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
	"github.com/pct1089547896/games-marketplace-sub000/internal/repository"
	"github.com/pct1089547896/games-marketplace-sub000/internal/service"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/httputil"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/middleware"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/pagination"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/validator"
)

type ReportHandler struct {
	service *service.ReportService
	logger  *slog.Logger
}

func NewReportHandler(svc *service.ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{service: svc, logger: logger}
}

type FileReportRequest struct {
	ContentID   string `json:"content_id" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"required,oneof=game program blog_post forum_topic forum_reply"`
	Reason      string `json:"reason" validate:"required,oneof=spam inappropriate broken_link malware copyright other"`
	Description string `json:"description" validate:"max=2000"`
}

type ChangeStatusRequest struct {
	Status     string  `json:"status" validate:"required,oneof=pending reviewing resolved dismissed"`
	AdminNotes *string `json:"admin_notes" validate:"omitempty,max=2000"`
}

// File handles POST /api/v1/reports
func (h *ReportHandler) File(w http.ResponseWriter, r *http.Request) {
	var req FileReportRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	report, err := h.service.FileReport(r.Context(), &service.FileReportInput{
		ReporterID:  middleware.UserIDFromContext(r.Context()),
		ContentID:   req.ContentID,
		ContentType: domain.ContentType(req.ContentType),
		Reason:      domain.ReportReason(req.Reason),
		Description: req.Description,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, report)
}

// List handles GET /api/v1/admin/reports?status=&content_type=
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter repository.ReportFilter
	q := r.URL.Query()
	if s := q.Get("status"); s != "" {
		status := domain.ReportStatus(s)
		filter.Status = &status
	}
	if ct := q.Get("content_type"); ct != "" {
		contentType := domain.ContentType(ct)
		filter.ContentType = &contentType
	}

	res, err := h.service.ListReports(r.Context(), filter, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

// Get handles GET /api/v1/admin/reports/{id}
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	report, err := h.service.GetReport(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, report)
}

// ChangeStatus handles PUT /api/v1/admin/reports/{id}/status
func (h *ReportHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req ChangeStatusRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	report, err := h.service.ChangeStatus(r.Context(), &service.ChangeReportStatusInput{
		ReportID: id,
		AdminID:  middleware.UserIDFromContext(r.Context()),
		Status:   domain.ReportStatus(req.Status),
		Notes:    req.AdminNotes,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, report)
}
