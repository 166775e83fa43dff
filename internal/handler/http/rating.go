package http

import (
	"log/slog"
	"net/http"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
	"github.com/pct1089547896/games-marketplace-sub000/internal/service"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/httputil"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/middleware"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/pagination"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/validator"
)

// RatingHandler serves rating submission, public review lists and the
// admin moderation queue.
type RatingHandler struct {
	service *service.RatingService
	logger  *slog.Logger
}

func NewRatingHandler(svc *service.RatingService, logger *slog.Logger) *RatingHandler {
	return &RatingHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

type SubmitRatingRequest struct {
	Score      int    `json:"score" validate:"required,gte=1,lte=5"`
	ReviewText string `json:"review_text" validate:"max=5000"`
}

type SetApprovalRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=100,dive,uuid"`
}

// --- Handlers ---

// Submit handles POST /api/v1/content/{type}/{id}/ratings
func (h *RatingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRatingRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	ref := contentRef(r)
	rating, err := h.service.SubmitRating(r.Context(), &service.SubmitRatingInput{
		UserID:      middleware.UserIDFromContext(r.Context()),
		ContentID:   ref.ContentID,
		ContentType: ref.ContentType,
		Score:       req.Score,
		ReviewText:  req.ReviewText,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, rating)
}

// ListReviews handles GET /api/v1/content/{type}/{id}/ratings
func (h *RatingHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.ListReviews(r.Context(), contentRef(r), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

// GetMine handles GET /api/v1/content/{type}/{id}/ratings/me
func (h *RatingHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	rating, err := h.service.GetMyRating(r.Context(), middleware.UserIDFromContext(r.Context()), contentRef(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, rating)
}

// ListPending handles GET /api/v1/admin/ratings/pending
func (h *RatingHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.ListPendingRatings(r.Context(), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

type approvalResponse struct {
	Rating    *domain.Rating         `json:"rating"`
	Aggregate domain.RatingAggregate `json:"aggregate"`
}

// SetApproval handles PUT /api/v1/admin/ratings/{id}/approval
func (h *RatingHandler) SetApproval(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req SetApprovalRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	rating, agg, err := h.service.SetApproval(r.Context(), id, *req.Approved)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, approvalResponse{Rating: rating, Aggregate: agg})
}

// Delete handles DELETE /api/v1/admin/ratings/{id}
func (h *RatingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteRating(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkDelete handles POST /api/v1/admin/ratings/bulk-delete
func (h *RatingHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	n, err := h.service.BulkDeleteRatings(r.Context(), req.IDs)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]int{"deleted": n})
}
