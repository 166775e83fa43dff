package http

import (
	"log/slog"
	"net/http"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
	"github.com/pct1089547896/games-marketplace-sub000/internal/service"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/httputil"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/middleware"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/validator"
)

type VoteHandler struct {
	service *service.VoteService
	logger  *slog.Logger
}

func NewVoteHandler(svc *service.VoteService, logger *slog.Logger) *VoteHandler {
	return &VoteHandler{service: svc, logger: logger}
}

type VoteRequest struct {
	IsHelpful *bool `json:"is_helpful" validate:"required"`
}

type helpfulnessResponse struct {
	HelpfulnessCount int `json:"helpfulness_count"`
}

// Vote handles PUT /api/v1/reviews/{id}/vote
func (h *VoteHandler) Vote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req VoteRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	count, err := h.service.Vote(r.Context(), id, middleware.UserIDFromContext(r.Context()), *req.IsHelpful)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, helpfulnessResponse{HelpfulnessCount: count})
}

// Retract handles DELETE /api/v1/reviews/{id}/vote
func (h *VoteHandler) Retract(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	count, err := h.service.RetractVote(r.Context(), id, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, helpfulnessResponse{HelpfulnessCount: count})
}

// GetMine handles GET /api/v1/reviews/{id}/vote
func (h *VoteHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	vote, err := h.service.GetMyVote(r.Context(), id, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]*domain.HelpfulnessVote{"vote": vote})
}
