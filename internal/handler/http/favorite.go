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

type FavoriteHandler struct {
	service *service.FavoriteService
	logger  *slog.Logger
}

func NewFavoriteHandler(svc *service.FavoriteService, logger *slog.Logger) *FavoriteHandler {
	return &FavoriteHandler{service: svc, logger: logger}
}

type ToggleFavoriteRequest struct {
	Action string `json:"action" validate:"required,oneof=add remove"`
}

// Toggle handles PUT /api/v1/content/{type}/{id}/favorite
func (h *FavoriteHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req ToggleFavoriteRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	res, err := h.service.ToggleFavorite(r.Context(), middleware.UserIDFromContext(r.Context()), contentRef(r), domain.FavoriteAction(req.Action))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

// Status handles GET /api/v1/content/{type}/{id}/favorite
func (h *FavoriteHandler) Status(w http.ResponseWriter, r *http.Request) {
	fav, err := h.service.IsFavorite(r.Context(), middleware.UserIDFromContext(r.Context()), contentRef(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]bool{"favorited": fav})
}

// List handles GET /api/v1/me/favorites
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.ListFavorites(r.Context(), middleware.UserIDFromContext(r.Context()), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}
