package http

import (
	"log/slog"
	"net/http"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
	"github.com/pct1089547896/games-marketplace-sub000/internal/service"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/httputil"
)

type RelatedHandler struct {
	service *service.RelatedService
	logger  *slog.Logger
}

func NewRelatedHandler(svc *service.RelatedService, logger *slog.Logger) *RelatedHandler {
	return &RelatedHandler{service: svc, logger: logger}
}

// Related handles GET /api/v1/content/{type}/{id}/related?limit=
func (h *RelatedHandler) Related(w http.ResponseWriter, r *http.Request) {
	limit := httputil.QueryInt(r, "limit", domain.DefaultRelatedLimit)
	items, err := h.service.RelatedForItem(r.Context(), contentRef(r), limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, items)
}
