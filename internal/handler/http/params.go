package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/httputil"
)

// contentRef reads {type} and {id}. The services decide which content
// types each operation accepts.
func contentRef(r *http.Request) domain.ContentRef {
	return domain.ContentRef{
		ContentID:   chi.URLParam(r, "id"),
		ContentType: domain.ContentType(chi.URLParam(r, "type")),
	}
}

// idParam reads {id} as a UUID. On failure a 400 has been written.
func idParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return "", false
	}
	return id.String(), true
}
