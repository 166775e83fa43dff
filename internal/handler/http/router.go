package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pct1089547896/games-marketplace-sub000/internal/service"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/health"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/middleware"
)

const serviceName = "engagement"

// RouterDeps carries everything the router mounts.
type RouterDeps struct {
	Ratings   *service.RatingService
	Votes     *service.VoteService
	Favorites *service.FavoriteService
	Reports   *service.ReportService
	Related   *service.RelatedService
	Health    *health.Handler

	Verify        middleware.TokenVerifier
	ReportLimiter *middleware.RateLimiter
	CORS          middleware.CORSConfig
	PprofCIDRs    []string
	// RelatedMaxAge is the public Cache-Control max-age of related lists,
	// in seconds.
	RelatedMaxAge int
	Logger        *slog.Logger
}

// NewRouter creates a chi router with all engagement routes registered.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.CORS(d.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(d.Logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))

	r.Get("/health/live", d.Health.Liveness)
	r.Get("/health/ready", d.Health.Readiness)
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, d.PprofCIDRs, d.Logger)

	ratings := NewRatingHandler(d.Ratings, d.Logger)
	votes := NewVoteHandler(d.Votes, d.Logger)
	favorites := NewFavoriteHandler(d.Favorites, d.Logger)
	reports := NewReportHandler(d.Reports, d.Logger)
	related := NewRelatedHandler(d.Related, d.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Public reads. A token, when sent, must still be valid.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(d.Verify))
			r.Use(middleware.RequestLogger(d.Logger))

			r.Get("/content/{type}/{id}/ratings", ratings.ListReviews)
			r.With(middleware.CacheControl(d.RelatedMaxAge)).
				Get("/content/{type}/{id}/related", related.Related)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(d.Verify))
			r.Use(middleware.RequestLogger(d.Logger))
			r.Use(middleware.NoStore)

			r.Post("/content/{type}/{id}/ratings", ratings.Submit)
			r.Get("/content/{type}/{id}/ratings/me", ratings.GetMine)

			r.Put("/content/{type}/{id}/favorite", favorites.Toggle)
			r.Get("/content/{type}/{id}/favorite", favorites.Status)
			r.Get("/me/favorites", favorites.List)

			r.Put("/reviews/{id}/vote", votes.Vote)
			r.Delete("/reviews/{id}/vote", votes.Retract)
			r.Get("/reviews/{id}/vote", votes.GetMine)

			if d.ReportLimiter != nil {
				r.With(d.ReportLimiter.Middleware).Post("/reports", reports.File)
			} else {
				r.Post("/reports", reports.File)
			}

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(middleware.RoleAdmin))

				r.Get("/ratings/pending", ratings.ListPending)
				r.Put("/ratings/{id}/approval", ratings.SetApproval)
				r.Delete("/ratings/{id}", ratings.Delete)
				r.Post("/ratings/bulk-delete", ratings.BulkDelete)

				r.Get("/reports", reports.List)
				r.Get("/reports/{id}", reports.Get)
				r.Put("/reports/{id}/status", reports.ChangeStatus)
			})
		})
	})

	return r
}
