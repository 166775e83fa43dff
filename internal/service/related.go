package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
	"github.com/pct1089547896/games-marketplace-sub000/internal/repository"
	apperrors "github.com/pct1089547896/games-marketplace-sub000/pkg/errors"
)

// RelatedCache stores ranked related-content lists per source item.
type RelatedCache interface {
	Get(ctx context.Context, ref domain.ContentRef, limit int) ([]domain.CatalogItem, bool, error)
	Set(ctx context.Context, ref domain.ContentRef, limit int, items []domain.CatalogItem) error
	Invalidate(ctx context.Context, ref domain.ContentRef) error
}

type nopCache struct{}

func (nopCache) Get(context.Context, domain.ContentRef, int) ([]domain.CatalogItem, bool, error) {
	return nil, false, nil
}

func (nopCache) Set(context.Context, domain.ContentRef, int, []domain.CatalogItem) error {
	return nil
}

func (nopCache) Invalidate(context.Context, domain.ContentRef) error {
	return nil
}

// RelatedQuery describes the source item of a related-content lookup.
type RelatedQuery struct {
	ContentID   string
	ContentType domain.ContentType
	Category    string
	Tags        []string
	Limit       int
}

// RelatedService ranks catalog items related to a source item.
type RelatedService struct {
	catalog repository.CatalogRepository
	cache   RelatedCache
	logger  *slog.Logger
}

// NewRelatedService creates the scorer. A nil cache disables caching.
func NewRelatedService(catalog repository.CatalogRepository, cache RelatedCache, logger *slog.Logger) *RelatedService {
	if cache == nil {
		cache = nopCache{}
	}
	return &RelatedService{catalog: catalog, cache: cache, logger: logger}
}

// RelatedContent fetches up to twice the limit of same-category candidates in
// download order, scores them and returns the best limit items. An empty
// category yields an empty list.
func (s *RelatedService) RelatedContent(ctx context.Context, q RelatedQuery) ([]domain.CatalogItem, error) {
	if !q.ContentType.IsCatalog() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("content type %q has no related content", q.ContentType))
	}
	limit := domain.ClampRelatedLimit(q.Limit)
	if q.Category == "" {
		return []domain.CatalogItem{}, nil
	}

	candidates, err := s.catalog.ListRelatedCandidates(ctx, q.ContentType, q.Category, q.ContentID, 2*limit)
	if err != nil {
		return nil, storeErr("related content", err)
	}

	source := domain.ContentRef{ContentID: q.ContentID, ContentType: q.ContentType}
	ranked := domain.RankRelated(source, q.Tags, candidates, limit)

	items := make([]domain.CatalogItem, len(ranked))
	for i := range ranked {
		items[i] = ranked[i].Item
	}
	return items, nil
}

// RelatedForItem loads the source item and returns its related content,
// served from the cache when possible. Cache failures are logged and
// bypassed.
func (s *RelatedService) RelatedForItem(ctx context.Context, ref domain.ContentRef, limit int) ([]domain.CatalogItem, error) {
	if !ref.ContentType.IsCatalog() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("content type %q has no related content", ref.ContentType))
	}
	limit = domain.ClampRelatedLimit(limit)

	items, hit, err := s.cache.Get(ctx, ref, limit)
	if err != nil {
		s.logger.WarnContext(ctx, "related cache read failed",
			slog.String("content_id", ref.ContentID),
			slog.String("error", err.Error()),
		)
	}
	if hit {
		relatedCacheLookups.WithLabelValues("hit").Inc()
		return items, nil
	}
	relatedCacheLookups.WithLabelValues("miss").Inc()

	source, err := s.catalog.GetItem(ctx, ref)
	if err != nil {
		return nil, storeErr("related content", err)
	}

	items, err = s.RelatedContent(ctx, RelatedQuery{
		ContentID:   source.ID,
		ContentType: source.ContentType,
		Category:    source.Category,
		Tags:        source.Tags,
		Limit:       limit,
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, ref, limit, items); err != nil {
		s.logger.WarnContext(ctx, "related cache write failed",
			slog.String("content_id", ref.ContentID),
			slog.String("error", err.Error()),
		)
	}
	return items, nil
}
