package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
	"github.com/pct1089547896/games-marketplace-sub000/internal/repository"
	apperrors "github.com/pct1089547896/games-marketplace-sub000/pkg/errors"
)

// CatalogSyncService applies catalog events from other services: recorded
// downloads and deleted items.
type CatalogSyncService struct {
	catalog   repository.CatalogRepository
	ratings   repository.RatingRepository
	favorites repository.FavoriteRepository
	downloads repository.DownloadRepository
	cache     RelatedCache
	logger    *slog.Logger
}

func NewCatalogSyncService(
	catalog repository.CatalogRepository,
	ratings repository.RatingRepository,
	favorites repository.FavoriteRepository,
	downloads repository.DownloadRepository,
	cache RelatedCache,
	logger *slog.Logger,
) *CatalogSyncService {
	if cache == nil {
		cache = nopCache{}
	}
	return &CatalogSyncService{
		catalog:   catalog,
		ratings:   ratings,
		favorites: favorites,
		downloads: downloads,
		cache:     cache,
		logger:    logger,
	}
}

// RecordDownload stores a download once per event id and recomputes the
// item's download_count from the ledger. The recount runs even for a
// duplicate event so a previously failed recount heals on redelivery.
func (s *CatalogSyncService) RecordDownload(ctx context.Context, ev *domain.DownloadEvent) error {
	if ev.ID == "" {
		return apperrors.InvalidInput("download event id is required")
	}
	if !ev.ContentType.IsCatalog() {
		return apperrors.InvalidInput(fmt.Sprintf("content type %q has no downloads", ev.ContentType))
	}
	if ev.ContentID == "" {
		return apperrors.InvalidInput("content_id is required")
	}

	ref := domain.ContentRef{ContentID: ev.ContentID, ContentType: ev.ContentType}
	created, err := s.downloads.Record(ctx, ev)
	if err != nil {
		return storeErr("record download", err)
	}

	count, err := s.downloads.CountByContent(ctx, ref)
	if err != nil {
		return storeErr("recount downloads", err)
	}
	if err := s.catalog.UpdateDownloadCount(ctx, ref, count); err != nil {
		return storeErr("recount downloads", err)
	}

	s.logger.DebugContext(ctx, "download recorded",
		slog.String("event_id", ev.ID),
		slog.String("content_id", ev.ContentID),
		slog.Bool("duplicate", !created),
		slog.Int64("download_count", count),
	)
	return nil
}

// PurgeContent removes ratings (with their votes), favorites and downloads
// of a deleted catalog item. Reports are kept for audit.
func (s *CatalogSyncService) PurgeContent(ctx context.Context, ref domain.ContentRef) error {
	if !ref.ContentType.IsCatalog() || ref.ContentID == "" {
		return apperrors.InvalidInput("a game or program reference is required")
	}

	ratings, err := s.ratings.DeleteByContent(ctx, ref)
	if err != nil {
		return storeErr("purge ratings", err)
	}
	favorites, err := s.favorites.DeleteByContent(ctx, ref)
	if err != nil {
		return storeErr("purge favorites", err)
	}
	downloads, err := s.downloads.DeleteByContent(ctx, ref)
	if err != nil {
		return storeErr("purge downloads", err)
	}
	if err := s.cache.Invalidate(ctx, ref); err != nil {
		s.logger.WarnContext(ctx, "related cache invalidation failed",
			slog.String("content_id", ref.ContentID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "content purged",
		slog.String("content_id", ref.ContentID),
		slog.String("content_type", string(ref.ContentType)),
		slog.Int64("ratings", ratings),
		slog.Int64("favorites", favorites),
		slog.Int64("downloads", downloads),
	)
	return nil
}
