package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
	"github.com/pct1089547896/games-marketplace-sub000/internal/repository"
	apperrors "github.com/pct1089547896/games-marketplace-sub000/pkg/errors"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/pagination"
)

// FavoriteService toggles and lists favorites. Toggles are idempotent.
type FavoriteService struct {
	favorites repository.FavoriteRepository
	catalog   repository.CatalogRepository
	events    EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewFavoriteService(favorites repository.FavoriteRepository, catalog repository.CatalogRepository, events EventPublisher, logger *slog.Logger) *FavoriteService {
	return &FavoriteService{
		favorites: favorites,
		catalog:   catalog,
		events:    events,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func validateFavoriteRef(ref domain.ContentRef) error {
	if !ref.ContentType.IsCatalog() {
		return apperrors.InvalidInput(fmt.Sprintf("content type %q cannot be favorited", ref.ContentType))
	}
	if ref.ContentID == "" {
		return apperrors.InvalidInput("content_id is required")
	}
	return nil
}

// ToggleFavorite drives the favorite to the requested state. Adding an
// existing favorite or removing a missing one succeeds with Changed false.
func (s *FavoriteService) ToggleFavorite(ctx context.Context, userID string, ref domain.ContentRef, action domain.FavoriteAction) (domain.FavoriteResult, error) {
	if userID == "" {
		return domain.FavoriteResult{}, apperrors.Unauthorized("sign in to manage favorites")
	}
	if !action.Valid() {
		return domain.FavoriteResult{}, apperrors.InvalidInput(fmt.Sprintf("action must be %q or %q", domain.FavoriteAdd, domain.FavoriteRemove))
	}
	if err := validateFavoriteRef(ref); err != nil {
		return domain.FavoriteResult{}, err
	}

	var res domain.FavoriteResult
	switch action {
	case domain.FavoriteAdd:
		if _, err := s.catalog.GetItem(ctx, ref); err != nil {
			return domain.FavoriteResult{}, storeErr("add favorite", err)
		}
		created, err := s.favorites.Add(ctx, &domain.Favorite{
			ID:          uuid.New().String(),
			UserID:      userID,
			ContentID:   ref.ContentID,
			ContentType: ref.ContentType,
			CreatedAt:   s.now(),
		})
		if err != nil {
			return domain.FavoriteResult{}, storeErr("add favorite", err)
		}
		res = domain.FavoriteResult{Favorited: true, Changed: created}
	case domain.FavoriteRemove:
		removed, err := s.favorites.Remove(ctx, userID, ref)
		if err != nil {
			return domain.FavoriteResult{}, storeErr("remove favorite", err)
		}
		res = domain.FavoriteResult{Favorited: false, Changed: removed}
	}

	if res.Changed {
		s.logger.InfoContext(ctx, "favorite toggled",
			slog.String("user_id", userID),
			slog.String("content_id", ref.ContentID),
			slog.String("content_type", string(ref.ContentType)),
			slog.Bool("favorited", res.Favorited),
		)
		if err := s.events.FavoriteToggled(ctx, userID, ref, res); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish favorite toggled event",
				slog.String("content_id", ref.ContentID),
				slog.String("error", err.Error()),
			)
		}
	}
	return res, nil
}

func (s *FavoriteService) IsFavorite(ctx context.Context, userID string, ref domain.ContentRef) (bool, error) {
	if userID == "" {
		return false, apperrors.Unauthorized("sign in to manage favorites")
	}
	if err := validateFavoriteRef(ref); err != nil {
		return false, err
	}
	ok, err := s.favorites.Exists(ctx, userID, ref)
	if err != nil {
		return false, storeErr("check favorite", err)
	}
	return ok, nil
}

func (s *FavoriteService) ListFavorites(ctx context.Context, userID string, page pagination.Params) (pagination.Result[domain.Favorite], error) {
	if userID == "" {
		return pagination.Result[domain.Favorite]{}, apperrors.Unauthorized("sign in to manage favorites")
	}
	favs, total, err := s.favorites.ListByUser(ctx, userID, page)
	if err != nil {
		return pagination.Result[domain.Favorite]{}, storeErr("list favorites", err)
	}
	return pagination.NewResult(favs, total, page), nil
}
