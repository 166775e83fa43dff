package repository

import (
	"context"
	"time"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/pagination"
)

// CatalogRepository reads game and program rows and writes their derived
// fields. Item lookups return an error wrapping apperrors.ErrNotFound when the
// row does not exist.
type CatalogRepository interface {
	GetItem(ctx context.Context, ref domain.ContentRef) (*domain.CatalogItem, error)

	// UpdateAggregates overwrites average_rating and total_ratings.
	UpdateAggregates(ctx context.Context, ref domain.ContentRef, agg domain.RatingAggregate) error

	// ListRelatedCandidates returns items of contentType in category other
	// than excludeID, ordered by download_count DESC, id ASC.
	ListRelatedCandidates(ctx context.Context, contentType domain.ContentType, category, excludeID string, limit int) ([]domain.CatalogItem, error)

	UpdateDownloadCount(ctx context.Context, ref domain.ContentRef, count int64) error
}

// RatingRepository persists ratings.
type RatingRepository interface {
	// Upsert inserts the rating or overwrites the caller's existing row for
	// the same item, resetting approval. It fills in the stored id and
	// timestamps and reports whether the overwritten row had been approved.
	Upsert(ctx context.Context, rating *domain.Rating) (wasApproved bool, err error)

	GetByID(ctx context.Context, id string) (*domain.Rating, error)

	GetByUser(ctx context.Context, userID string, ref domain.ContentRef) (*domain.Rating, error)

	// SetApproval writes is_approved and returns the updated row.
	SetApproval(ctx context.Context, id string, approved bool, now time.Time) (*domain.Rating, error)

	// Delete removes a rating and returns the removed row.
	Delete(ctx context.Context, id string) (*domain.Rating, error)

	// DeleteMany removes the given ratings and returns the rows that existed.
	DeleteMany(ctx context.Context, ids []string) ([]domain.Rating, error)

	ListApprovedScores(ctx context.Context, ref domain.ContentRef) ([]int, error)

	// ListApproved returns approved ratings of an item, newest first.
	ListApproved(ctx context.Context, ref domain.ContentRef, page pagination.Params) ([]domain.Rating, int, error)

	// ListPending returns unapproved ratings, oldest first.
	ListPending(ctx context.Context, page pagination.Params) ([]domain.Rating, int, error)

	SetHelpfulnessCount(ctx context.Context, id string, count int) error

	// DeleteByContent removes every rating of an item. Votes go with them.
	DeleteByContent(ctx context.Context, ref domain.ContentRef) (int64, error)
}

// VoteRepository persists helpfulness votes.
type VoteRepository interface {
	// Upsert stores the vote and reports whether the stored value changed.
	// Re-casting the same vote is not a change.
	Upsert(ctx context.Context, vote *domain.HelpfulnessVote) (changed bool, err error)

	// Delete removes the user's vote on a review and returns the removed
	// row, or nil when there was none.
	Delete(ctx context.Context, reviewID, userID string) (*domain.HelpfulnessVote, error)

	Get(ctx context.Context, reviewID, userID string) (*domain.HelpfulnessVote, error)

	CountHelpful(ctx context.Context, reviewID string) (int, error)
}

// FavoriteRepository persists favorites.
type FavoriteRepository interface {
	// Add inserts the favorite unless it already exists.
	Add(ctx context.Context, fav *domain.Favorite) (created bool, err error)

	// Remove deletes the favorite if present.
	Remove(ctx context.Context, userID string, ref domain.ContentRef) (removed bool, err error)

	Exists(ctx context.Context, userID string, ref domain.ContentRef) (bool, error)

	// ListByUser returns the user's favorites, newest first.
	ListByUser(ctx context.Context, userID string, page pagination.Params) ([]domain.Favorite, int, error)

	DeleteByContent(ctx context.Context, ref domain.ContentRef) (int64, error)
}

// ReportFilter narrows ListReports. Nil fields match everything.
type ReportFilter struct {
	Status      *domain.ReportStatus
	ContentType *domain.ContentType
}

// ReportRepository persists content reports.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.ContentReport) error

	GetByID(ctx context.Context, id string) (*domain.ContentReport, error)

	// UpdateStatus writes the moderation fields of report only if the stored
	// status still equals expected. It returns false when it lost the race.
	UpdateStatus(ctx context.Context, report *domain.ContentReport, expected domain.ReportStatus) (bool, error)

	// List returns reports newest first.
	List(ctx context.Context, filter ReportFilter, page pagination.Params) ([]domain.ContentReport, int, error)
}

// DownloadRepository persists the download ledger.
type DownloadRepository interface {
	// Record stores the event unless its id was already recorded.
	Record(ctx context.Context, ev *domain.DownloadEvent) (created bool, err error)

	CountByContent(ctx context.Context, ref domain.ContentRef) (int64, error)

	DeleteByContent(ctx context.Context, ref domain.ContentRef) (int64, error)
}
