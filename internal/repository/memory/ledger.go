// Package memory is an in-process implementation of the repository
// interfaces. It keeps the same observable semantics as the PostgreSQL
// repositories and backs service and handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
	"github.com/pct1089547896/games-marketplace-sub000/internal/repository"
	apperrors "github.com/pct1089547896/games-marketplace-sub000/pkg/errors"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/pagination"
)

type voteKey struct{ reviewID, userID string }

type ownedRef struct {
	userID string
	ref    domain.ContentRef
}

// Ledger holds every table behind one mutex. Use the typed views to get
// repository implementations.
type Ledger struct {
	mu        sync.Mutex
	items     map[domain.ContentRef]domain.CatalogItem
	ratings   map[string]domain.Rating
	votes     map[voteKey]domain.HelpfulnessVote
	favorites map[ownedRef]domain.Favorite
	reports   map[string]domain.ContentReport
	downloads map[string]domain.DownloadEvent
}

func NewLedger() *Ledger {
	return &Ledger{
		items:     make(map[domain.ContentRef]domain.CatalogItem),
		ratings:   make(map[string]domain.Rating),
		votes:     make(map[voteKey]domain.HelpfulnessVote),
		favorites: make(map[ownedRef]domain.Favorite),
		reports:   make(map[string]domain.ContentReport),
		downloads: make(map[string]domain.DownloadEvent),
	}
}

// PutItem inserts or replaces a catalog row.
func (l *Ledger) PutItem(item domain.CatalogItem) {
	l.mu.Lock()
	defer l.mu.Unlock()
	item.Tags = append([]string{}, item.Tags...)
	l.items[item.Ref()] = item
}

// DeleteItem removes a catalog row, as the catalog service would.
func (l *Ledger) DeleteItem(ref domain.ContentRef) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.items, ref)
}

func (l *Ledger) Catalog() *Catalog     { return &Catalog{l} }
func (l *Ledger) Ratings() *Ratings     { return &Ratings{l} }
func (l *Ledger) Votes() *Votes         { return &Votes{l} }
func (l *Ledger) Favorites() *Favorites { return &Favorites{l} }
func (l *Ledger) Reports() *Reports     { return &Reports{l} }
func (l *Ledger) Downloads() *Downloads { return &Downloads{l} }

var (
	_ repository.CatalogRepository  = (*Catalog)(nil)
	_ repository.RatingRepository   = (*Ratings)(nil)
	_ repository.VoteRepository     = (*Votes)(nil)
	_ repository.FavoriteRepository = (*Favorites)(nil)
	_ repository.ReportRepository   = (*Reports)(nil)
	_ repository.DownloadRepository = (*Downloads)(nil)
)

func paginate[T any](all []T, page pagination.Params) []T {
	start := page.Offset()
	if start >= len(all) {
		return []T{}
	}
	end := start + page.PerPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

// --- catalog ---

type Catalog struct{ l *Ledger }

func (c *Catalog) GetItem(_ context.Context, ref domain.ContentRef) (*domain.CatalogItem, error) {
	c.l.mu.Lock()
	defer c.l.mu.Unlock()
	item, ok := c.l.items[ref]
	if !ok {
		return nil, apperrors.NotFound(string(ref.ContentType), ref.ContentID)
	}
	item.Tags = append([]string{}, item.Tags...)
	return &item, nil
}

func (c *Catalog) UpdateAggregates(_ context.Context, ref domain.ContentRef, agg domain.RatingAggregate) error {
	c.l.mu.Lock()
	defer c.l.mu.Unlock()
	if item, ok := c.l.items[ref]; ok {
		item.AverageRating = agg.AverageRating
		item.TotalRatings = agg.TotalRatings
		c.l.items[ref] = item
	}
	return nil
}

func (c *Catalog) ListRelatedCandidates(_ context.Context, contentType domain.ContentType, category, excludeID string, limit int) ([]domain.CatalogItem, error) {
	c.l.mu.Lock()
	defer c.l.mu.Unlock()
	out := []domain.CatalogItem{}
	for ref, item := range c.l.items {
		if ref.ContentType != contentType || item.Category != category || item.ID == excludeID {
			continue
		}
		item.Tags = append([]string{}, item.Tags...)
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DownloadCount != out[j].DownloadCount {
			return out[i].DownloadCount > out[j].DownloadCount
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *Catalog) UpdateDownloadCount(_ context.Context, ref domain.ContentRef, count int64) error {
	c.l.mu.Lock()
	defer c.l.mu.Unlock()
	if item, ok := c.l.items[ref]; ok {
		item.DownloadCount = count
		c.l.items[ref] = item
	}
	return nil
}

// --- ratings ---

type Ratings struct{ l *Ledger }

func (r *Ratings) Upsert(_ context.Context, rating *domain.Rating) (bool, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	for id, existing := range r.l.ratings {
		if existing.UserID == rating.UserID && existing.Ref() == rating.Ref() {
			wasApproved := existing.IsApproved
			existing.Score = rating.Score
			existing.ReviewText = rating.ReviewText
			existing.IsApproved = false
			existing.UpdatedAt = rating.UpdatedAt
			r.l.ratings[id] = existing
			*rating = existing
			return wasApproved, nil
		}
	}
	rating.IsApproved = false
	rating.CreatedAt = rating.UpdatedAt
	r.l.ratings[rating.ID] = *rating
	return false, nil
}

func (r *Ratings) GetByID(_ context.Context, id string) (*domain.Rating, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	rt, ok := r.l.ratings[id]
	if !ok {
		return nil, apperrors.NotFound("rating", id)
	}
	return &rt, nil
}

func (r *Ratings) GetByUser(_ context.Context, userID string, ref domain.ContentRef) (*domain.Rating, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	for _, rt := range r.l.ratings {
		if rt.UserID == userID && rt.Ref() == ref {
			return &rt, nil
		}
	}
	return nil, apperrors.NotFound("rating", ref.ContentID)
}

func (r *Ratings) SetApproval(_ context.Context, id string, approved bool, now time.Time) (*domain.Rating, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	rt, ok := r.l.ratings[id]
	if !ok {
		return nil, apperrors.NotFound("rating", id)
	}
	rt.IsApproved = approved
	rt.UpdatedAt = now
	r.l.ratings[id] = rt
	return &rt, nil
}

func (r *Ratings) Delete(_ context.Context, id string) (*domain.Rating, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	rt, ok := r.l.ratings[id]
	if !ok {
		return nil, apperrors.NotFound("rating", id)
	}
	r.l.removeRating(id)
	return &rt, nil
}

func (r *Ratings) DeleteMany(_ context.Context, ids []string) ([]domain.Rating, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	out := []domain.Rating{}
	for _, id := range ids {
		if rt, ok := r.l.ratings[id]; ok {
			out = append(out, rt)
			r.l.removeRating(id)
		}
	}
	return out, nil
}

// removeRating deletes a rating and its votes. Callers hold mu.
func (l *Ledger) removeRating(id string) {
	delete(l.ratings, id)
	for k := range l.votes {
		if k.reviewID == id {
			delete(l.votes, k)
		}
	}
}

func (r *Ratings) ListApprovedScores(_ context.Context, ref domain.ContentRef) ([]int, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	scores := []int{}
	for _, rt := range r.l.ratings {
		if rt.IsApproved && rt.Ref() == ref {
			scores = append(scores, rt.Score)
		}
	}
	return scores, nil
}

func (r *Ratings) filter(keep func(domain.Rating) bool, newestFirst bool) []domain.Rating {
	out := []domain.Rating{}
	for _, rt := range r.l.ratings {
		if keep(rt) {
			out = append(out, rt)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt) == newestFirst
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Ratings) ListApproved(_ context.Context, ref domain.ContentRef, page pagination.Params) ([]domain.Rating, int, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	all := r.filter(func(rt domain.Rating) bool { return rt.IsApproved && rt.Ref() == ref }, true)
	return paginate(all, page), len(all), nil
}

func (r *Ratings) ListPending(_ context.Context, page pagination.Params) ([]domain.Rating, int, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	all := r.filter(func(rt domain.Rating) bool { return !rt.IsApproved }, false)
	return paginate(all, page), len(all), nil
}

func (r *Ratings) SetHelpfulnessCount(_ context.Context, id string, count int) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	if rt, ok := r.l.ratings[id]; ok {
		rt.HelpfulnessCount = count
		r.l.ratings[id] = rt
	}
	return nil
}

func (r *Ratings) DeleteByContent(_ context.Context, ref domain.ContentRef) (int64, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	var n int64
	for id, rt := range r.l.ratings {
		if rt.Ref() == ref {
			r.l.removeRating(id)
			n++
		}
	}
	return n, nil
}

// --- votes ---

type Votes struct{ l *Ledger }

func (v *Votes) Upsert(_ context.Context, vote *domain.HelpfulnessVote) (bool, error) {
	v.l.mu.Lock()
	defer v.l.mu.Unlock()
	if _, ok := v.l.ratings[vote.ReviewID]; !ok {
		return false, apperrors.NotFound("review", vote.ReviewID)
	}
	k := voteKey{vote.ReviewID, vote.UserID}
	existing, ok := v.l.votes[k]
	if ok {
		if existing.IsHelpful == vote.IsHelpful {
			return false, nil
		}
		existing.IsHelpful = vote.IsHelpful
		existing.UpdatedAt = vote.UpdatedAt
		v.l.votes[k] = existing
		vote.ID = existing.ID
		return true, nil
	}
	vote.CreatedAt = vote.UpdatedAt
	v.l.votes[k] = *vote
	return true, nil
}

func (v *Votes) Delete(_ context.Context, reviewID, userID string) (*domain.HelpfulnessVote, error) {
	v.l.mu.Lock()
	defer v.l.mu.Unlock()
	k := voteKey{reviewID, userID}
	existing, ok := v.l.votes[k]
	if !ok {
		return nil, nil
	}
	delete(v.l.votes, k)
	return &existing, nil
}

func (v *Votes) Get(_ context.Context, reviewID, userID string) (*domain.HelpfulnessVote, error) {
	v.l.mu.Lock()
	defer v.l.mu.Unlock()
	existing, ok := v.l.votes[voteKey{reviewID, userID}]
	if !ok {
		return nil, nil
	}
	return &existing, nil
}

func (v *Votes) CountHelpful(_ context.Context, reviewID string) (int, error) {
	v.l.mu.Lock()
	defer v.l.mu.Unlock()
	n := 0
	for k, vote := range v.l.votes {
		if k.reviewID == reviewID && vote.IsHelpful {
			n++
		}
	}
	return n, nil
}

// --- favorites ---

type Favorites struct{ l *Ledger }

func (f *Favorites) Add(_ context.Context, fav *domain.Favorite) (bool, error) {
	f.l.mu.Lock()
	defer f.l.mu.Unlock()
	k := ownedRef{fav.UserID, domain.ContentRef{ContentID: fav.ContentID, ContentType: fav.ContentType}}
	if _, ok := f.l.favorites[k]; ok {
		return false, nil
	}
	f.l.favorites[k] = *fav
	return true, nil
}

func (f *Favorites) Remove(_ context.Context, userID string, ref domain.ContentRef) (bool, error) {
	f.l.mu.Lock()
	defer f.l.mu.Unlock()
	k := ownedRef{userID, ref}
	if _, ok := f.l.favorites[k]; !ok {
		return false, nil
	}
	delete(f.l.favorites, k)
	return true, nil
}

func (f *Favorites) Exists(_ context.Context, userID string, ref domain.ContentRef) (bool, error) {
	f.l.mu.Lock()
	defer f.l.mu.Unlock()
	_, ok := f.l.favorites[ownedRef{userID, ref}]
	return ok, nil
}

func (f *Favorites) ListByUser(_ context.Context, userID string, page pagination.Params) ([]domain.Favorite, int, error) {
	f.l.mu.Lock()
	defer f.l.mu.Unlock()
	all := []domain.Favorite{}
	for k, fav := range f.l.favorites {
		if k.userID == userID {
			all = append(all, fav)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return paginate(all, page), len(all), nil
}

func (f *Favorites) DeleteByContent(_ context.Context, ref domain.ContentRef) (int64, error) {
	f.l.mu.Lock()
	defer f.l.mu.Unlock()
	var n int64
	for k := range f.l.favorites {
		if k.ref == ref {
			delete(f.l.favorites, k)
			n++
		}
	}
	return n, nil
}

// Count returns the number of stored favorites. Tests use it to check
// idempotency at the row level.
func (f *Favorites) Count() int {
	f.l.mu.Lock()
	defer f.l.mu.Unlock()
	return len(f.l.favorites)
}

// --- reports ---

type Reports struct{ l *Ledger }

func (r *Reports) Create(_ context.Context, report *domain.ContentReport) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	r.l.reports[report.ID] = *report
	return nil
}

func (r *Reports) GetByID(_ context.Context, id string) (*domain.ContentReport, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	rep, ok := r.l.reports[id]
	if !ok {
		return nil, apperrors.NotFound("report", id)
	}
	return &rep, nil
}

func (r *Reports) UpdateStatus(_ context.Context, report *domain.ContentReport, expected domain.ReportStatus) (bool, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	stored, ok := r.l.reports[report.ID]
	if !ok || stored.Status != expected {
		return false, nil
	}
	stored.Status = report.Status
	stored.AdminNotes = report.AdminNotes
	stored.ResolvedAt = report.ResolvedAt
	stored.ResolvedBy = report.ResolvedBy
	stored.UpdatedAt = report.UpdatedAt
	r.l.reports[report.ID] = stored
	return true, nil
}

func (r *Reports) List(_ context.Context, filter repository.ReportFilter, page pagination.Params) ([]domain.ContentReport, int, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	all := []domain.ContentReport{}
	for _, rep := range r.l.reports {
		if filter.Status != nil && rep.Status != *filter.Status {
			continue
		}
		if filter.ContentType != nil && rep.ContentType != *filter.ContentType {
			continue
		}
		all = append(all, rep)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return paginate(all, page), len(all), nil
}

// --- downloads ---

type Downloads struct{ l *Ledger }

func (d *Downloads) Record(_ context.Context, ev *domain.DownloadEvent) (bool, error) {
	d.l.mu.Lock()
	defer d.l.mu.Unlock()
	if _, ok := d.l.downloads[ev.ID]; ok {
		return false, nil
	}
	d.l.downloads[ev.ID] = *ev
	return true, nil
}

func (d *Downloads) CountByContent(_ context.Context, ref domain.ContentRef) (int64, error) {
	d.l.mu.Lock()
	defer d.l.mu.Unlock()
	var n int64
	for _, ev := range d.l.downloads {
		if ev.ContentID == ref.ContentID && ev.ContentType == ref.ContentType {
			n++
		}
	}
	return n, nil
}

func (d *Downloads) DeleteByContent(_ context.Context, ref domain.ContentRef) (int64, error) {
	d.l.mu.Lock()
	defer d.l.mu.Unlock()
	var n int64
	for id, ev := range d.l.downloads {
		if ev.ContentID == ref.ContentID && ev.ContentType == ref.ContentType {
			delete(d.l.downloads, id)
			n++
		}
	}
	return n, nil
}
