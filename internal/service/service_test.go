package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
	"github.com/pct1089547896/games-marketplace-sub000/internal/repository/memory"
)

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// clock hands out strictly increasing timestamps so ordering is stable.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// recordingEvents remembers which events were published and can be made to
// fail every publish.
type recordingEvents struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (e *recordingEvents) record(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.names = append(e.names, name)
	return e.err
}

func (e *recordingEvents) published() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string{}, e.names...)
}

func (e *recordingEvents) RatingSubmitted(context.Context, *domain.Rating) error {
	return e.record("rating.submitted")
}

func (e *recordingEvents) RatingModerated(context.Context, *domain.Rating) error {
	return e.record("rating.moderated")
}

func (e *recordingEvents) AggregateUpdated(context.Context, domain.ContentRef, domain.RatingAggregate) error {
	return e.record("content.aggregate_updated")
}

func (e *recordingEvents) FavoriteToggled(context.Context, string, domain.ContentRef, domain.FavoriteResult) error {
	return e.record("favorite.toggled")
}

func (e *recordingEvents) ReportFiled(context.Context, *domain.ContentReport) error {
	return e.record("report.filed")
}

func (e *recordingEvents) ReportStatusChanged(context.Context, *domain.ContentReport, domain.ReportStatus) error {
	return e.record("report.status_changed")
}

var (
	gameG    = domain.ContentRef{ContentID: "game-g", ContentType: domain.ContentTypeGame}
	programP = domain.ContentRef{ContentID: "prog-p", ContentType: domain.ContentTypeProgram}
)

type fixture struct {
	ledger    *memory.Ledger
	events    *recordingEvents
	clock     *clock
	recompute *Recomputer
	ratings   *RatingService
	votes     *VoteService
	favorites *FavoriteService
	reports   *ReportService
	related   *RelatedService
	sync      *CatalogSyncService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ledger := memory.NewLedger()
	ledger.PutItem(domain.CatalogItem{ID: gameG.ContentID, ContentType: domain.ContentTypeGame, Title: "Gloomhollow", Slug: "gloomhollow", Category: "rpg", Tags: []string{"dungeon", "co-op"}})
	ledger.PutItem(domain.CatalogItem{ID: programP.ContentID, ContentType: domain.ContentTypeProgram, Title: "Pixel Pad", Slug: "pixel-pad", Category: "graphics"})

	events := &recordingEvents{}
	clk := newClock()
	logger := newTestLogger()
	rc := NewRecomputer(ledger.Catalog(), ledger.Ratings(), ledger.Votes(), logger)

	f := &fixture{
		ledger:    ledger,
		events:    events,
		clock:     clk,
		recompute: rc,
		ratings:   NewRatingService(ledger.Ratings(), ledger.Catalog(), rc, events, logger),
		votes:     NewVoteService(ledger.Ratings(), ledger.Votes(), rc, logger),
		favorites: NewFavoriteService(ledger.Favorites(), ledger.Catalog(), events, logger),
		reports:   NewReportService(ledger.Reports(), ledger.Catalog(), events, logger),
		related:   NewRelatedService(ledger.Catalog(), nil, logger),
		sync:      NewCatalogSyncService(ledger.Catalog(), ledger.Ratings(), ledger.Favorites(), ledger.Downloads(), nil, logger),
	}
	f.ratings.now = clk.now
	f.votes.now = clk.now
	f.favorites.now = clk.now
	f.reports.now = clk.now
	return f
}

func (f *fixture) item(t *testing.T, ref domain.ContentRef) *domain.CatalogItem {
	t.Helper()
	item, err := f.ledger.Catalog().GetItem(context.Background(), ref)
	require.NoError(t, err)
	return item
}

func (f *fixture) submit(t *testing.T, user string, ref domain.ContentRef, score int) *domain.Rating {
	t.Helper()
	r, err := f.ratings.SubmitRating(context.Background(), &SubmitRatingInput{
		UserID: user, ContentID: ref.ContentID, ContentType: ref.ContentType, Score: score,
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) approve(t *testing.T, id string) domain.RatingAggregate {
	t.Helper()
	_, agg, err := f.ratings.SetApproval(context.Background(), id, true)
	require.NoError(t, err)
	return agg
}
