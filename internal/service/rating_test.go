package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
	"github.com/pct1089547896/games-marketplace-sub000/internal/repository"
	apperrors "github.com/pct1089547896/games-marketplace-sub000/pkg/errors"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/pagination"
)

// --- SubmitRating ---

func TestSubmitRating_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input SubmitRatingInput
		kind  error
	}{
		{"anonymous", SubmitRatingInput{ContentID: "game-g", ContentType: domain.ContentTypeGame, Score: 4}, apperrors.ErrUnauthorized},
		{"score too low", SubmitRatingInput{UserID: "u1", ContentID: "game-g", ContentType: domain.ContentTypeGame, Score: 0}, apperrors.ErrInvalidInput},
		{"score too high", SubmitRatingInput{UserID: "u1", ContentID: "game-g", ContentType: domain.ContentTypeGame, Score: 6}, apperrors.ErrInvalidInput},
		{"not rateable", SubmitRatingInput{UserID: "u1", ContentID: "post-1", ContentType: domain.ContentTypeBlogPost, Score: 4}, apperrors.ErrInvalidInput},
		{"missing content id", SubmitRatingInput{UserID: "u1", ContentType: domain.ContentTypeGame, Score: 4}, apperrors.ErrInvalidInput},
		{"review too long", SubmitRatingInput{UserID: "u1", ContentID: "game-g", ContentType: domain.ContentTypeGame, Score: 4, ReviewText: strings.Repeat("a", domain.MaxReviewTextLength+1)}, apperrors.ErrInvalidInput},
		{"unknown item", SubmitRatingInput{UserID: "u1", ContentID: "game-404", ContentType: domain.ContentTypeGame, Score: 4}, apperrors.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ratings.SubmitRating(ctx, &tt.input)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestSubmitRating_FreshSubmissionDoesNotMoveAggregate(t *testing.T) {
	f := newFixture(t)

	r := f.submit(t, "u1", gameG, 5)
	assert.False(t, r.IsApproved)
	assert.NotEmpty(t, r.ID)

	item := f.item(t, gameG)
	assert.Equal(t, 0.0, item.AverageRating)
	assert.Equal(t, 0, item.TotalRatings)
	assert.Equal(t, []string{"rating.submitted"}, f.events.published())
}

func TestSubmitRating_ResubmissionOverwrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.submit(t, "u1", gameG, 2)
	second, err := f.ratings.SubmitRating(ctx, &SubmitRatingInput{
		UserID: "u1", ContentID: gameG.ContentID, ContentType: gameG.ContentType, Score: 4, ReviewText: "  grew on me  ",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 4, second.Score)
	require.NotNil(t, second.ReviewText)
	assert.Equal(t, "grew on me", *second.ReviewText)

	queue, err := f.ratings.ListPendingRatings(ctx, pagination.New(1, 20))
	require.NoError(t, err)
	assert.Equal(t, 1, queue.TotalCount)
}

func TestSubmitRating_EditingApprovedRatingLeavesAggregate(t *testing.T) {
	f := newFixture(t)

	r := f.submit(t, "u1", gameG, 5)
	agg := f.approve(t, r.ID)
	assert.Equal(t, domain.RatingAggregate{AverageRating: 5, TotalRatings: 1}, agg)

	edited := f.submit(t, "u1", gameG, 1)
	assert.False(t, edited.IsApproved)

	item := f.item(t, gameG)
	assert.Equal(t, 0.0, item.AverageRating)
	assert.Equal(t, 0, item.TotalRatings)
}

// --- Scenario G ---

func TestScenario_ApprovalMovesAggregate(t *testing.T) {
	f := newFixture(t)

	r1 := f.submit(t, "user1", gameG, 5)
	f.approve(t, r1.ID)
	r2 := f.submit(t, "user2", gameG, 1)

	item := f.item(t, gameG)
	assert.Equal(t, 5.0, item.AverageRating)
	assert.Equal(t, 1, item.TotalRatings)

	agg := f.approve(t, r2.ID)
	assert.Equal(t, 3.0, agg.AverageRating)
	assert.Equal(t, 2, agg.TotalRatings)

	item = f.item(t, gameG)
	assert.Equal(t, 3.0, item.AverageRating)
	assert.Equal(t, 2, item.TotalRatings)
}

func TestSetApproval_ApproveThenRejectRestores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, score := range []int{4, 5, 3} {
		r := f.submit(t, "seed-"+string(rune('a'+i)), gameG, score)
		f.approve(t, r.ID)
	}
	before := *f.item(t, gameG)

	r := f.submit(t, "late", gameG, 1)
	f.approve(t, r.ID)
	assert.NotEqual(t, before.AverageRating, f.item(t, gameG).AverageRating)

	_, agg, err := f.ratings.SetApproval(ctx, r.ID, false)
	require.NoError(t, err)
	assert.Equal(t, before.AverageRating, agg.AverageRating)
	assert.Equal(t, before.TotalRatings, agg.TotalRatings)
}

func TestSetApproval_Redundant(t *testing.T) {
	f := newFixture(t)
	r := f.submit(t, "u1", gameG, 4)

	first := f.approve(t, r.ID)
	second := f.approve(t, r.ID)
	assert.Equal(t, first, second)
}

func TestSetApproval_NotFound(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.ratings.SetApproval(context.Background(), "nope", true)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// Aggregate always equals the approved mean after any sequence.
func TestAggregateMatchesApprovedSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	scores := map[string]int{"a": 5, "b": 4, "c": 4, "d": 2, "e": 1}
	ids := map[string]string{}
	for user, s := range scores {
		ids[user] = f.submit(t, user, gameG, s).ID
	}

	steps := []struct {
		user    string
		approve bool
	}{
		{"a", true}, {"b", true}, {"c", true}, {"d", true}, {"b", false}, {"e", true}, {"a", false}, {"b", true},
	}
	approved := map[string]bool{}
	for _, st := range steps {
		_, agg, err := f.ratings.SetApproval(ctx, ids[st.user], st.approve)
		require.NoError(t, err)
		approved[st.user] = st.approve

		var set []int
		for u, ok := range approved {
			if ok {
				set = append(set, scores[u])
			}
		}
		assert.Equal(t, domain.ComputeRatingAggregate(set), agg)
	}
}

// --- Delete ---

func TestDeleteRating_Recomputes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r1 := f.submit(t, "u1", gameG, 5)
	r2 := f.submit(t, "u2", gameG, 2)
	f.approve(t, r1.ID)
	f.approve(t, r2.ID)

	require.NoError(t, f.ratings.DeleteRating(ctx, r2.ID))
	item := f.item(t, gameG)
	assert.Equal(t, 5.0, item.AverageRating)
	assert.Equal(t, 1, item.TotalRatings)

	assert.ErrorIs(t, f.ratings.DeleteRating(ctx, r2.ID), apperrors.ErrNotFound)
}

func TestBulkDeleteRatings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g1 := f.submit(t, "u1", gameG, 5)
	g2 := f.submit(t, "u2", gameG, 3)
	p1 := f.submit(t, "u1", programP, 4)
	for _, id := range []string{g1.ID, g2.ID, p1.ID} {
		f.approve(t, id)
	}

	n, err := f.ratings.BulkDeleteRatings(ctx, []string{g2.ID, p1.ID, p1.ID, "missing"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, 5.0, f.item(t, gameG).AverageRating)
	assert.Equal(t, 1, f.item(t, gameG).TotalRatings)
	assert.Equal(t, 0, f.item(t, programP).TotalRatings)
}

func TestBulkDeleteRatings_Limits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ratings.BulkDeleteRatings(ctx, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = f.ratings.BulkDeleteRatings(ctx, make([]string, MaxBulkDelete+1))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- Reads ---

func TestListReviews_ApprovedOnlyNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	old := f.submit(t, "u1", gameG, 5)
	f.submit(t, "u2", gameG, 1)
	recent := f.submit(t, "u3", gameG, 4)
	f.approve(t, old.ID)
	f.approve(t, recent.ID)

	res, err := f.ratings.ListReviews(ctx, gameG, pagination.New(1, 10))
	require.NoError(t, err)
	require.Len(t, res.Reviews.Data, 2)
	assert.Equal(t, recent.ID, res.Reviews.Data[0].ID)
	assert.Equal(t, old.ID, res.Reviews.Data[1].ID)
	assert.Equal(t, 4.5, res.Summary.AverageRating)
	assert.Equal(t, 2, res.Summary.TotalRatings)
}

func TestGetMyRating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ratings.GetMyRating(ctx, "u1", gameG)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	mine := f.submit(t, "u1", gameG, 3)
	got, err := f.ratings.GetMyRating(ctx, "u1", gameG)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)

	_, err = f.ratings.GetMyRating(ctx, "", gameG)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

// --- Store failures ---

type failingCatalog struct {
	repository.CatalogRepository
	err error
}

func (f failingCatalog) UpdateAggregates(context.Context, domain.ContentRef, domain.RatingAggregate) error {
	return f.err
}

func TestSetApproval_RecomputeFailureIsStoreError(t *testing.T) {
	f := newFixture(t)
	r := f.submit(t, "u1", gameG, 5)

	broken := failingCatalog{CatalogRepository: f.ledger.Catalog(), err: errors.New("connection reset")}
	rc := NewRecomputer(broken, f.ledger.Ratings(), f.ledger.Votes(), newTestLogger())
	svc := NewRatingService(f.ledger.Ratings(), broken, rc, f.events, newTestLogger())

	_, _, err := svc.SetApproval(context.Background(), r.ID, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStore)
	assert.Equal(t, 503, apperrors.HTTPStatus(err))

	// The flag write is not rolled back.
	stored, err := f.ledger.Ratings().GetByID(context.Background(), r.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsApproved)
}

// --- Event publishing ---

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) RatingSubmitted(ctx context.Context, r *domain.Rating) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockEvents) RatingModerated(ctx context.Context, r *domain.Rating) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockEvents) AggregateUpdated(ctx context.Context, ref domain.ContentRef, agg domain.RatingAggregate) error {
	return m.Called(ctx, ref, agg).Error(0)
}

func (m *mockEvents) FavoriteToggled(ctx context.Context, userID string, ref domain.ContentRef, res domain.FavoriteResult) error {
	return m.Called(ctx, userID, ref, res).Error(0)
}

func (m *mockEvents) ReportFiled(ctx context.Context, r *domain.ContentReport) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockEvents) ReportStatusChanged(ctx context.Context, r *domain.ContentReport, from domain.ReportStatus) error {
	return m.Called(ctx, r, from).Error(0)
}

func TestSetApproval_PublishFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	r := f.submit(t, "u1", gameG, 4)

	events := new(mockEvents)
	events.On("RatingModerated", mock.Anything, mock.AnythingOfType("*domain.Rating")).Return(errors.New("broker down"))
	events.On("AggregateUpdated", mock.Anything, gameG, domain.RatingAggregate{AverageRating: 4, TotalRatings: 1}).Return(errors.New("broker down"))

	svc := NewRatingService(f.ledger.Ratings(), f.ledger.Catalog(), f.recompute, events, newTestLogger())
	_, agg, err := svc.SetApproval(context.Background(), r.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, agg.TotalRatings)
	events.AssertExpectations(t)
}
