package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
	apperrors "github.com/pct1089547896/games-marketplace-sub000/pkg/errors"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/pagination"
)

func TestRecordDownload_DeduplicatesByEventID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, id := range []string{"evt-1", "evt-2", "evt-1", "evt-3"} {
		require.NoError(t, f.sync.RecordDownload(ctx, &domain.DownloadEvent{
			ID: id, ContentID: gameG.ContentID, ContentType: gameG.ContentType, CreatedAt: f.clock.now(),
		}))
	}
	assert.Equal(t, int64(3), f.item(t, gameG).DownloadCount)
}

func TestRecordDownload_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.sync.RecordDownload(ctx, &domain.DownloadEvent{ContentID: "g", ContentType: domain.ContentTypeGame})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	err = f.sync.RecordDownload(ctx, &domain.DownloadEvent{ID: "e", ContentID: "b", ContentType: domain.ContentTypeBlogPost})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestPurgeContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.submit(t, "u1", gameG, 5)
	f.approve(t, r.ID)
	_, err := f.votes.Vote(ctx, r.ID, "u2", true)
	require.NoError(t, err)
	_, err = f.favorites.ToggleFavorite(ctx, "u1", gameG, domain.FavoriteAdd)
	require.NoError(t, err)
	require.NoError(t, f.sync.RecordDownload(ctx, &domain.DownloadEvent{ID: "e1", ContentID: gameG.ContentID, ContentType: gameG.ContentType}))
	keep := f.submit(t, "u1", programP, 4)

	f.ledger.DeleteItem(gameG)
	require.NoError(t, f.sync.PurgeContent(ctx, gameG))

	_, err = f.ledger.Ratings().GetByID(ctx, r.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	n, err := f.ledger.Votes().CountHelpful(ctx, r.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, f.ledger.Favorites().Count())
	downloads, err := f.ledger.Downloads().CountByContent(ctx, gameG)
	require.NoError(t, err)
	assert.Zero(t, downloads)

	queue, err := f.ratings.ListPendingRatings(ctx, pagination.New(1, 10))
	require.NoError(t, err)
	require.Len(t, queue.Data, 1)
	assert.Equal(t, keep.ID, queue.Data[0].ID)
}
