package event

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
	apperrors "github.com/pct1089547896/games-marketplace-sub000/pkg/errors"
	pkgkafka "github.com/pct1089547896/games-marketplace-sub000/pkg/kafka"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mocks ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	args := m.Called(ctx, topic, event)
	return args.Error(0)
}

type mockSync struct {
	mock.Mock
}

func (m *mockSync) RecordDownload(ctx context.Context, ev *domain.DownloadEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *mockSync) PurgeContent(ctx context.Context, ref domain.ContentRef) error {
	return m.Called(ctx, ref).Error(0)
}

func newTestEvent(t *testing.T, eventType string, data any) *pkgkafka.Event {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return &pkgkafka.Event{
		EventID:       "evt-1",
		EventType:     eventType,
		AggregateID:   "game-1",
		AggregateType: "game",
		Version:       1,
		Timestamp:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Source:        "catalog-service",
		Data:          raw,
	}
}

// --- Producer ---

func TestProducer_RatingSubmitted(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, newTestLogger())

	var got *pkgkafka.Event
	pub.On("Publish", mock.Anything, "marketplace.rating.submitted", mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(2).(*pkgkafka.Event) }).
		Return(nil)

	text := "fun"
	err := p.RatingSubmitted(context.Background(), &domain.Rating{
		ID: "r-1", UserID: "u-1", ContentID: "game-1", ContentType: domain.ContentTypeGame,
		Score: 4, ReviewText: &text,
	})
	require.NoError(t, err)
	pub.AssertExpectations(t)

	require.NotNil(t, got)
	assert.Equal(t, TypeRatingSubmitted, got.EventType)
	assert.Equal(t, "r-1", got.AggregateID)
	assert.Equal(t, Source, got.Source)

	var data RatingData
	require.NoError(t, got.UnmarshalData(&data))
	assert.Equal(t, 4, data.Score)
	assert.True(t, data.HasReview)
	assert.False(t, data.IsApproved)
}

func TestProducer_AggregateUpdatedKeyedByContent(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, newTestLogger())

	pub.On("Publish", mock.Anything, "marketplace.content.aggregate_updated", mock.MatchedBy(func(e *pkgkafka.Event) bool {
		var data AggregateData
		return e.AggregateID == "game-1" && e.UnmarshalData(&data) == nil &&
			data.AverageRating == 4.5 && data.TotalRatings == 2
	})).Return(nil)

	ref := domain.ContentRef{ContentID: "game-1", ContentType: domain.ContentTypeGame}
	require.NoError(t, p.AggregateUpdated(context.Background(), ref, domain.RatingAggregate{AverageRating: 4.5, TotalRatings: 2}))
	pub.AssertExpectations(t)
}

func TestProducer_ReportStatusChangedCarriesFrom(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, newTestLogger())

	pub.On("Publish", mock.Anything, "marketplace.report.status_changed", mock.MatchedBy(func(e *pkgkafka.Event) bool {
		var data ReportData
		return e.UnmarshalData(&data) == nil &&
			data.From == domain.ReportPending && data.Status == domain.ReportResolved && data.ResolvedBy != nil
	})).Return(nil)

	admin := "admin-1"
	now := time.Now()
	report := &domain.ContentReport{ID: "rep-1", Status: domain.ReportResolved, ResolvedAt: &now, ResolvedBy: &admin}
	require.NoError(t, p.ReportStatusChanged(context.Background(), report, domain.ReportPending))
	pub.AssertExpectations(t)
}

func TestProducer_PublishError(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, newTestLogger())
	pub.On("Publish", mock.Anything, "marketplace.favorite.toggled", mock.Anything).Return(errors.New("broker down"))

	ref := domain.ContentRef{ContentID: "game-1", ContentType: domain.ContentTypeGame}
	err := p.FavoriteToggled(context.Background(), "u-1", ref, domain.FavoriteResult{Favorited: true, Changed: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish favorite.toggled event")
}

func TestTopicFor(t *testing.T) {
	assert.Equal(t, pkgkafka.Topic("report", "filed"), TopicFor(TypeReportFiled))
	assert.Equal(t, "marketplace.download.recorded", TopicFor(TypeDownloadRecorded))
}

// --- ConsumerHandler ---

func TestHandle_DownloadRecorded(t *testing.T) {
	sync := new(mockSync)
	h := NewConsumerHandler(sync, newTestLogger())

	sync.On("RecordDownload", mock.Anything, mock.MatchedBy(func(ev *domain.DownloadEvent) bool {
		return ev.ID == "evt-1" && ev.ContentID == "game-1" &&
			ev.ContentType == domain.ContentTypeGame &&
			ev.CreatedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	})).Return(nil)

	event := newTestEvent(t, TypeDownloadRecorded, map[string]string{"content_id": "game-1", "content_type": "game"})
	require.NoError(t, h.Handle(context.Background(), event))
	sync.AssertExpectations(t)
}

func TestHandle_CatalogDeleted(t *testing.T) {
	sync := new(mockSync)
	h := NewConsumerHandler(sync, newTestLogger())

	ref := domain.ContentRef{ContentID: "prog-1", ContentType: domain.ContentTypeProgram}
	sync.On("PurgeContent", mock.Anything, ref).Return(nil)

	event := newTestEvent(t, TypeCatalogDeleted, map[string]string{"content_id": "prog-1", "content_type": "program"})
	require.NoError(t, h.Handle(context.Background(), event))
	sync.AssertExpectations(t)
}

func TestHandle_StoreFailureIsReturned(t *testing.T) {
	sync := new(mockSync)
	h := NewConsumerHandler(sync, newTestLogger())
	sync.On("PurgeContent", mock.Anything, mock.Anything).
		Return(apperrors.StoreFailure("purge ratings", errors.New("timeout")))

	event := newTestEvent(t, TypeCatalogDeleted, map[string]string{"content_id": "game-1", "content_type": "game"})
	err := h.Handle(context.Background(), event)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStore)
}

func TestHandle_InvalidPayloadIsAcknowledged(t *testing.T) {
	sync := new(mockSync)
	h := NewConsumerHandler(sync, newTestLogger())
	sync.On("RecordDownload", mock.Anything, mock.Anything).
		Return(apperrors.InvalidInput(`content type "blog_post" has no downloads`))

	event := newTestEvent(t, TypeDownloadRecorded, map[string]string{"content_id": "b-1", "content_type": "blog_post"})
	assert.NoError(t, h.Handle(context.Background(), event))

	bad := newTestEvent(t, TypeCatalogDeleted, nil)
	bad.Data = json.RawMessage(`"not an object"`)
	assert.NoError(t, h.Handle(context.Background(), bad))
	sync.AssertNotCalled(t, "PurgeContent", mock.Anything, mock.Anything)
}

func TestHandle_UnknownType(t *testing.T) {
	sync := new(mockSync)
	h := NewConsumerHandler(sync, newTestLogger())

	assert.NoError(t, h.Handle(context.Background(), newTestEvent(t, "order.created", map[string]string{})))
	sync.AssertExpectations(t)
}
