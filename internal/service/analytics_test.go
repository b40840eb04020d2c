package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/linklytics/internal/database"
	"github.com/vadimbarashkov/linklytics/internal/models"
)

type MockClickEventAggregator struct {
	mock.Mock
}

func (a *MockClickEventAggregator) Count(ctx context.Context, scope database.Scope, since time.Time) (int64, error) {
	args := a.Called(ctx, scope, since)
	return args.Get(0).(int64), args.Error(1)
}

func (a *MockClickEventAggregator) CountDistinctIP(ctx context.Context, scope database.Scope, since time.Time) (int64, error) {
	args := a.Called(ctx, scope, since)
	return args.Get(0).(int64), args.Error(1)
}

func (a *MockClickEventAggregator) DailyCounts(ctx context.Context, scope database.Scope, since time.Time) ([]models.DayCount, error) {
	args := a.Called(ctx, scope, since)
	counts, _ := args.Get(0).([]models.DayCount)
	return counts, args.Error(1)
}

func (a *MockClickEventAggregator) CountByDimension(ctx context.Context, scope database.Scope, dim database.Dimension, since time.Time, limit int) ([]models.ValueCount, error) {
	args := a.Called(ctx, scope, dim, since, limit)
	counts, _ := args.Get(0).([]models.ValueCount)
	return counts, args.Error(1)
}

func (a *MockClickEventAggregator) RefererCounts(ctx context.Context, scope database.Scope, since time.Time) ([]models.ValueCount, error) {
	args := a.Called(ctx, scope, since)
	counts, _ := args.Get(0).([]models.ValueCount)
	return counts, args.Error(1)
}

func (a *MockClickEventAggregator) TopLinks(ctx context.Context, ownerID string, k int) ([]models.LinkCount, error) {
	args := a.Called(ctx, ownerID, k)
	counts, _ := args.Get(0).([]models.LinkCount)
	return counts, args.Error(1)
}

func (a *MockClickEventAggregator) ListRecentByLink(ctx context.Context, linkID string, limit int) ([]models.ClickEvent, error) {
	args := a.Called(ctx, linkID, limit)
	events, _ := args.Get(0).([]models.ClickEvent)
	return events, args.Error(1)
}

type MockLinkReader struct {
	mock.Mock
}

func (r *MockLinkReader) GetByID(ctx context.Context, id string) (*models.Link, error) {
	args := r.Called(ctx, id)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

func (r *MockLinkReader) Count(ctx context.Context, ownerID string) (int64, error) {
	args := r.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

func setupAnalyticsService(t *testing.T) (*AnalyticsService, *MockClickEventAggregator, *MockLinkReader) {
	t.Helper()

	eventsMock := new(MockClickEventAggregator)
	linksMock := new(MockLinkReader)
	svc := NewAnalyticsService(eventsMock, linksMock)

	t.Cleanup(func() {
		eventsMock.AssertExpectations(t)
		linksMock.AssertExpectations(t)
	})

	return svc, eventsMock, linksMock
}

func expectOverviewQueries(eventsMock *MockClickEventAggregator, linksMock *MockLinkReader, ownerID string) {
	scope := database.Scope{OwnerID: ownerID}

	linksMock.On("Count", mock.Anything, ownerID).Once().Return(int64(4), nil)
	eventsMock.On("Count", mock.Anything, scope, mock.Anything).Times(3).Return(int64(10), nil)
	eventsMock.On("CountDistinctIP", mock.Anything, scope, mock.Anything).Times(2).Return(int64(6), nil)
	eventsMock.On("TopLinks", mock.Anything, ownerID, overviewTopLinks).Once().Return([]models.LinkCount{}, nil)
}

func TestAnalyticsService_Overview(t *testing.T) {
	t.Run("non-admin filter silently overridden to own id", func(t *testing.T) {
		svc, eventsMock, linksMock := setupAnalyticsService(t)

		expectOverviewQueries(eventsMock, linksMock, "user1")

		ov, err := svc.Overview(context.Background(), owner, "user2")

		assert.NoError(t, err)
		assert.NotNil(t, ov)
	})

	t.Run("admin with no filter scopes globally", func(t *testing.T) {
		svc, eventsMock, linksMock := setupAnalyticsService(t)

		expectOverviewQueries(eventsMock, linksMock, "")

		_, err := svc.Overview(context.Background(), admin, "")

		assert.NoError(t, err)
	})

	t.Run("admin filter narrows to that owner", func(t *testing.T) {
		svc, eventsMock, linksMock := setupAnalyticsService(t)

		expectOverviewQueries(eventsMock, linksMock, "user2")

		_, err := svc.Overview(context.Background(), admin, "user2")

		assert.NoError(t, err)
	})

	t.Run("avg clicks per link", func(t *testing.T) {
		svc, eventsMock, linksMock := setupAnalyticsService(t)

		expectOverviewQueries(eventsMock, linksMock, "user1")

		ov, err := svc.Overview(context.Background(), owner, "")

		assert.NoError(t, err)
		assert.Equal(t, int64(4), ov.LinkCount)
		assert.Equal(t, int64(10), ov.TotalClicks)
		assert.Equal(t, int64(3), ov.AvgClicksPerLink)
	})
}

func TestClampWindowDays(t *testing.T) {
	tests := []struct {
		name string
		days int
		want int
	}{
		{"zero falls back to default", 0, DefaultWindowDays},
		{"negative falls back to default", -5, DefaultWindowDays},
		{"in range kept", 7, 7},
		{"max boundary kept", 180, 180},
		{"oversized clamped", 9999, MaxWindowDays},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampWindowDays(tt.days))
		})
	}
}

func TestAnalyticsService_LinkStats(t *testing.T) {
	link := &models.Link{ID: "link1", Slug: "my-link", OwnerID: "user1"}

	expectStatsQueries := func(eventsMock *MockClickEventAggregator) {
		scope := database.Scope{LinkID: "link1"}

		eventsMock.On("Count", mock.Anything, scope, mock.Anything).Times(3).Return(int64(5), nil)
		eventsMock.On("CountDistinctIP", mock.Anything, scope, mock.Anything).Once().Return(int64(3), nil)
		eventsMock.On("DailyCounts", mock.Anything, scope, mock.Anything).Once().Return([]models.DayCount{}, nil)
		eventsMock.On("CountByDimension", mock.Anything, scope, mock.Anything, mock.Anything, groupingLimit).
			Times(4).Return([]models.ValueCount{}, nil)
		eventsMock.On("RefererCounts", mock.Anything, scope, mock.Anything).Once().Return([]models.ValueCount{}, nil)
		eventsMock.On("ListRecentByLink", mock.Anything, "link1", recentStatsLimit).Once().Return([]models.ClickEvent{}, nil)
	}

	t.Run("link not found", func(t *testing.T) {
		svc, _, linksMock := setupAnalyticsService(t)

		linksMock.
			On("GetByID", mock.Anything, "link1").
			Once().
			Return(nil, database.ErrLinkNotFound)

		stats, err := svc.LinkStats(context.Background(), owner, "link1", 30)

		assert.ErrorIs(t, err, database.ErrLinkNotFound)
		assert.Nil(t, stats)
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		svc, _, linksMock := setupAnalyticsService(t)

		linksMock.
			On("GetByID", mock.Anything, "link1").
			Once().
			Return(link, nil)

		stats, err := svc.LinkStats(context.Background(), other, "link1", 30)

		assert.ErrorIs(t, err, ErrForbidden)
		assert.Nil(t, stats)
	})

	t.Run("window clamped", func(t *testing.T) {
		svc, eventsMock, linksMock := setupAnalyticsService(t)

		linksMock.On("GetByID", mock.Anything, "link1").Once().Return(link, nil)
		expectStatsQueries(eventsMock)

		stats, err := svc.LinkStats(context.Background(), owner, "link1", 9999)

		assert.NoError(t, err)
		assert.Equal(t, MaxWindowDays, stats.WindowDays)
	})

	t.Run("grouped counts pass through sorted", func(t *testing.T) {
		svc, eventsMock, linksMock := setupAnalyticsService(t)
		scope := database.Scope{LinkID: "link1"}

		linksMock.On("GetByID", mock.Anything, "link1").Once().Return(link, nil)

		eventsMock.On("Count", mock.Anything, scope, mock.Anything).Times(3).Return(int64(4), nil)
		eventsMock.On("CountDistinctIP", mock.Anything, scope, mock.Anything).Once().Return(int64(3), nil)
		eventsMock.On("DailyCounts", mock.Anything, scope, mock.Anything).Once().Return([]models.DayCount{}, nil)
		eventsMock.On("CountByDimension", mock.Anything, scope, database.DimCountry, mock.Anything, groupingLimit).
			Once().
			Return([]models.ValueCount{{Value: "MY", Count: 2}, {Value: "SG", Count: 1}, {Value: "Unknown", Count: 1}}, nil)
		eventsMock.On("CountByDimension", mock.Anything, scope, mock.Anything, mock.Anything, groupingLimit).
			Times(3).Return([]models.ValueCount{}, nil)
		eventsMock.On("RefererCounts", mock.Anything, scope, mock.Anything).Once().Return([]models.ValueCount{}, nil)
		eventsMock.On("ListRecentByLink", mock.Anything, "link1", recentStatsLimit).Once().Return([]models.ClickEvent{}, nil)

		stats, err := svc.LinkStats(context.Background(), owner, "link1", 30)

		assert.NoError(t, err)
		assert.Equal(t, []models.ValueCount{
			{Value: "MY", Count: 2},
			{Value: "SG", Count: 1},
			{Value: "Unknown", Count: 1},
		}, stats.Countries)
	})
}

func TestNormalizeReferers(t *testing.T) {
	t.Run("hostname extraction", func(t *testing.T) {
		out := NormalizeReferers([]models.ValueCount{
			{Value: "https://t.co/abc?ref=1", Count: 3},
		})

		assert.Equal(t, []models.ValueCount{{Value: "t.co", Count: 3}}, out)
	})

	t.Run("absent referer labeled Direct / None", func(t *testing.T) {
		out := NormalizeReferers([]models.ValueCount{
			{Value: "", Count: 2},
		})

		assert.Equal(t, []models.ValueCount{{Value: DirectRefererLabel, Count: 2}}, out)
	})

	t.Run("unparseable referer keeps raw value", func(t *testing.T) {
		out := NormalizeReferers([]models.ValueCount{
			{Value: "not a url", Count: 1},
		})

		assert.Equal(t, []models.ValueCount{{Value: "not a url", Count: 1}}, out)
	})

	t.Run("same host merged across raw values, sorted descending", func(t *testing.T) {
		out := NormalizeReferers([]models.ValueCount{
			{Value: "https://twitter.com/a", Count: 2},
			{Value: "https://twitter.com/b?x=1", Count: 2},
			{Value: "https://news.ycombinator.com/item", Count: 3},
			{Value: "", Count: 1},
		})

		assert.Equal(t, []models.ValueCount{
			{Value: "twitter.com", Count: 4},
			{Value: "news.ycombinator.com", Count: 3},
			{Value: DirectRefererLabel, Count: 1},
		}, out)
	})
}

func TestTopValueCounts(t *testing.T) {
	t.Run("short grouping passes through", func(t *testing.T) {
		counts := []models.ValueCount{{Value: "t.co", Count: 3}}

		assert.Equal(t, counts, topValueCounts(counts, groupingLimit))
	})

	t.Run("merged referer hosts truncated to the grouping limit", func(t *testing.T) {
		raw := make([]models.ValueCount, 0, groupingLimit+5)
		for i := 0; i < groupingLimit+5; i++ {
			raw = append(raw, models.ValueCount{
				Value: fmt.Sprintf("https://host-%02d.example.com/path", i),
				Count: int64(groupingLimit + 5 - i),
			})
		}

		out := topValueCounts(NormalizeReferers(raw), groupingLimit)

		assert.Len(t, out, groupingLimit)
		assert.Equal(t, models.ValueCount{Value: "host-00.example.com", Count: int64(groupingLimit + 5)}, out[0])
	})
}
