package service

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/vadimbarashkov/linklytics/internal/database"
	"github.com/vadimbarashkov/linklytics/internal/models"
)

// DirectRefererLabel groups events that carried no referer header.
const DirectRefererLabel = "Direct / None"

const (
	// DefaultWindowDays bounds unwindowed aggregation scans.
	DefaultWindowDays = 30
	// MaxWindowDays clamps explicit window requests.
	MaxWindowDays = 180

	overviewTopLinks = 5
	groupingLimit    = 10
	recentStatsLimit = 50
)

// ClickEventAggregator is the read side of the click log the aggregator scans.
type ClickEventAggregator interface {
	Count(ctx context.Context, scope database.Scope, since time.Time) (int64, error)
	CountDistinctIP(ctx context.Context, scope database.Scope, since time.Time) (int64, error)
	DailyCounts(ctx context.Context, scope database.Scope, since time.Time) ([]models.DayCount, error)
	CountByDimension(ctx context.Context, scope database.Scope, dim database.Dimension, since time.Time, limit int) ([]models.ValueCount, error)
	RefererCounts(ctx context.Context, scope database.Scope, since time.Time) ([]models.ValueCount, error)
	TopLinks(ctx context.Context, ownerID string, k int) ([]models.LinkCount, error)
	ListRecentByLink(ctx context.Context, linkID string, limit int) ([]models.ClickEvent, error)
}

// LinkReader is the subset of the registry the aggregator needs for scoping
// and link counts.
type LinkReader interface {
	GetByID(ctx context.Context, id string) (*models.Link, error)
	Count(ctx context.Context, ownerID string) (int64, error)
}

// AnalyticsService computes statistics over the click-event log. All trailing
// windows are measured from query execution time, never cached.
type AnalyticsService struct {
	events ClickEventAggregator
	links  LinkReader
}

func NewAnalyticsService(events ClickEventAggregator, links LinkReader) *AnalyticsService {
	return &AnalyticsService{
		events: events,
		links:  links,
	}
}

// resolveOwnerScope applies the scoping rule: non-admins are forced to their
// own links regardless of any requested filter; admins default to global and
// may narrow to one owner.
func resolveOwnerScope(actor models.Principal, userIDFilter string) string {
	if !actor.IsAdmin() {
		return actor.UserID
	}
	return userIDFilter
}

// Overview computes the aggregate snapshot for the caller's scope.
func (s *AnalyticsService) Overview(ctx context.Context, actor models.Principal, userIDFilter string) (*models.Overview, error) {
	const op = "service.AnalyticsService.Overview"

	ownerID := resolveOwnerScope(actor, userIDFilter)
	scope := database.Scope{OwnerID: ownerID}
	now := time.Now()
	last24h := now.Add(-24 * time.Hour)
	last7d := now.AddDate(0, 0, -7)

	ov := &models.Overview{}
	var err error

	if ov.LinkCount, err = s.links.Count(ctx, ownerID); err != nil {
		return nil, fmt.Errorf("%s: failed to count links: %w", op, err)
	}
	if ov.TotalClicks, err = s.events.Count(ctx, scope, time.Time{}); err != nil {
		return nil, fmt.Errorf("%s: failed to count clicks: %w", op, err)
	}
	if ov.UniqueClicks, err = s.events.CountDistinctIP(ctx, scope, time.Time{}); err != nil {
		return nil, fmt.Errorf("%s: failed to count unique clicks: %w", op, err)
	}
	if ov.ClicksLast24h, err = s.events.Count(ctx, scope, last24h); err != nil {
		return nil, fmt.Errorf("%s: failed to count clicks in last 24h: %w", op, err)
	}
	if ov.UniqueLast24h, err = s.events.CountDistinctIP(ctx, scope, last24h); err != nil {
		return nil, fmt.Errorf("%s: failed to count unique clicks in last 24h: %w", op, err)
	}
	if ov.ClicksLast7d, err = s.events.Count(ctx, scope, last7d); err != nil {
		return nil, fmt.Errorf("%s: failed to count clicks in last 7d: %w", op, err)
	}
	if ov.TopLinks, err = s.events.TopLinks(ctx, ownerID, overviewTopLinks); err != nil {
		return nil, fmt.Errorf("%s: failed to rank top links: %w", op, err)
	}

	if ov.LinkCount > 0 {
		ov.AvgClicksPerLink = (ov.TotalClicks + ov.LinkCount/2) / ov.LinkCount
	}

	return ov, nil
}

// ClampWindowDays normalizes a requested lookback window: non-positive values
// fall back to the default, oversized requests are clamped to the maximum.
func ClampWindowDays(days int) int {
	if days <= 0 {
		return DefaultWindowDays
	}
	if days > MaxWindowDays {
		return MaxWindowDays
	}
	return days
}

// LinkStats computes the single-link time series and groupings over a clamped
// window, applying the ownership policy.
func (s *AnalyticsService) LinkStats(ctx context.Context, actor models.Principal, linkID string, days int) (*models.LinkStats, error) {
	const op = "service.AnalyticsService.LinkStats"

	link, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get link: %w", op, err)
	}

	if !actor.IsAdmin() && link.OwnerID != actor.UserID {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	windowDays := ClampWindowDays(days)
	scope := database.Scope{LinkID: link.ID}
	now := time.Now()
	windowStart := now.AddDate(0, 0, -windowDays)
	last24h := now.Add(-24 * time.Hour)
	last7d := now.AddDate(0, 0, -7)

	stats := &models.LinkStats{
		Link:       *link,
		WindowDays: windowDays,
	}

	if stats.TotalClicks, err = s.events.Count(ctx, scope, time.Time{}); err != nil {
		return nil, fmt.Errorf("%s: failed to count clicks: %w", op, err)
	}
	if stats.ClicksLast24h, err = s.events.Count(ctx, scope, last24h); err != nil {
		return nil, fmt.Errorf("%s: failed to count clicks in last 24h: %w", op, err)
	}
	if stats.ClicksLast7d, err = s.events.Count(ctx, scope, last7d); err != nil {
		return nil, fmt.Errorf("%s: failed to count clicks in last 7d: %w", op, err)
	}
	if stats.UniqueClicks, err = s.events.CountDistinctIP(ctx, scope, windowStart); err != nil {
		return nil, fmt.Errorf("%s: failed to count unique clicks: %w", op, err)
	}
	if stats.DailyCounts, err = s.events.DailyCounts(ctx, scope, windowStart); err != nil {
		return nil, fmt.Errorf("%s: failed to bucket clicks by day: %w", op, err)
	}

	for _, dim := range []database.Dimension{database.DimCountry, database.DimDevice, database.DimBrowser, database.DimOS} {
		counts, err := s.events.CountByDimension(ctx, scope, dim, windowStart, groupingLimit)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to group clicks by %s: %w", op, dim, err)
		}

		switch dim {
		case database.DimCountry:
			stats.Countries = counts
		case database.DimDevice:
			stats.Devices = counts
		case database.DimBrowser:
			stats.Browsers = counts
		case database.DimOS:
			stats.OSes = counts
		}
	}

	rawReferers, err := s.events.RefererCounts(ctx, scope, windowStart)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to group clicks by referer: %w", op, err)
	}
	stats.Referrers = topValueCounts(NormalizeReferers(rawReferers), groupingLimit)

	if stats.RecentEvents, err = s.events.ListRecentByLink(ctx, link.ID, recentStatsLimit); err != nil {
		return nil, fmt.Errorf("%s: failed to list recent click events: %w", op, err)
	}

	return stats, nil
}

// NormalizeReferers collapses raw referer strings to their hostnames and
// merges the resulting groups. A referer that fails to parse as a URL keeps
// its raw value as the grouping key; the empty group (no referer) is labeled
// "Direct / None". The result is sorted descending by count.
func NormalizeReferers(raw []models.ValueCount) []models.ValueCount {
	merged := make(map[string]int64, len(raw))
	for _, vc := range raw {
		merged[refererKey(vc.Value)] += vc.Count
	}

	out := make([]models.ValueCount, 0, len(merged))
	for value, count := range merged {
		out = append(out, models.ValueCount{Value: value, Count: count})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})

	return out
}

// topValueCounts truncates an already-sorted grouping to its n largest
// entries. Referer groups are truncated after host merging, so the cut
// applies to hostnames rather than raw referer strings.
func topValueCounts(counts []models.ValueCount, n int) []models.ValueCount {
	if len(counts) <= n {
		return counts
	}
	return counts[:n]
}

func refererKey(raw string) string {
	if raw == "" {
		return DirectRefererLabel
	}

	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}

	return u.Hostname()
}
