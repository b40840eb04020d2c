package http

import (
	"strings"
	"time"

	"github.com/vadimbarashkov/linklytics/internal/models"
	"github.com/vadimbarashkov/linklytics/internal/service"
)

type createLinkRequest struct {
	Slug        string `json:"slug" validate:"required"`
	Destination string `json:"destination" validate:"required"`
	Title       string `json:"title"`
}

// updateLinkRequest is the partial update payload. Absent fields stay nil and
// leave the stored value unchanged.
type updateLinkRequest struct {
	Slug        *string `json:"slug"`
	Destination *string `json:"destination"`
	Title       *string `json:"title"`
	IsActive    *bool   `json:"is_active"`
}

type linkResponse struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	ShortURL    string    `json:"short_url,omitempty"`
	Destination string    `json:"destination"`
	Title       string    `json:"title,omitempty"`
	IsActive    bool      `json:"is_active"`
	OwnerID     string    `json:"owner_id"`
	ClickCount  int64     `json:"click_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// shortURL renders the display form of a slug under the configured short
// domain. The domain is presentation only; redirect resolution never depends
// on it.
func shortURL(shortDomain, slug string) string {
	if shortDomain == "" {
		return ""
	}

	base := strings.TrimSuffix(shortDomain, "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}

	return base + "/" + slug
}

func toLinkResponse(link *models.Link, shortDomain string) linkResponse {
	return linkResponse{
		ID:          link.ID,
		Slug:        link.Slug,
		ShortURL:    shortURL(shortDomain, link.Slug),
		Destination: link.Destination,
		Title:       link.Title,
		IsActive:    link.IsActive,
		OwnerID:     link.OwnerID,
		ClickCount:  link.ClickCount,
		CreatedAt:   link.CreatedAt,
		UpdatedAt:   link.UpdatedAt,
	}
}

type clickEventResponse struct {
	ID        string    `json:"id"`
	LinkID    string    `json:"link_id"`
	CreatedAt time.Time `json:"created_at"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Referer   string    `json:"referer,omitempty"`
	Country   string    `json:"country,omitempty"`
	City      string    `json:"city,omitempty"`
	Region    string    `json:"region,omitempty"`
	Device    string    `json:"device,omitempty"`
	Browser   string    `json:"browser,omitempty"`
	OS        string    `json:"os,omitempty"`
}

func toClickEventResponses(events []models.ClickEvent) []clickEventResponse {
	out := make([]clickEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, clickEventResponse{
			ID:        e.ID,
			LinkID:    e.LinkID,
			CreatedAt: e.CreatedAt,
			IP:        e.IP,
			UserAgent: e.UserAgent,
			Referer:   e.Referer,
			Country:   e.Country,
			City:      e.City,
			Region:    e.Region,
			Device:    e.Device,
			Browser:   e.Browser,
			OS:        e.OS,
		})
	}
	return out
}

type linkDetailsResponse struct {
	linkResponse
	RecentEvents []clickEventResponse `json:"recent_events"`
}

func toLinkDetailsResponse(details *service.LinkDetails, shortDomain string) linkDetailsResponse {
	return linkDetailsResponse{
		linkResponse: toLinkResponse(&details.Link, shortDomain),
		RecentEvents: toClickEventResponses(details.RecentEvents),
	}
}

type rankedLinkResponse struct {
	linkResponse
	Clicks int64 `json:"clicks"`
}

type overviewResponse struct {
	LinkCount        int64                `json:"link_count"`
	TotalClicks      int64                `json:"total_clicks"`
	UniqueClicks     int64                `json:"unique_clicks"`
	ClicksLast24h    int64                `json:"clicks_last_24h"`
	UniqueLast24h    int64                `json:"unique_clicks_last_24h"`
	ClicksLast7d     int64                `json:"clicks_last_7d"`
	AvgClicksPerLink int64                `json:"avg_clicks_per_link"`
	TopLinks         []rankedLinkResponse `json:"top_links"`
}

func toOverviewResponse(ov *models.Overview, shortDomain string) overviewResponse {
	top := make([]rankedLinkResponse, 0, len(ov.TopLinks))
	for i := range ov.TopLinks {
		top = append(top, rankedLinkResponse{
			linkResponse: toLinkResponse(&ov.TopLinks[i].Link, shortDomain),
			Clicks:       ov.TopLinks[i].Count,
		})
	}

	return overviewResponse{
		LinkCount:        ov.LinkCount,
		TotalClicks:      ov.TotalClicks,
		UniqueClicks:     ov.UniqueClicks,
		ClicksLast24h:    ov.ClicksLast24h,
		UniqueLast24h:    ov.UniqueLast24h,
		ClicksLast7d:     ov.ClicksLast7d,
		AvgClicksPerLink: ov.AvgClicksPerLink,
		TopLinks:         top,
	}
}

type dayCountResponse struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type valueCountResponse struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

func toValueCountResponses(counts []models.ValueCount) []valueCountResponse {
	out := make([]valueCountResponse, 0, len(counts))
	for _, vc := range counts {
		out = append(out, valueCountResponse{Value: vc.Value, Count: vc.Count})
	}
	return out
}

type linkStatsResponse struct {
	Link          linkResponse         `json:"link"`
	WindowDays    int                  `json:"window_days"`
	TotalClicks   int64                `json:"total_clicks"`
	ClicksLast24h int64                `json:"clicks_last_24h"`
	ClicksLast7d  int64                `json:"clicks_last_7d"`
	UniqueClicks  int64                `json:"unique_clicks"`
	DailyCounts   []dayCountResponse   `json:"daily_counts"`
	Referrers     []valueCountResponse `json:"referrers"`
	Countries     []valueCountResponse `json:"countries"`
	Devices       []valueCountResponse `json:"devices"`
	Browsers      []valueCountResponse `json:"browsers"`
	OSes          []valueCountResponse `json:"oses"`
	RecentEvents  []clickEventResponse `json:"recent_events"`
}

func toLinkStatsResponse(stats *models.LinkStats, shortDomain string) linkStatsResponse {
	daily := make([]dayCountResponse, 0, len(stats.DailyCounts))
	for _, dc := range stats.DailyCounts {
		daily = append(daily, dayCountResponse{
			Date:  dc.Day.UTC().Format(time.DateOnly),
			Count: dc.Count,
		})
	}

	return linkStatsResponse{
		Link:          toLinkResponse(&stats.Link, shortDomain),
		WindowDays:    stats.WindowDays,
		TotalClicks:   stats.TotalClicks,
		ClicksLast24h: stats.ClicksLast24h,
		ClicksLast7d:  stats.ClicksLast7d,
		UniqueClicks:  stats.UniqueClicks,
		DailyCounts:   daily,
		Referrers:     toValueCountResponses(stats.Referrers),
		Countries:     toValueCountResponses(stats.Countries),
		Devices:       toValueCountResponses(stats.Devices),
		Browsers:      toValueCountResponses(stats.Browsers),
		OSes:          toValueCountResponses(stats.OSes),
		RecentEvents:  toClickEventResponses(stats.RecentEvents),
	}
}
