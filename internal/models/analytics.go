package models

import "time"

// DayCount is one calendar-day bucket of click events (UTC date). Days with no
// events are omitted; callers treat missing days as zero.
type DayCount struct {
	Day   time.Time
	Count int64
}

// ValueCount is a generic grouped aggregation entry: one distinct dimension
// value and the number of events carrying it.
type ValueCount struct {
	Value string
	Count int64
}

// LinkCount pairs a link with its total click volume.
type LinkCount struct {
	Link  Link
	Count int64
}

// Overview is the account- or global-scope aggregate snapshot.
type Overview struct {
	LinkCount        int64
	TotalClicks      int64
	UniqueClicks     int64
	ClicksLast24h    int64
	UniqueLast24h    int64
	ClicksLast7d     int64
	AvgClicksPerLink int64
	TopLinks         []LinkCount
}

// LinkStats is the single-link time series and groupings over a bounded window.
type LinkStats struct {
	Link          Link
	WindowDays    int
	TotalClicks   int64
	ClicksLast24h int64
	ClicksLast7d  int64
	UniqueClicks  int64
	DailyCounts   []DayCount
	Referrers     []ValueCount
	Countries     []ValueCount
	Devices       []ValueCount
	Browsers      []ValueCount
	OSes          []ValueCount
	RecentEvents  []ClickEvent
}
