package models

import "time"

// Device classes derived from the user-agent string.
const (
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceDesktop = "Desktop"
)

// ClickEvent is one immutable record of a successful redirect resolution.
// Events are append-only: never updated, never deleted by the application.
// Empty string fields mean the value could not be derived from the request.
type ClickEvent struct {
	ID     string
	LinkID string
	// CreatedAt is assigned at insert time by the storage layer and is
	// authoritative for all time-windowed aggregation.
	CreatedAt time.Time
	IP        string
	UserAgent string
	Referer   string
	Country   string
	City      string
	Region    string
	Device    string
	Browser   string
	OS        string
}
