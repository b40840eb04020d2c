// Package capture derives click-event metadata from raw request headers and
// persists events without ever blocking or failing the redirect path.
package capture

import (
	"net/http"
	"strings"

	"github.com/mileusna/useragent"
	"github.com/vadimbarashkov/linklytics/internal/models"
)

// headerSource names a trusted edge provider and the header it injects. The
// fallback chains below are ordered: the first present header wins.
type headerSource struct {
	header   string
	provider string
}

var (
	ipChain = []headerSource{
		{"X-Forwarded-For", "proxy"},
		{"X-Real-Ip", "proxy"},
		{"Cf-Connecting-Ip", "cloudflare"},
	}
	countryChain = []headerSource{
		{"X-Vercel-Ip-Country", "vercel"},
		{"Cf-Ipcountry", "cloudflare"},
	}
	cityChain = []headerSource{
		{"X-Vercel-Ip-City", "vercel"},
	}
	regionChain = []headerSource{
		{"X-Vercel-Ip-Country-Region", "vercel"},
	}
)

func firstPresent(h http.Header, chain []headerSource) string {
	for _, src := range chain {
		if v := h.Get(src.header); v != "" {
			return v
		}
	}
	return ""
}

// ClientIP extracts the best-effort client address. Only the first hop of
// X-Forwarded-For is trusted as the client.
func ClientIP(h http.Header) string {
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	return firstPresent(h, ipChain[1:])
}

// Classify derives every capturable field from the request headers. It never
// fails: missing or unparseable input degrades to empty fields.
func Classify(h http.Header) models.ClickEvent {
	event := models.ClickEvent{
		IP:        ClientIP(h),
		UserAgent: h.Get("User-Agent"),
		Referer:   h.Get("Referer"),
		Country:   firstPresent(h, countryChain),
		City:      firstPresent(h, cityChain),
		Region:    firstPresent(h, regionChain),
	}

	// Absent user-agent leaves device/browser/os undefined rather than
	// defaulted.
	if event.UserAgent != "" {
		event.Device, event.Browser, event.OS = classifyUserAgent(event.UserAgent)
	}

	return event
}

func classifyUserAgent(raw string) (device, browser, os string) {
	ua := useragent.Parse(raw)

	switch {
	case ua.Mobile:
		device = models.DeviceMobile
	case ua.Tablet:
		device = models.DeviceTablet
	default:
		device = models.DeviceDesktop
	}

	return device, ua.Name, ua.OS
}
