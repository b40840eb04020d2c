package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/vadimbarashkov/linklytics/pkg/response"
)

// handleOverview handles GET requests for the account-wide analytics
// snapshot. Admins may narrow the scope to a single user via the userId
// query parameter.
func handleOverview(svc AnalyticsService, shortDomain string) http.HandlerFunc {
	const op = "api.http.handleOverview"
	const successMsg = "The analytics overview was retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		overview, err := svc.Overview(r.Context(), principalFrom(r.Context()), r.URL.Query().Get("userId"))
		if err != nil {
			renderServiceError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toOverviewResponse(overview, shortDomain)))
	}
}

// handleLinkStats handles GET requests for per-link analytics. The days
// query parameter sets the reporting window; values that fail to parse
// fall back to the default window.
func handleLinkStats(svc AnalyticsService, shortDomain string) http.HandlerFunc {
	const op = "api.http.handleLinkStats"
	const successMsg = "The link analytics were retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		days, err := strconv.Atoi(r.URL.Query().Get("days"))
		if err != nil {
			days = 0
		}

		stats, err := svc.LinkStats(r.Context(), principalFrom(r.Context()), id, days)
		if err != nil {
			renderServiceError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toLinkStatsResponse(stats, shortDomain)))
	}
}
