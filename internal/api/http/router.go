package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/vadimbarashkov/linklytics/internal/models"
	"github.com/vadimbarashkov/linklytics/internal/service"
)

// LinkService defines the link management operations exposed over HTTP.
type LinkService interface {
	// Create validates and inserts a new link owned by the actor.
	Create(ctx context.Context, actor models.Principal, slug, destination, title string) (*models.Link, error)

	// List returns the links in the actor's scope.
	List(ctx context.Context, actor models.Principal, userIDFilter string) ([]models.Link, error)

	// Get fetches one link with its recent click events.
	Get(ctx context.Context, actor models.Principal, id string) (*service.LinkDetails, error)

	// Update applies a partial update to a link.
	Update(ctx context.Context, actor models.Principal, id string, upd models.LinkUpdate) (*models.Link, error)

	// Delete hard-deletes a link.
	Delete(ctx context.Context, actor models.Principal, id string) error
}

// AnalyticsService defines the read-side aggregation operations.
type AnalyticsService interface {
	// Overview computes the aggregate snapshot for the actor's scope.
	Overview(ctx context.Context, actor models.Principal, userIDFilter string) (*models.Overview, error)

	// LinkStats computes the single-link time series and groupings.
	LinkStats(ctx context.Context, actor models.Principal, linkID string, days int) (*models.LinkStats, error)
}

// RedirectService resolves inbound slugs on the public redirect entry point.
type RedirectService interface {
	// HandleRedirect resolves the slug and triggers best-effort click capture.
	// Returns database.ErrLinkNotFound for unknown or inactive slugs.
	HandleRedirect(ctx context.Context, rawSlug string, headers http.Header) (string, error)
}

// UserProvisioner mirrors identity-surface accounts into local storage so
// ownership references resolve.
type UserProvisioner interface {
	// Ensure creates the user record if it does not exist yet.
	Ensure(ctx context.Context, id, name, email, role string) error
}

// Config carries everything the router needs.
type Config struct {
	Logger    *httplog.Logger
	Links     LinkService
	Analytics AnalyticsService
	Redirect  RedirectService

	// Users is optional; when set, authenticated requests provision the
	// caller's account record on the fly.
	Users UserProvisioner

	// JWTSecret verifies the bearer tokens the external identity surface
	// issues.
	JWTSecret string

	// ErrorRedirectPath is the fixed destination for unresolvable slugs.
	ErrorRedirectPath string

	// ShortDomain is the display domain rendered in short_url fields. It has
	// no effect on redirect resolution and may be empty.
	ShortDomain string
}

// getValidate initializes a validator instance that reports field names from
// JSON tags.
func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes the HTTP router with all routes and middleware
// configured. The redirect entry point stays public and outside the JSON API
// surface.
func NewRouter(cfg Config) http.Handler {
	if cfg.ErrorRedirectPath == "" {
		cfg.ErrorRedirectPath = "/error"
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept", "Authorization"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/openapi.yml"),
	))
	r.Get("/docs/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/openapi.yml")
	})

	r.Route("/api/v1", func(r chi.Router) {
		validate := getValidate()

		r.Get("/ping", handlePing)

		r.Group(func(r chi.Router) {
			r.Use(authenticate(cfg.JWTSecret))
			if cfg.Users != nil {
				r.Use(provision(cfg.Users))
			}

			r.Route("/links", func(r chi.Router) {
				r.Post("/", handleCreateLink(cfg.Links, validate, cfg.ShortDomain))
				r.Get("/", handleListLinks(cfg.Links, cfg.ShortDomain))

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", handleGetLink(cfg.Links, cfg.ShortDomain))
					r.Patch("/", handleUpdateLink(cfg.Links, cfg.ShortDomain))
					r.Delete("/", handleDeleteLink(cfg.Links))
					r.Get("/analytics", handleLinkStats(cfg.Analytics, cfg.ShortDomain))
				})
			})

			r.Get("/analytics/overview", handleOverview(cfg.Analytics, cfg.ShortDomain))
		})
	})

	r.Get("/error", handleErrorPage)
	r.Get("/{slug}", handleRedirect(cfg.Redirect, cfg.ErrorRedirectPath))

	return r
}
