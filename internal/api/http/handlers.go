package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/linklytics/internal/database"
	"github.com/vadimbarashkov/linklytics/internal/models"
	"github.com/vadimbarashkov/linklytics/internal/service"
	"github.com/vadimbarashkov/linklytics/pkg/response"
)

// handlePing handles health check requests to ensure the server is running.
func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

// renderServiceError maps business-layer errors onto the response envelope.
// Unrecognized errors are logged and collapse to a 500.
func renderServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var vErr *service.ValidationError

	switch {
	case errors.As(err, &vErr):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.InvalidInputResponse(vErr.Reason))
	case errors.Is(err, database.ErrSlugExists):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.SlugConflictResponse)
	case errors.Is(err, database.ErrLinkNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.ResourceNotFoundResponse)
	case errors.Is(err, service.ErrForbidden):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.ForbiddenResponse)
	default:
		httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerErrorResponse)
	}
}

// handleCreateLink handles POST requests to create a new link.
//
// The payload must contain a slug and destination. Slug format, reservation
// and destination scheme are validated by the business layer; a taken slug
// yields a conflict.
func handleCreateLink(svc LinkService, validate *validator.Validate, shortDomain string) http.HandlerFunc {
	const op = "api.http.handleCreateLink"
	const successMsg = "The link has been created successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req createLinkRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		link, err := svc.Create(r.Context(), principalFrom(r.Context()), req.Slug, req.Destination, req.Title)
		if err != nil {
			renderServiceError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(successMsg, toLinkResponse(link, shortDomain)))
	}
}

// handleListLinks handles GET requests to list links in the caller's scope.
// The userId query parameter only has effect for admins.
func handleListLinks(svc LinkService, shortDomain string) http.HandlerFunc {
	const op = "api.http.handleListLinks"
	const successMsg = "The links were retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		links, err := svc.List(r.Context(), principalFrom(r.Context()), r.URL.Query().Get("userId"))
		if err != nil {
			renderServiceError(w, r, op, err)
			return
		}

		data := make([]linkResponse, 0, len(links))
		for i := range links {
			data = append(data, toLinkResponse(&links[i], shortDomain))
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, data))
	}
}

// handleGetLink handles GET requests to fetch one link with its recent click
// events.
func handleGetLink(svc LinkService, shortDomain string) http.HandlerFunc {
	const op = "api.http.handleGetLink"
	const successMsg = "The link was retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		details, err := svc.Get(r.Context(), principalFrom(r.Context()), id)
		if err != nil {
			renderServiceError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toLinkDetailsResponse(details, shortDomain)))
	}
}

// handleUpdateLink handles PATCH requests to partially update a link. Only
// fields present in the payload are changed; each goes through the same
// validation as at create time.
func handleUpdateLink(svc LinkService, shortDomain string) http.HandlerFunc {
	const op = "api.http.handleUpdateLink"
	const successMsg = "The link was updated successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req updateLinkRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		id := chi.URLParam(r, "id")
		upd := models.LinkUpdate{
			Slug:        req.Slug,
			Destination: req.Destination,
			Title:       req.Title,
			IsActive:    req.IsActive,
		}

		link, err := svc.Update(r.Context(), principalFrom(r.Context()), id, upd)
		if err != nil {
			renderServiceError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toLinkResponse(link, shortDomain)))
	}
}

// handleDeleteLink handles DELETE requests to hard-delete a link.
func handleDeleteLink(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleDeleteLink"
	const successMsg = "The link was deleted successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := svc.Delete(r.Context(), principalFrom(r.Context()), id); err != nil {
			renderServiceError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg))
	}
}
