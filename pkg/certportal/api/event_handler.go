package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/nattapol/cert-portal/pkg/certportal"
)

// EventHandler handles admin event management plus the public event page
// lookup and per-event certificate search.
type EventHandler struct {
	service certportal.Service
}

func NewEventHandler(service certportal.Service) *EventHandler {
	return &EventHandler{service: service}
}

// Routes returns the admin router for event endpoints
func (h *EventHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateEvent)
	r.Get("/", h.ListEvents)
	r.Get("/{id}", h.GetEvent)
	r.Put("/{id}", h.UpdateEvent)
	r.Delete("/{id}", h.DeleteEvent)
	r.Get("/{id}/certificates", h.ListCertificates)
	r.Post("/{id}/certificates/import", h.ImportCertificates)
	return r
}

// CreateEventRequest is the request body for creating an event
type CreateEventRequest struct {
	Name             string  `json:"name"`
	Slug             string  `json:"slug,omitempty"`
	ThemeColor       string  `json:"theme_color,omitempty"`
	PosterURL        *string `json:"poster_url,omitempty"`
	LogoURL          *string `json:"logo_url,omitempty"`
	StorageBucketURL string  `json:"storage_bucket_url,omitempty"`
}

// UpdateEventRequest is the request body for updating an event. The slug
// is not accepted: it is immutable once created.
type UpdateEventRequest struct {
	Name       string  `json:"name,omitempty"`
	ThemeColor string  `json:"theme_color,omitempty"`
	PosterURL  *string `json:"poster_url,omitempty"`
	LogoURL    *string `json:"logo_url,omitempty"`
}

func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	event, err := h.service.CreateEvent(r.Context(), certportal.CreateEventRequest{
		Name:             req.Name,
		Slug:             req.Slug,
		ThemeColor:       req.ThemeColor,
		PosterURL:        req.PosterURL,
		LogoURL:          req.LogoURL,
		StorageBucketURL: req.StorageBucketURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, certportal.ErrSlugTaken):
			writeError(w, r, http.StatusConflict, "Event slug already in use")
		case errors.Is(err, certportal.ErrInvalidSlug), errors.Is(err, certportal.ErrMissingParameter):
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			slog.Error("Failed to create event", "error", err)
			writeError(w, r, http.StatusInternalServerError, err.Error())
		}
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, event)
}

func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.ListEvents(r.Context())
	if err != nil {
		slog.Error("Failed to list events", "error", err)
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	render.JSON(w, r, events)
}

func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	event, err := h.service.GetEvent(r.Context(), id)
	if err != nil {
		if errors.Is(err, certportal.ErrEventNotFound) {
			writeError(w, r, http.StatusNotFound, "Event not found")
			return
		}
		slog.Error("Failed to get event", "event_id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	render.JSON(w, r, event)
}

func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	event, err := h.service.UpdateEvent(r.Context(), certportal.UpdateEventRequest{
		EventID:    id,
		Name:       req.Name,
		ThemeColor: req.ThemeColor,
		PosterURL:  req.PosterURL,
		LogoURL:    req.LogoURL,
	})
	if err != nil {
		if errors.Is(err, certportal.ErrEventNotFound) {
			writeError(w, r, http.StatusNotFound, "Event not found")
			return
		}
		slog.Error("Failed to update event", "event_id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	render.JSON(w, r, event)
}

func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteEvent(r.Context(), id); err != nil {
		if errors.Is(err, certportal.ErrEventNotFound) {
			writeError(w, r, http.StatusNotFound, "Event not found")
			return
		}
		slog.Error("Failed to delete event", "event_id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *EventHandler) ListCertificates(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	certs, err := h.service.ListCertificates(r.Context(), id)
	if err != nil {
		slog.Error("Failed to list certificates", "event_id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	render.JSON(w, r, certs)
}

// ImportCertificates ingests a CSV roster for the event. The file comes
// either as the multipart field "file" or as the raw request body.
func (h *EventHandler) ImportCertificates(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	roster := r.Body
	if err := r.ParseMultipartForm(32 << 20); err == nil {
		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "CSV file is required")
			return
		}
		defer file.Close()
		roster = file
	}

	count, err := h.service.ImportCertificates(r.Context(), certportal.ImportCertificatesRequest{
		EventID: id,
		Roster:  roster,
	})
	if err != nil {
		switch {
		case errors.Is(err, certportal.ErrEventNotFound):
			writeError(w, r, http.StatusNotFound, "Event not found")
		case errors.Is(err, certportal.ErrEmptyRoster), errors.Is(err, certportal.ErrRosterHeader):
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			slog.Error("Failed to import roster", "event_id", id, "error", err)
			writeError(w, r, http.StatusInternalServerError, err.Error())
		}
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"success":  true,
		"imported": count,
	})
}

// Public endpoints

// GetEventBySlug handles GET /events/{slug}, the public event page lookup.
func (h *EventHandler) GetEventBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	event, err := h.service.GetEventBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, certportal.ErrEventNotFound) {
			writeError(w, r, http.StatusNotFound, "Event not found")
			return
		}
		slog.Error("Failed to get event by slug", "slug", slug, "error", err)
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	render.JSON(w, r, event)
}

// SearchCertificates handles GET /events/{slug}/certificates?q=, the
// public recipient search: identifier exact match or name substring.
func (h *EventHandler) SearchCertificates(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	event, err := h.service.GetEventBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, certportal.ErrEventNotFound) {
			writeError(w, r, http.StatusNotFound, "Event not found")
			return
		}
		slog.Error("Failed to get event by slug", "slug", slug, "error", err)
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	certs, err := h.service.SearchCertificates(r.Context(), certportal.SearchCertificatesRequest{
		EventID: event.ID,
		Query:   r.URL.Query().Get("q"),
	})
	if err != nil {
		if errors.Is(err, certportal.ErrMissingParameter) {
			writeError(w, r, http.StatusBadRequest, "Search query is required")
			return
		}
		slog.Error("Failed to search certificates", "event_id", event.ID, "error", err)
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	render.JSON(w, r, certs)
}

// parseIDParam parses the {id} URL parameter, writing a 400 on failure.
func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid ID")
		return uuid.Nil, false
	}
	return id, true
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}
