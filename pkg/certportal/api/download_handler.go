package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/nattapol/cert-portal/pkg/certportal"
)

// DownloadHandler serves the public download-accounting and redirect
// endpoint. It never streams file bytes itself; the client fetches the PDF
// from the object store after the redirect.
type DownloadHandler struct {
	service certportal.Service
}

func NewDownloadHandler(service certportal.Service) *DownloadHandler {
	return &DownloadHandler{service: service}
}

// Resolve handles GET /download?id=<certificateID>.
//
// Each response is a one-time side-effecting action tied to a counter
// increment, so intermediaries must not cache it; a cached redirect would
// count only the first download.
func (h *DownloadHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")

	id := r.URL.Query().Get("id")

	target, err := h.service.ResolveDownload(r.Context(), id)
	if err != nil {
		if errors.Is(err, certportal.ErrMissingParameter) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Missing ID"})
			return
		}
		slog.Error("download resolution failed", "certificate_id", id, "err", err)
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": "Certificate not found"})
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}
