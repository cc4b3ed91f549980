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

// CertificateHandler handles admin certificate management: single rows,
// the one-stop entry with file upload, and the bulk PDF relay.
type CertificateHandler struct {
	service certportal.Service
}

func NewCertificateHandler(service certportal.Service) *CertificateHandler {
	return &CertificateHandler{service: service}
}

// Routes returns the admin router for certificate endpoints
func (h *CertificateHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateCertificate)
	r.Post("/single", h.AddSingleEntry)
	r.Get("/{id}", h.GetCertificate)
	r.Delete("/{id}", h.DeleteCertificate)
	return r
}

// CreateCertificateRequest is the request body for registering a
// certificate row whose PDF was already uploaded.
type CreateCertificateRequest struct {
	EventID        string `json:"event_id"`
	UserIdentifier string `json:"user_identifier"`
	UserName       string `json:"user_name"`
	Filename       string `json:"filename"`
}

func (h *CertificateHandler) CreateCertificate(w http.ResponseWriter, r *http.Request) {
	var req CreateCertificateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid event ID")
		return
	}

	cert, err := h.service.CreateCertificate(r.Context(), certportal.CreateCertificateRequest{
		EventID:        eventID,
		UserIdentifier: req.UserIdentifier,
		UserName:       req.UserName,
		Filename:       req.Filename,
	})
	if err != nil {
		switch {
		case errors.Is(err, certportal.ErrEventNotFound):
			writeError(w, r, http.StatusNotFound, "Event not found")
		case errors.Is(err, certportal.ErrMissingParameter):
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			slog.Error("Failed to create certificate", "error", err)
			writeError(w, r, http.StatusInternalServerError, err.Error())
		}
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, cert)
}

// AddSingleEntry handles the one-stop flow: multipart form with event_id,
// user_identifier, user_name and a "file" part. The PDF lands under the
// event slug and the row is registered with the file's name.
func (h *CertificateHandler) AddSingleEntry(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	eventID, err := uuid.Parse(r.FormValue("event_id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid event ID")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "PDF file is required")
		return
	}
	defer file.Close()

	cert, err := h.service.AddCertificateWithFile(r.Context(), certportal.AddCertificateWithFileRequest{
		EventID:        eventID,
		UserIdentifier: r.FormValue("user_identifier"),
		UserName:       r.FormValue("user_name"),
		Filename:       header.Filename,
		File:           file,
	})
	if err != nil {
		switch {
		case errors.Is(err, certportal.ErrEventNotFound):
			writeError(w, r, http.StatusNotFound, "Event not found")
		case errors.Is(err, certportal.ErrMissingParameter):
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			slog.Error("Failed to add single entry", "event_id", eventID, "error", err)
			writeError(w, r, http.StatusInternalServerError, err.Error())
		}
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, cert)
}

func (h *CertificateHandler) GetCertificate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	cert, err := h.service.GetCertificate(r.Context(), id)
	if err != nil {
		if errors.Is(err, certportal.ErrCertificateNotFound) {
			writeError(w, r, http.StatusNotFound, "Certificate not found")
			return
		}
		slog.Error("Failed to get certificate", "certificate_id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	render.JSON(w, r, cert)
}

func (h *CertificateHandler) DeleteCertificate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteCertificate(r.Context(), id); err != nil {
		if errors.Is(err, certportal.ErrCertificateNotFound) {
			writeError(w, r, http.StatusNotFound, "Certificate not found")
			return
		}
		slog.Error("Failed to delete certificate", "certificate_id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadCerts handles POST /upload-certs: a multipart form with a
// "folder" field naming the event slug and one or more "files" parts.
// Each file is stored under "{folder}/{filename}" as application/pdf.
func (h *CertificateHandler) UploadCerts(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(128 << 20); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	folder := r.FormValue("folder")
	if folder == "" {
		writeError(w, r, http.StatusBadRequest, "Folder (Event Slug) is required")
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		writeError(w, r, http.StatusBadRequest, "No files received")
		return
	}

	files := make([]certportal.UploadFile, 0, len(fileHeaders))
	opened := make([]interface{ Close() error }, 0, len(fileHeaders))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		opened = append(opened, f)
		files = append(files, certportal.UploadFile{
			Filename: fh.Filename,
			Content:  f,
		})
	}

	uploaded, err := h.service.UploadFiles(r.Context(), certportal.UploadFilesRequest{
		EventSlug: folder,
		Files:     files,
	})
	if err != nil {
		switch {
		case errors.Is(err, certportal.ErrEventNotFound):
			writeError(w, r, http.StatusNotFound, "Event not found")
		case errors.Is(err, certportal.ErrMissingParameter):
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			slog.Error("Upload Error", "folder", folder, "error", err)
			writeError(w, r, http.StatusInternalServerError, err.Error())
		}
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"success":  true,
		"uploaded": len(uploaded),
		"folder":   folder,
	})
}
