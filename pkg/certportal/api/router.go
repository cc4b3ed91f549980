package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/nattapol/cert-portal/pkg/certportal"
)

// NewRouter assembles the portal's HTTP surface.
//
// Public routes: the download redirect, the event page lookup and the
// per-event certificate search. Everything under /api/admin requires a
// valid admin token (single admin role, HS256).
func NewRouter(service certportal.Service, tokenAuth *jwtauth.JWTAuth) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	downloadHandler := NewDownloadHandler(service)
	eventHandler := NewEventHandler(service)
	certHandler := NewCertificateHandler(service)

	// Public
	r.Get("/download", downloadHandler.Resolve)
	r.Get("/events/{slug}", eventHandler.GetEventBySlug)
	r.Get("/events/{slug}/certificates", eventHandler.SearchCertificates)
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, map[string]string{"status": "ok"})
	})

	// Admin
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Use(jwtauth.Authenticator)

		r.Mount("/events", eventHandler.Routes())
		r.Mount("/certificates", certHandler.Routes())
		r.Post("/upload-certs", certHandler.UploadCerts)
	})

	return r
}
