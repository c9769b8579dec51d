package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/schoolarchive/archive/internal/api/handler"
	"github.com/schoolarchive/archive/internal/api/middleware"
	"github.com/schoolarchive/archive/internal/auth"
	"github.com/schoolarchive/archive/internal/identity"
	"github.com/schoolarchive/archive/internal/metrics"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Verifier       identity.Verifier
	Directory      auth.Directory
	Issuer         handler.TokenIssuer
	Sessions       middleware.ClaimsParser
	AccessLog      handler.AccessLogger
	Documents      handler.DocumentGateway
	References     handler.ReferenceLister
	DBPinger       handler.DBPinger
	Version        string
	OpenAPISpec    []byte
	AllowedOrigins []string
	MaxUploadBytes int64
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logger)
	r.Use(metrics.Instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", handler.Root)

	r.Get("/health", handler.NewHealthHandler(deps.DBPinger, deps.Version).ServeHTTP)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	if len(deps.OpenAPISpec) > 0 {
		r.Get("/openapi.json", handler.NewOpenAPIHandler(deps.OpenAPISpec).ServeHTTP)
	}

	authHandler := handler.NewAuthHandler(deps.Verifier, deps.Directory, deps.Issuer, deps.AccessLog)
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/google-login", authHandler.GoogleLogin)
		r.Post("/logout", authHandler.Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(deps.Sessions))

		driveHandler := handler.NewDriveHandler(deps.Documents, deps.MaxUploadBytes)
		r.Route("/api/drive", func(r chi.Router) {
			r.Get("/years", driveHandler.Years)
			r.Post("/list", driveHandler.List)
			r.Post("/upload", driveHandler.Upload)
			r.Get("/download/{id}", driveHandler.Download)
			r.Delete("/delete/{id}", driveHandler.Delete)
			r.Get("/storage-info", driveHandler.StorageInfo)
		})

		sheetsHandler := handler.NewSheetsHandler(deps.References)
		r.Get("/api/sheets/{category}", sheetsHandler.List)
	})

	return r
}
