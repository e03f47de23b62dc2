package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.HTTP.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/health", s.HealthHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", s.ServeWsHandler)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.RegisterHandler)
		r.Post("/login", s.LoginHandler)
		r.With(s.AuthMiddleware).Get("/me", s.MeHandler)
	})

	r.Route("/analyze", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.OptionalAuthMiddleware)
			r.Use(s.RateLimitMiddleware(s.config.HTTP.RateLimit, s.config.HTTP.RateBurst))
			r.Post("/", s.AnalyzeHandler)
			r.Post("/job-match", s.JobMatchHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.AuthMiddleware)
			r.Get("/history", s.HistoryHandler)
			r.Get("/dashboard-stats", s.DashboardStatsHandler)
			r.Get("/{id}", s.GetAnalysisHandler)
			r.Get("/{id}/file", s.DownloadAnalysisFileHandler)
			r.Delete("/{id}", s.DeleteAnalysisHandler)
		})
	})

	return r
}
