package api

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tradedesk/tradecheck/internal/auth"
	"github.com/tradedesk/tradecheck/internal/storage"
)

// Server is the HTTP boundary of the cross-check engine.
type Server struct {
	router       *chi.Mux
	authService  auth.Service
	shipmentRepo storage.ShipmentRepository
	revisionRepo storage.RevisionRepository
	metrics      *Metrics
	brandName    string
}

// ServerConfig wires the server's collaborators.
type ServerConfig struct {
	DB        *sql.DB
	JWTSecret string
	BrandName string
}

// NewServer builds the router and all route handlers.
func NewServer(config ServerConfig) *Server {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	brand := config.BrandName
	if brand == "" {
		brand = "TradeDesk"
	}

	s := &Server{
		router:       r,
		authService:  auth.NewJWTService(auth.Config{SecretKey: config.JWTSecret}, auth.NewPostgresRepository(config.DB)),
		shipmentRepo: storage.NewPostgresShipmentRepository(config.DB),
		revisionRepo: storage.NewPostgresRevisionRepository(config.DB),
		metrics:      NewMetrics(prometheus.DefaultRegisterer),
		brandName:    brand,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.authService))

			r.Route("/shipments", func(r chi.Router) {
				r.Get("/", s.handleListShipments)
				r.Post("/", s.handleCreateShipment)
				r.Get("/{shipmentID}", s.handleGetShipment)
				r.Delete("/{shipmentID}", s.handleDeleteShipment)

				r.Put("/{shipmentID}/documents/{kind}", s.handleUploadDocument)

				r.Post("/{shipmentID}/crosscheck", s.handleCrossCheck)
				r.Post("/{shipmentID}/fix", s.handleApplyFix)
				r.Post("/{shipmentID}/fix-all", s.handleApplyAllFixes)
			})
		})
	})
}

// Run starts the HTTP server.
func (s *Server) Run(addr string) error {
	return http.ListenAndServe(addr, s.router)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
