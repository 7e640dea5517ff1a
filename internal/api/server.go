package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/energy-server/energy-server/internal/auth"
	"github.com/energy-server/energy-server/internal/config"
	"github.com/energy-server/energy-server/internal/models"
	"github.com/energy-server/energy-server/internal/ownership"
	"github.com/energy-server/energy-server/internal/service"
	"github.com/energy-server/energy-server/internal/storage"
	"github.com/energy-server/energy-server/internal/validation"
)

type contextKey string

const claimsKey contextKey = "claims"

// RESTServer represents the REST API server
type RESTServer struct {
	config    *config.Config
	store     storage.Store
	service   *service.Service
	auth      *auth.JWTManager
	validator *validation.Validator
	router    chi.Router
	server    *http.Server
}

// NewRESTServer creates a new REST API server
func NewRESTServer(cfg *config.Config, store storage.Store) *RESTServer {
	s := &RESTServer{
		config:    cfg,
		store:     store,
		service:   service.New(store),
		auth:      auth.NewJWTManager(&cfg.JWT),
		validator: validation.NewValidator(),
		router:    chi.NewRouter(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all routes
func (s *RESTServer) setupRoutes() {
	// Middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		s.setupAPIRoutes(r)
	})
}

// ListenAndServe starts the server
func (s *RESTServer) ListenAndServe(addr string) error {
	s.server.Addr = addr
	log.Info().Str("addr", addr).Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *RESTServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// authMiddleware is the authentication middleware
func (s *RESTServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Get token from header
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			s.respondError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		// Parse Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			s.respondError(w, http.StatusUnauthorized, "invalid authorization header")
			return
		}

		// Validate token
		claims, err := s.auth.ValidateToken(parts[1])
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		// Add claims to context
		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// actorFromContext extracts the acting user placed by authMiddleware.
func actorFromContext(ctx context.Context) (models.Actor, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	if !ok {
		return models.Actor{}, false
	}
	return claims.Actor(), true
}

// requireActor responds 401 when no authenticated actor is present.
func (s *RESTServer) requireActor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "not authenticated")
	}
	return actor, ok
}

// respondServiceError maps service and storage errors onto HTTP statuses.
// Policy denials are 403, missing rows 404, invariant violations 400,
// reference conflicts 409 and broken foreign key chains 500.
func (s *RESTServer) respondServiceError(w http.ResponseWriter, err error) {
	var validationErr *service.ValidationError
	var denyErr *service.DenyError
	var conflictErr *service.ConflictError
	var integrityErr *ownership.IntegrityError

	switch {
	case errors.As(err, &denyErr):
		s.respondError(w, http.StatusForbidden, denyErr.Reason)
	case errors.As(err, &validationErr):
		s.respondError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &conflictErr):
		s.respondError(w, http.StatusConflict, conflictErr.Message)
	case errors.As(err, &integrityErr):
		log.Error().Err(err).Msg("Data integrity failure")
		s.respondError(w, http.StatusInternalServerError, "data integrity error")
	case errors.Is(err, storage.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrDuplicateKey):
		s.respondError(w, http.StatusConflict, "already exists")
	case errors.Is(err, storage.ErrInvalidData):
		s.respondError(w, http.StatusBadRequest, "invalid reference")
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}
