// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the wiring layer. It decides:
//   - which URL patterns map to which handler functions (routes.go)
//   - which middleware runs on which routes
//   - how the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go: config.Load → storage.Open → server.New
//	server.New: Stores → services → handlers → routes
//
// Each layer only receives what it needs. Services get repository
// interfaces, handlers get services, nothing but storage knows the driver.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/sakif/snippets-api/internal/auth"
	"github.com/sakif/snippets-api/internal/config"
	_ "github.com/sakif/snippets-api/internal/docs"
	"github.com/sakif/snippets-api/internal/handler"
	"github.com/sakif/snippets-api/internal/middleware"
	"github.com/sakif/snippets-api/internal/service"
	"github.com/sakif/snippets-api/internal/storage"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the Stores it was given. Start closes them during
// graceful shutdown, after in-flight requests have finished.
type Server struct {
	router *chi.Mux
	config *config.Config
	stores *storage.Stores
	logger *slog.Logger
	routes []Route

	// authenticate guards the resource routes and the 405s they produce.
	authenticate func(http.Handler) http.Handler
}

// New assembles services and handlers over stores and builds the router.
//
// WIRING:
//  1. TokenService (only when JWT_SECRET is set), PasswordService
//  2. AuthService, SnippetService, UserService over the stores
//  3. one handler per resource
//  4. middleware and the route table
func New(cfg *config.Config, stores *storage.Stores, logger *slog.Logger) (*Server, error) {
	var tokens *auth.TokenService
	if cfg.TokensEnabled() {
		var err error
		tokens, err = auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
	} else {
		logger.Warn("JWT_SECRET not set; bearer tokens are disabled")
	}

	authService := service.NewAuthService(stores.Users, stores.Sessions, tokens, auth.NewPasswordService(), cfg.SessionTTL, logger)
	snippetService := service.NewSnippetService(stores.Snippets, logger)
	userService := service.NewUserService(stores.Users, stores.Snippets, logger)

	var github handler.GitHubProvider
	if cfg.GitHubEnabled() {
		github = auth.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubCallbackURL)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		stores: stores,
		logger: logger,
	}

	root := handler.NewRootHandler(stores.Ping, logger)
	s.routes = resourceRoutes(
		root,
		handler.NewSnippetHandler(snippetService, cfg.PageSize, logger),
		handler.NewUserHandler(userService, cfg.PageSize, logger),
	)
	s.setupRoutes(authService, handler.NewAuthHandler(authService, github, logger), root)

	return s, nil
}

// Handler returns the router, for tests and for embedding in another server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Routes returns the authenticated route table.
func (s *Server) Routes() []Route {
	return s.routes
}

// setupRoutes configures all middleware and route handlers.
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID: unique id per request, picked up by the logger and error responses
//  2. RealIP: client IP from X-Forwarded-For / X-Real-IP
//  3. Logger: one line per request with status and duration
//  4. Recoverer: a panic becomes a 500 instead of killing the process
//  5. CORS (when CORS_ORIGINS is set): must answer preflights before auth runs
//  6. StripSlashes: "/snippets/" and "/snippets" route the same
//  7. GetHead: HEAD runs the GET handler
//
// ROUTE GROUPS:
//
//	public:        /health, /docs/*, /api-auth/*
//	authenticated: everything in resourceRoutes, plus OPTIONS on each pattern
func (s *Server) setupRoutes(authService *service.AuthService, authHandler *handler.AuthHandler, root *handler.RootHandler) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	if len(s.config.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORSOrigins,
			AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"Location", "X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	s.router.Use(chimiddleware.StripSlashes)
	s.router.Use(chimiddleware.GetHead)

	s.router.NotFound(handler.HandleNotFound)
	s.router.MethodNotAllowed(s.handleMethodNotAllowed)

	// === Public ===
	s.router.Get("/health", root.HandleHealth)

	s.router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/index.html", http.StatusMovedPermanently)
	})
	s.router.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	s.router.Route("/api-auth", func(r chi.Router) {
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		if s.config.TokensEnabled() {
			r.Post("/token", authHandler.HandleToken)
		}
		if s.config.GitHubEnabled() {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
	})

	// === Authenticated ===
	s.authenticate = auth.Authenticate(authService, s.logger, s.config.CORSOrigins...)
	s.router.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Use(auth.RequireAuth)

		for _, rt := range s.routes {
			r.Method(rt.Method, rt.Pattern, rt.Handler)
		}
		for pattern, allow := range allowedMethods(s.routes) {
			r.Options(pattern, handleOptions(allow))
		}
	})
}

// handleMethodNotAllowed reports 405 with the methods the path does accept.
//
// chi runs this outside the route group, so resource paths get the same
// authentication here: an anonymous caller sees 401, never the Allow list.
func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeMethodNotAllowed(w, r, path)
	})
	if isPublicPath(path) {
		notAllowed(w, r)
		return
	}
	s.authenticate(auth.RequireAuth(notAllowed)).ServeHTTP(w, r)
}

func (s *Server) writeMethodNotAllowed(w http.ResponseWriter, r *http.Request, path string) {
	var methods []string
	for _, m := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions} {
		if s.router.Match(chi.NewRouteContext(), m, path) {
			methods = append(methods, m)
			if m == http.MethodGet {
				methods = append(methods, http.MethodHead)
			}
		}
	}

	handler.MethodNotAllowed(w, r, strings.Join(methods, ", "))
}

// isPublicPath reports whether path belongs to a route served without
// authentication.
func isPublicPath(path string) bool {
	for _, prefix := range []string{"/health", "/docs", "/api-auth"} {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// Start serves HTTP until SIGINT or SIGTERM, then shuts down gracefully.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections
//  2. Wait up to 30s for in-flight requests to finish
//  3. Close the stores (flushes the SQLite WAL, returns pool connections)
func (s *Server) Start() error {
	defer func() {
		if err := s.stores.Close(); err != nil {
			s.logger.Error("closing stores", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.String("addr", s.config.Addr),
			slog.String("db_driver", s.config.DBDriver),
			slog.String("sessions", s.config.SessionBackend),
			slog.Bool("tokens", s.config.TokensEnabled()),
			slog.Bool("github", s.config.GitHubEnabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
