// Package api exposes the indexer's (C8) query surface as a minimal REST
// API, in addition to its Go interface, for operational tooling and the
// swagger documentation cmd/indexer serves.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/routegroup"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/andrey/compressed-state/internal/api/handlers"
	"github.com/andrey/compressed-state/internal/api/middleware"
	"github.com/andrey/compressed-state/internal/config"
)

// Server is the indexer's HTTP query surface.
type Server struct {
	indexer    handlers.Service
	settlement *handlers.SettlementHandler
	logger     lgr.L
	config     *config.Config
}

// NewServer creates a new HTTP server in front of an indexer.Service.
func NewServer(indexer handlers.Service, logger lgr.L, cfg *config.Config) *Server {
	return &Server{indexer: indexer, logger: logger, config: cfg}
}

// WithSettlementHandler wires C7's settlement verifier into the server's
// route table. Optional: a read-only mirror deployment has no writer to
// settle against and can leave this unset.
func (s *Server) WithSettlementHandler(h *handlers.SettlementHandler) *Server {
	s.settlement = h
	return s
}

// SetupRoutes configures all HTTP routes and middleware.
func (s *Server) SetupRoutes() http.Handler {
	healthHandler := handlers.NewHealthHandler(s.logger)
	indexerHandler := handlers.NewIndexerHandler(s.indexer, s.logger)

	router := routegroup.New(http.NewServeMux())

	router.Use(rest.RealIP)
	router.Use(rest.Trace)
	router.Use(rest.SizeLimit(1024 * 1024))
	router.Use(middleware.Logging(s.logger))
	router.Use(middleware.Recovery(s.logger))
	router.Use(rest.AppInfo("compressed-state-indexer", "andrey", "1.0.0"))
	router.Use(rest.Ping)

	router.HandleFunc("GET /health", healthHandler.HandleHealth)
	router.HandleFunc("GET /swagger/*", httpSwagger.Handler())

	router.Group().Mount("/api").Route(func(apiRouter *routegroup.Bundle) {
		apiRouter.HandleFunc("POST /proofs/compressed-accounts", indexerHandler.HandleGetMultipleCompressedAccountProofs)
		apiRouter.HandleFunc("POST /validity-proof", indexerHandler.HandleGetValidityProof)
		if s.settlement != nil {
			apiRouter.HandleFunc("POST /settle", s.settlement.HandleSettle)
		}

		apiRouter.Group().Mount("/trees/{pubkey}").Route(func(treeRouter *routegroup.Bundle) {
			treeRouter.HandleFunc("GET /subtrees", indexerHandler.HandleGetSubtrees)
			treeRouter.HandleFunc("GET /batches/{batchIndex}/queue", indexerHandler.HandleGetQueueElements)
			treeRouter.HandleFunc("POST /address-proofs", indexerHandler.HandleGetMultipleNewAddressProofs)
		})
	})

	return router
}

// Start starts the HTTP server with fixed request timeouts.
func (s *Server) Start() error {
	handler := s.SetupRoutes()
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.Logf("INFO starting indexer API on %s", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}
