// Package api exposes the pipeline over HTTP: batch triggers, corpus
// queries, progress management, search, and enrichment.
package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/catherinevee/boardmgr/internal/concurrency"
	"github.com/catherinevee/boardmgr/internal/enrichment"
	"github.com/catherinevee/boardmgr/internal/logger"
	"github.com/catherinevee/boardmgr/internal/orchestrator"
	"github.com/catherinevee/boardmgr/internal/store"
)

// Server wires the HTTP handlers to the pipeline.
type Server struct {
	store    *store.Store
	archive  orchestrator.ArchiveClient
	boards   orchestrator.BoardClient
	opts     orchestrator.Options
	pipeline *enrichment.Pipeline
	// batchSem serialises batch work: overlapping crawls would race on the
	// same cursors.
	batchSem *concurrency.Semaphore
	router   *mux.Router
	log      logger.Logger
}

// New creates the server.
func New(s *store.Store, archiveClient orchestrator.ArchiveClient, boardClient orchestrator.BoardClient, opts orchestrator.Options) *Server {
	srv := &Server{
		store:    s,
		archive:  archiveClient,
		boards:   boardClient,
		opts:     opts,
		pipeline: enrichment.NewPipeline(opts.Extractor),
		batchSem: concurrency.NewSemaphore(1),
		router:   mux.NewRouter(),
		log:      logger.New("api"),
	}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.router.Use(s.requestLogger)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.router.HandleFunc("/crawl", s.handleCrawl).Methods(http.MethodGet)
	s.router.HandleFunc("/sync-jobs", s.handleSyncJobs).Methods(http.MethodGet)

	s.router.HandleFunc("/boards", s.handleBoards).Methods(http.MethodGet)
	s.router.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	s.router.HandleFunc("/indexes", s.handleIndexes).Methods(http.MethodGet)

	s.router.HandleFunc("/progress", s.handleListProgress).Methods(http.MethodGet)
	s.router.HandleFunc("/progress", s.handleDeleteProgress).Methods(http.MethodDelete)

	s.router.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)
	s.router.HandleFunc("/enrich", s.handleEnrich).Methods(http.MethodGet)
	s.router.HandleFunc("/enrich-all", s.handleEnrichAll).Methods(http.MethodGet)
}

// Handler returns the router wrapped with CORS.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodDelete},
	}).Handler(s.router)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		requestID := uuid.NewString()
		next.ServeHTTP(w, r)
		s.log.Info("request",
			logger.String("request_id", requestID),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Duration("duration", time.Since(started)))
	})
}
