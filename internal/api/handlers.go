package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/catherinevee/boardmgr/internal/enrichment"
	"github.com/catherinevee/boardmgr/internal/orchestrator"
	"github.com/catherinevee/boardmgr/internal/provider"
	"github.com/catherinevee/boardmgr/internal/search"
)

// envelope is the uniform response shape.
type envelope struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

func writeOK(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(envelope{OK: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{OK: false, Error: err.Error()})
}

func intParam(r *http.Request, name string, fallback int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeOK(w, map[string]string{"status": "healthy"})
}

// handleCrawl runs one batch. HTTP-triggered batches default to a smaller
// page window than scheduled ones; the invocation is synchronous. An
// optional provider parameter narrows the batch to one provider.
func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	if !s.batchSem.TryAcquire() {
		writeError(w, http.StatusConflict, errBatchRunning)
		return
	}
	defer s.batchSem.Release()

	opts := s.opts
	opts.PagesPerProvider = intParam(r, "pages_per_run", 3)
	opts.Collection = r.URL.Query().Get("crawl_id")
	if name := r.URL.Query().Get("provider"); name != "" {
		p, err := provider.Parse(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		opts.Provider = p
	}

	o := orchestrator.New(s.store, s.archive, s.boards, opts)
	report, err := o.RunOneBatch(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeOK(w, report)
}

func (s *Server) handleSyncJobs(w http.ResponseWriter, r *http.Request) {
	if !s.batchSem.TryAcquire() {
		writeError(w, http.StatusConflict, errBatchRunning)
		return
	}
	defer s.batchSem.Release()

	p, err := provider.Parse(r.URL.Query().Get("provider"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	limit := intParam(r, "limit", s.opts.BoardsPerProvider)
	parallelism := intParam(r, "concurrency", s.opts.SyncConcurrency)

	o := orchestrator.New(s.store, s.archive, s.boards, s.opts)
	report, err := o.SyncProvider(r.Context(), p, limit, parallelism)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeOK(w, report)
}

func (s *Server) handleBoards(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", 50)
	offset := intParam(r, "offset", 0)
	searchTerm := r.URL.Query().Get("search")

	boards, err := s.store.ListBoards(r.Context(), searchTerm, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeOK(w, boards)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeOK(w, stats)
}

func (s *Server) handleIndexes(w http.ResponseWriter, r *http.Request) {
	collections, err := s.archive.ListCollections(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeOK(w, collections)
}

func (s *Server) handleListProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.store.ListProgress(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeOK(w, progress)
}

func (s *Server) handleDeleteProgress(w http.ResponseWriter, r *http.Request) {
	crawlID := r.URL.Query().Get("crawl_id")
	if crawlID == "" {
		writeError(w, http.StatusBadRequest, errMissingParam("crawl_id"))
		return
	}
	deleted, err := s.store.DeleteProgress(r.Context(), crawlID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeOK(w, map[string]interface{}{"crawl_id": crawlID, "deleted": deleted})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, errMissingParam("q"))
		return
	}
	topN := intParam(r, "top_n", 10)

	docs, err := s.store.SearchDocuments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	hits := search.NewIndex(docs).Search(query, topN)
	writeOK(w, map[string]interface{}{"query": query, "hits": hits})
}

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	if slug == "" {
		writeError(w, http.StatusBadRequest, errMissingParam("slug"))
		return
	}

	candidate, found, err := s.store.CompanyForEnrichment(r.Context(), slug)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, errUnknownBoard(slug))
		return
	}

	result, err := s.pipeline.Run(enrichment.Input{
		Slug:      candidate.Key,
		URL:       candidate.URL,
		Timestamp: candidate.Timestamp,
	})
	if err != nil {
		// Nothing is persisted for a board whose pipeline aborted.
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if err := s.store.SaveEnrichment(r.Context(), candidate.Key, result); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeOK(w, map[string]interface{}{"result": result})
}

func (s *Server) handleEnrichAll(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", 100)

	candidates, err := s.store.CompaniesForEnrichment(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	industries := map[string]int{}
	enriched := 0
	failed := 0
	for _, candidate := range candidates {
		result, err := s.pipeline.Run(enrichment.Input{
			Slug:      candidate.Key,
			URL:       candidate.URL,
			Timestamp: candidate.Timestamp,
		})
		if err != nil {
			failed++
			continue
		}
		if err := s.store.SaveEnrichment(r.Context(), candidate.Key, result); err != nil {
			failed++
			continue
		}
		enriched++
		for _, tag := range result.Metadata.Industries {
			industries[tag]++
		}
	}
	writeOK(w, map[string]interface{}{
		"enriched":   enriched,
		"failed":     failed,
		"industries": industries,
	})
}

type paramError string

func (e paramError) Error() string { return string(e) }

func errMissingParam(name string) error {
	return paramError("missing required parameter: " + name)
}

func errUnknownBoard(slug string) error {
	return paramError("no board with slug: " + slug)
}

var errBatchRunning = paramError("a batch is already running")
