// Package orchestrator drives one resumable batch: archive discovery for
// every provider in the rotation, then board syncs for queued companies.
// Data is always committed before the cursor that covers it, so a crash
// between the two re-processes a window instead of skipping one.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/catherinevee/boardmgr/internal/archive"
	"github.com/catherinevee/boardmgr/internal/ats"
	"github.com/catherinevee/boardmgr/internal/concurrency"
	"github.com/catherinevee/boardmgr/internal/enrichment"
	"github.com/catherinevee/boardmgr/internal/logger"
	"github.com/catherinevee/boardmgr/internal/metrics"
	"github.com/catherinevee/boardmgr/internal/provider"
	"github.com/catherinevee/boardmgr/internal/store"
)

// pageErrorBudget is the number of failed index pages a provider tolerates
// in one batch before its discovery window is abandoned.
const pageErrorBudget = 3

// ArchiveClient is the slice of the archive index client the orchestrator
// needs.
type ArchiveClient interface {
	ListCollections(ctx context.Context) ([]archive.Collection, error)
	PageCount(ctx context.Context, collection string, p provider.Provider) (int, error)
	FetchPage(ctx context.Context, collection string, p provider.Provider, page int) (archive.PageResult, error)
}

// BoardClient is the slice of the provider API client the orchestrator
// needs.
type BoardClient interface {
	FetchAshby(ctx context.Context, slug string) (*ats.AshbyBoard, error)
	FetchGreenhouse(ctx context.Context, token string) (*ats.GreenhouseBoard, error)
	FetchWorkable(ctx context.Context, shortcode string) (*ats.WorkableBoard, error)
	FetchLever(ctx context.Context, site string) ([]ats.LeverPosting, error)
}

// Options bounds one batch.
type Options struct {
	PagesPerProvider  int
	BoardsPerProvider int
	SyncConcurrency   int
	// FallbackCollection is used when the collection listing fails or
	// comes back empty.
	FallbackCollection string
	// Collection pins the batch to one collection, skipping the listing.
	Collection string
	// Provider restricts the batch to a single provider. Empty means the
	// full rotation.
	Provider provider.Provider
	// Extractor overrides the enrichment dictionaries. Nil uses the
	// built-in ones.
	Extractor *enrichment.SlugExtractor
}

// Orchestrator wires the clients to the store.
type Orchestrator struct {
	store   *store.Store
	archive ArchiveClient
	boards  BoardClient
	enrich  *enrichment.Pipeline
	opts    Options
	log     logger.Logger
}

// New creates an orchestrator.
func New(s *store.Store, archiveClient ArchiveClient, boardClient BoardClient, opts Options) *Orchestrator {
	if opts.PagesPerProvider <= 0 {
		opts.PagesPerProvider = 10
	}
	if opts.BoardsPerProvider <= 0 {
		opts.BoardsPerProvider = 20
	}
	if opts.SyncConcurrency <= 0 {
		opts.SyncConcurrency = 4
	}
	return &Orchestrator{
		store:   s,
		archive: archiveClient,
		boards:  boardClient,
		enrich:  enrichment.NewPipeline(opts.Extractor),
		opts:    opts,
		log:     logger.New("orchestrator"),
	}
}

// ProviderReport summarises one provider's slice of a batch.
type ProviderReport struct {
	Provider         string `json:"provider"`
	PagesFetched     int    `json:"pages_fetched"`
	PageErrors       int    `json:"page_errors"`
	DiscoveryAborted bool   `json:"discovery_aborted,omitempty"`
	DiscoverySkipped bool   `json:"discovery_skipped,omitempty"`
	BoardsDiscovered int    `json:"boards_discovered"`
	BoardsSynced     int    `json:"boards_synced"`
	SyncErrors       int    `json:"sync_errors"`
	JobsUpserted     int    `json:"jobs_upserted"`
}

// BatchReport is the outcome of one RunOneBatch call.
type BatchReport struct {
	RunID      string                     `json:"run_id"`
	Collection string                     `json:"collection"`
	Duration   string                     `json:"duration"`
	Providers  map[string]*ProviderReport `json:"providers"`
}

// discoveryPlan is one provider's page window for this batch.
type discoveryPlan struct {
	provider provider.Provider
	cursor   store.Progress
	start    int
	end      int
}

type syncItem struct {
	provider provider.Provider
	token    string
}

type syncResult struct {
	item    syncItem
	payload interface{}
}

// RunOneBatch executes one bounded batch. Provider-level failures are
// contained: an exhausted error budget on one provider never blocks the
// others, and sync always proceeds regardless of discovery outcomes.
func (o *Orchestrator) RunOneBatch(ctx context.Context) (*BatchReport, error) {
	started := time.Now()
	report := &BatchReport{
		RunID:     uuid.NewString(),
		Providers: map[string]*ProviderReport{},
	}
	for _, p := range o.syncProviders() {
		report.Providers[p.String()] = &ProviderReport{Provider: p.String()}
	}
	log := o.log.WithFields(logger.String("run_id", report.RunID))

	// Phase 1: collection listing and sync queues, in parallel. Both are
	// reads; neither depends on the other.
	var (
		wg         sync.WaitGroup
		collection string
		queueMu    sync.Mutex
		queues     = map[provider.Provider][]string{}
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		collection = o.resolveCollection(ctx, log)
	}()
	for _, p := range o.syncProviders() {
		wg.Add(1)
		go func(p provider.Provider) {
			defer wg.Done()
			keys, err := o.store.UnsyncedBoards(ctx, p, o.opts.BoardsPerProvider)
			if err != nil {
				log.Error("loading sync queue failed",
					logger.String("provider", p.String()),
					logger.Error(err))
				return
			}
			queueMu.Lock()
			queues[p] = keys
			queueMu.Unlock()
		}(p)
	}
	wg.Wait()
	report.Collection = collection

	// Phase 2: resolve each provider's discovery window from its cursor.
	var plans []discoveryPlan
	for _, p := range o.discoveryProviders() {
		plan, ok, err := o.resolveWindow(ctx, collection, p)
		if err != nil {
			log.Error("resolving discovery window failed",
				logger.String("provider", p.String()),
				logger.Error(err))
			report.Providers[p.String()].DiscoverySkipped = true
			continue
		}
		if !ok {
			report.Providers[p.String()].DiscoverySkipped = true
			continue
		}
		plans = append(plans, plan)
	}

	// Phase 3: all HTTP in one fan-out; index pages and board payloads
	// share the pool since both are outbound-bound.
	type pageFetch struct {
		plan discoveryPlan
		page int
	}
	var fetches []pageFetch
	for _, plan := range plans {
		for page := plan.start; page < plan.end; page++ {
			fetches = append(fetches, pageFetch{plan: plan, page: page})
		}
	}

	pageResults := map[provider.Provider][]archive.PageResult{}
	pageFailures := map[provider.Provider][]int{}
	var pageMu sync.Mutex

	var syncItems []syncItem
	for p, keys := range queues {
		for _, key := range keys {
			syncItems = append(syncItems, syncItem{provider: p, token: key})
		}
	}

	var fanout sync.WaitGroup
	fanout.Add(1)
	go func() {
		defer fanout.Done()
		concurrency.RunAll(ctx, fetches, o.opts.SyncConcurrency, func(ctx context.Context, f pageFetch) (struct{}, error) {
			result, err := o.archive.FetchPage(ctx, collection, f.plan.provider, f.page)
			pageMu.Lock()
			defer pageMu.Unlock()
			if err != nil {
				pageFailures[f.plan.provider] = append(pageFailures[f.plan.provider], f.page)
				metrics.PageErrors.WithLabelValues(f.plan.provider.String()).Inc()
				log.Warn("index page fetch failed",
					logger.String("provider", f.plan.provider.String()),
					logger.Int("page", f.page),
					logger.Error(err))
				return struct{}{}, nil
			}
			pageResults[f.plan.provider] = append(pageResults[f.plan.provider], result)
			metrics.PagesFetched.WithLabelValues(f.plan.provider.String()).Inc()
			return struct{}{}, nil
		})
	}()

	var fetched []syncResult
	fanout.Add(1)
	go func() {
		defer fanout.Done()
		oks, errs := concurrency.RunAll(ctx, syncItems, o.opts.SyncConcurrency, func(ctx context.Context, item syncItem) (syncResult, error) {
			payload, err := o.fetchBoard(ctx, item)
			if err != nil {
				return syncResult{}, err
			}
			return syncResult{item: item, payload: payload}, nil
		})
		fetched = oks
		for _, failure := range errs {
			report.Providers[failure.Input.provider.String()].SyncErrors++
			log.Warn("board fetch failed",
				logger.String("provider", failure.Input.provider.String()),
				logger.String("token", failure.Input.token),
				logger.Error(failure.Err))
		}
	}()
	fanout.Wait()

	// Phases 4-6 per provider: reduce pages in order, enforce the error
	// budget, commit data, then advance the cursor. Writes to companies
	// and writes to jobs touch disjoint rows, so the two arms run in
	// parallel.
	var writes sync.WaitGroup
	writes.Add(1)
	go func() {
		defer writes.Done()
		for _, plan := range plans {
			o.commitDiscovery(ctx, log, plan, pageResults[plan.provider], pageFailures[plan.provider], report)
		}
	}()
	writes.Add(1)
	go func() {
		defer writes.Done()
		o.commitSyncs(ctx, log, fetched, report)
	}()
	writes.Wait()

	report.Duration = time.Since(started).String()
	metrics.BatchDuration.Observe(time.Since(started).Seconds())
	log.Info("batch finished",
		logger.String("collection", collection),
		logger.Duration("duration", time.Since(started)))
	return report, nil
}

// syncProviders is the set of providers this batch job-syncs; a configured
// Provider narrows it to just that one.
func (o *Orchestrator) syncProviders() []provider.Provider {
	if o.opts.Provider != "" {
		return []provider.Provider{o.opts.Provider}
	}
	return provider.Syncable()
}

// discoveryProviders is the set of providers this batch crawls the archive
// for. Providers outside the discovery rotation sync but never crawl.
func (o *Orchestrator) discoveryProviders() []provider.Provider {
	if o.opts.Provider == "" {
		return provider.All()
	}
	for _, p := range provider.All() {
		if p == o.opts.Provider {
			return []provider.Provider{p}
		}
	}
	return nil
}

// resolveCollection prefers the newest listed collection and falls back to
// the configured one when the listing fails or is empty.
func (o *Orchestrator) resolveCollection(ctx context.Context, log logger.Logger) string {
	if o.opts.Collection != "" {
		return o.opts.Collection
	}
	collections, err := o.archive.ListCollections(ctx)
	if err != nil || len(collections) == 0 {
		log.Warn("collection listing unavailable, using fallback",
			logger.String("fallback", o.opts.FallbackCollection),
			logger.Error(err))
		return o.opts.FallbackCollection
	}
	return collections[0].ID
}

// resolveWindow loads or creates the provider's cursor and computes this
// batch's page window. ok is false when the collection is already done.
func (o *Orchestrator) resolveWindow(ctx context.Context, collection string, p provider.Provider) (discoveryPlan, bool, error) {
	key := p.CursorKey(collection)
	cursor, found, err := o.store.GetProgress(ctx, key)
	if err != nil {
		return discoveryPlan{}, false, err
	}
	if found && cursor.Status == store.StatusDone {
		return discoveryPlan{}, false, nil
	}
	if !found {
		total, err := o.archive.PageCount(ctx, collection, p)
		if err != nil {
			return discoveryPlan{}, false, err
		}
		cursor = store.Progress{CrawlID: key, TotalPages: total, Status: store.StatusRunning}
	}

	cursor.Status = store.StatusRunning
	if err := o.store.SaveProgress(ctx, cursor); err != nil {
		return discoveryPlan{}, false, err
	}

	end := cursor.CurrentPage + o.opts.PagesPerProvider
	if end > cursor.TotalPages {
		end = cursor.TotalPages
	}
	return discoveryPlan{provider: p, cursor: cursor, start: cursor.CurrentPage, end: end}, true, nil
}

// commitDiscovery reduces one provider's fetched pages, writes companies
// and enrichment, and advances the cursor. An exhausted error budget parks
// the cursor in the error state at the highest failed page; nothing from
// this window is committed.
func (o *Orchestrator) commitDiscovery(ctx context.Context, log logger.Logger, plan discoveryPlan, pages []archive.PageResult, failures []int, report *BatchReport) {
	pr := report.Providers[plan.provider.String()]
	pr.PagesFetched = len(pages)
	pr.PageErrors = len(failures)

	if len(failures) >= pageErrorBudget {
		pr.DiscoveryAborted = true
		highest := failures[0]
		for _, page := range failures {
			if page > highest {
				highest = page
			}
		}
		cursor := plan.cursor
		cursor.CurrentPage = highest
		cursor.Status = store.StatusError
		if err := o.store.SaveProgress(ctx, cursor); err != nil {
			log.Error("parking error cursor failed",
				logger.String("provider", plan.provider.String()),
				logger.Error(err))
		}
		log.Error("discovery window abandoned",
			logger.String("provider", plan.provider.String()),
			logger.Int("page_errors", len(failures)))
		return
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].Page < pages[j].Page })
	var records []archive.CdxRecord
	for _, page := range pages {
		records = append(records, page.Records...)
	}
	boards := archive.ExtractBoards(records, plan.provider)

	upserted, err := o.store.UpsertDiscoveredBoards(ctx, plan.provider, plan.cursor.CrawlID, boards)
	if err != nil {
		log.Error("committing discovered boards failed",
			logger.String("provider", plan.provider.String()),
			logger.Error(err))
		return
	}
	pr.BoardsDiscovered = upserted
	metrics.BoardsDiscovered.WithLabelValues(plan.provider.String()).Add(float64(upserted))

	for _, board := range boards {
		result, err := o.enrich.Run(enrichment.Input{Slug: board.Token, URL: board.URL, Timestamp: board.Timestamp})
		if err != nil {
			log.Warn("enrichment failed, nothing saved",
				logger.String("token", board.Token),
				logger.Error(err))
			continue
		}
		if err := o.store.SaveEnrichment(ctx, board.Token, result); err != nil {
			log.Warn("saving enrichment failed",
				logger.String("token", board.Token),
				logger.Error(err))
		}
	}

	// Cursor last: the window's data is durable before the cursor claims
	// it.
	cursor := plan.cursor
	cursor.CurrentPage = plan.end
	cursor.BoardsFound += upserted
	cursor.Status = store.StatusRunning
	if plan.end >= cursor.TotalPages {
		cursor.Status = store.StatusDone
	}
	if err := o.store.SaveProgress(ctx, cursor); err != nil {
		log.Error("advancing cursor failed",
			logger.String("provider", plan.provider.String()),
			logger.Error(err))
	}
}

// commitSyncs writes every fetched board payload.
func (o *Orchestrator) commitSyncs(ctx context.Context, log logger.Logger, fetched []syncResult, report *BatchReport) {
	for _, result := range fetched {
		pr := report.Providers[result.item.provider.String()]
		count, err := o.upsertBoard(ctx, result)
		if err != nil {
			pr.SyncErrors++
			log.Error("committing board sync failed",
				logger.String("provider", result.item.provider.String()),
				logger.String("token", result.item.token),
				logger.Error(err))
			continue
		}
		pr.BoardsSynced++
		pr.JobsUpserted += count
		metrics.BoardsSynced.WithLabelValues(result.item.provider.String()).Inc()
		metrics.JobsUpserted.WithLabelValues(result.item.provider.String()).Add(float64(count))
	}
}

func (o *Orchestrator) fetchBoard(ctx context.Context, item syncItem) (interface{}, error) {
	switch item.provider {
	case provider.Ashby:
		return o.boards.FetchAshby(ctx, item.token)
	case provider.Greenhouse:
		return o.boards.FetchGreenhouse(ctx, item.token)
	case provider.Workable:
		return o.boards.FetchWorkable(ctx, item.token)
	case provider.Lever:
		return o.boards.FetchLever(ctx, item.token)
	}
	return nil, fmt.Errorf("no client for provider %q", item.provider)
}

func (o *Orchestrator) upsertBoard(ctx context.Context, result syncResult) (int, error) {
	switch payload := result.payload.(type) {
	case *ats.AshbyBoard:
		return o.store.UpsertAshbyJobs(ctx, result.item.token, payload)
	case *ats.GreenhouseBoard:
		return o.store.UpsertGreenhouseJobs(ctx, result.item.token, payload)
	case *ats.WorkableBoard:
		return o.store.UpsertWorkableJobs(ctx, result.item.token, payload)
	case []ats.LeverPosting:
		return o.store.UpsertLeverJobs(ctx, result.item.token, payload)
	}
	return 0, fmt.Errorf("unexpected payload type %T", result.payload)
}

// SyncProvider fetches and commits queued boards for a single provider,
// outside the full batch. Used by the sync subcommand and endpoint.
func (o *Orchestrator) SyncProvider(ctx context.Context, p provider.Provider, limit, parallelism int) (*ProviderReport, error) {
	if limit <= 0 {
		limit = o.opts.BoardsPerProvider
	}
	if parallelism <= 0 {
		parallelism = o.opts.SyncConcurrency
	}

	keys, err := o.store.UnsyncedBoards(ctx, p, limit)
	if err != nil {
		return nil, err
	}

	items := make([]syncItem, 0, len(keys))
	for _, key := range keys {
		items = append(items, syncItem{provider: p, token: key})
	}

	report := &BatchReport{Providers: map[string]*ProviderReport{
		p.String(): {Provider: p.String()},
	}}
	oks, errs := concurrency.RunAll(ctx, items, parallelism, func(ctx context.Context, item syncItem) (syncResult, error) {
		payload, err := o.fetchBoard(ctx, item)
		if err != nil {
			return syncResult{}, err
		}
		return syncResult{item: item, payload: payload}, nil
	})
	report.Providers[p.String()].SyncErrors = len(errs)
	o.commitSyncs(ctx, o.log, oks, report)
	return report.Providers[p.String()], nil
}
