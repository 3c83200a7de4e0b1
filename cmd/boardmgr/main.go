package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/catherinevee/boardmgr/internal/api"
	"github.com/catherinevee/boardmgr/internal/archive"
	"github.com/catherinevee/boardmgr/internal/ats"
	"github.com/catherinevee/boardmgr/internal/config"
	"github.com/catherinevee/boardmgr/internal/logger"
	"github.com/catherinevee/boardmgr/internal/orchestrator"
	"github.com/catherinevee/boardmgr/internal/provider"
	"github.com/catherinevee/boardmgr/internal/store"
)

const version = "1.2.0"

func main() {
	if len(os.Args) < 2 {
		showHelp()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "serve":
		err = runServe(args)
	case "crawl":
		err = runCrawl(args)
	case "sync":
		err = runSync(args)
	case "migrate":
		err = runMigrate(args)
	case "version", "--version", "-v":
		fmt.Printf("boardmgr %s\n", version)
	case "help", "--help", "-h":
		showHelp()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", command)
		showHelp()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func showHelp() {
	fmt.Println("Usage: boardmgr <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve     Run the HTTP API and the scheduled batch loop")
	fmt.Println("  crawl     Run one discovery+sync batch and exit")
	fmt.Println("  sync      Sync queued boards for one provider and exit")
	fmt.Println("  migrate   Apply pending database migrations and exit")
	fmt.Println("  version   Show version information")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  boardmgr serve --config config.yaml")
	fmt.Println("  boardmgr crawl --pages 5")
	fmt.Println("  boardmgr sync --provider greenhouse --limit 50")
}

// setup loads configuration, initialises logging, and opens the migrated
// store.
func setup(configPath string) (*config.Config, *store.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Initialize(cfg.Logging)

	s, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	if err := s.Migrate(context.Background()); err != nil {
		s.Close()
		return nil, nil, err
	}
	return cfg, s, nil
}

func clients(cfg *config.Config) (*archive.Client, *ats.Client) {
	timeout := time.Duration(cfg.Archive.TimeoutSeconds) * time.Second
	return archive.NewClient(cfg.Archive.BaseURL, cfg.Archive.RequestsPerSecond, timeout),
		ats.NewClient(timeout)
}

func batchOptions(cfg *config.Config) orchestrator.Options {
	return orchestrator.Options{
		PagesPerProvider:   cfg.Batch.PagesPerProvider,
		BoardsPerProvider:  cfg.Batch.BoardsPerProvider,
		SyncConcurrency:    cfg.Batch.SyncConcurrency,
		FallbackCollection: cfg.Archive.FallbackCollection,
		Extractor:          cfg.Enrichment.Extractor(),
	}
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	fs.Parse(args)

	cfg, s, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer s.Close()

	archiveClient, boardClient := clients(cfg)
	srv := api.New(s, archiveClient, boardClient, batchOptions(cfg))
	log := logger.New("serve")

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Scheduled batches run alongside the API until shutdown.
	go func() {
		o := orchestrator.New(s, archiveClient, boardClient, batchOptions(cfg))
		ticker := time.NewTicker(cfg.Sync.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := o.RunOneBatch(ctx); err != nil {
					log.Error("scheduled batch failed", logger.Error(err))
				}
			}
		}
	}()

	go func() {
		log.Info("listening", logger.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server stopped", logger.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func runCrawl(args []string) error {
	fs := flag.NewFlagSet("crawl", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	pages := fs.Int("pages", 0, "index pages per provider this run")
	collection := fs.String("collection", "", "pin the batch to one collection")
	providerName := fs.String("provider", "", "restrict the batch to one provider")
	fs.Parse(args)

	cfg, s, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer s.Close()

	opts := batchOptions(cfg)
	if *pages > 0 {
		opts.PagesPerProvider = *pages
	}
	opts.Collection = *collection
	if *providerName != "" {
		p, err := provider.Parse(*providerName)
		if err != nil {
			return err
		}
		opts.Provider = p
	}

	archiveClient, boardClient := clients(cfg)
	o := orchestrator.New(s, archiveClient, boardClient, opts)
	report, err := o.RunOneBatch(context.Background())
	if err != nil {
		return err
	}
	return printJSON(report)
}

func runSync(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	providerName := fs.String("provider", "", "provider to sync (ashby, greenhouse, workable, lever)")
	limit := fs.Int("limit", 0, "boards to sync this run")
	parallelism := fs.Int("concurrency", 0, "concurrent board fetches")
	fs.Parse(args)

	p, err := provider.Parse(*providerName)
	if err != nil {
		return err
	}

	cfg, s, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer s.Close()

	archiveClient, boardClient := clients(cfg)
	o := orchestrator.New(s, archiveClient, boardClient, batchOptions(cfg))
	report, err := o.SyncProvider(context.Background(), p, *limit, *parallelism)
	if err != nil {
		return err
	}
	return printJSON(report)
}

func runMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	fs.Parse(args)

	_, s, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer s.Close()

	applied, err := s.AppliedMigrations(context.Background())
	if err != nil {
		return err
	}
	for _, name := range applied {
		fmt.Println(name)
	}
	return nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
