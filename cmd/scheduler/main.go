// Command scheduler is the long-running process that drives C9: it wires
// storage, connectors, the fit analyzer, and the notifier once at startup,
// then blocks in scheduler.Scheduler.Run until a shutdown signal arrives.
// Grounded on the teacher's cmd/scheduler/main.go (config load, signal
// handling, store init, run-in-goroutine, graceful shutdown), with the
// etcd leader election and Redis job queue dropped: spec.md §5 describes
// a single process with cooperative, in-process concurrency, not a
// multi-replica leader/follower deployment.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "jobradar/configs"
	"jobradar/pkg/connectors"
	apiconn "jobradar/pkg/connectors/api"
	pageconn "jobradar/pkg/connectors/page"
	searchconn "jobradar/pkg/connectors/search"
	"jobradar/pkg/discovery"
	"jobradar/pkg/fetch"
	"jobradar/pkg/llm"
	"jobradar/pkg/logger"
	"jobradar/pkg/notifier"
	"jobradar/pkg/pipeline"
	"jobradar/pkg/scheduler"
	"jobradar/pkg/searchapi"
	"jobradar/pkg/storage/cache"
	"jobradar/pkg/storage/postgres"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	log, err := logger.Init(logger.Config{Level: "info", Encoding: "json", OutputPath: "stdout", Service: "scheduler"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "scheduler: failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	connStr := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
	store, err := postgres.New(connStr)
	if err != nil {
		log.Fatal("scheduler: failed to initialize storage", zap.Error(err))
	}
	defer store.Close()
	log.Info("scheduler: postgres connected & schema migrated")

	redisAddr := fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort)
	rcache, err := cache.New(redisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal("scheduler: failed to initialize cache", zap.Error(err))
	}
	defer rcache.Close()
	log.Info("scheduler: redis connected")

	tz, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		log.Warn("scheduler: unknown TZ, falling back to UTC", zap.String("tz", cfg.TZ), zap.Error(err))
		tz = time.UTC
	}

	httpClient := &http.Client{Timeout: 20 * time.Second}
	fetchClient := fetch.NewClient(httpClient)

	searchKeys := cache.NewKeyRotator(rcache, "search", cfg.SearchAPIKeys)
	searchClient := searchapi.NewClient(cfg.SearchAPIBaseURL, httpClient, searchKeys)

	sources, err := buildSources(cfg, fetchClient, searchClient)
	if err != nil {
		log.Fatal("scheduler: failed to build sources", zap.Error(err))
	}

	discoveryRunner := discovery.NewRunner(searchClient, store)
	discoveryQueries, err := loadDiscoveryQueries(cfg)
	if err != nil {
		log.Warn("scheduler: failed to load discovery queries, discovery slot disabled", zap.Error(err))
	}

	scoringCfg, err := config.LoadScoring(cfg.ConfigDir)
	if err != nil {
		log.Fatal("scheduler: failed to load scoring config", zap.Error(err))
	}
	locationsCfg, err := config.LoadLocations(cfg.ConfigDir)
	if err != nil {
		log.Fatal("scheduler: failed to load locations config", zap.Error(err))
	}
	modesCfg, err := config.LoadModes(cfg.ConfigDir)
	if err != nil {
		log.Fatal("scheduler: failed to load modes config", zap.Error(err))
	}
	titlesCfg, err := config.LoadTitleFilters(cfg.ConfigDir)
	if err != nil {
		log.Fatal("scheduler: failed to load title filters", zap.Error(err))
	}

	resume := loadResume(ctx, rcache, log)

	llmKeys := llm.NewPool(cfg.LLMKeys)
	analyzer := llm.NewAnalyzer(httpClient, llmKeys, llm.Config{
		Primary:        llm.Provider{Name: "primary", BaseURL: cfg.LLMBaseURL, Model: cfg.LLMModel},
		Fallback:       llm.Provider{Name: "fallback", BaseURL: cfg.LLMFallbackBaseURL, Model: cfg.LLMFallbackModel},
		FallbackKey:    cfg.LLMFallbackKey,
		StallTimeout:   15 * time.Second,
		HardCapTimeout: 60 * time.Second,
	})

	bots := &notifier.BotClients{
		HTTP:       httpClient,
		JobsToken:  cfg.NotifierJobsBotToken,
		JobsChatID: cfg.NotifierJobsChatID,
		LogsToken:  cfg.NotifierLogsBotToken,
		LogsChatID: cfg.NotifierLogsChatID,
	}
	notif := notifier.NewTelegramNotifier(bots, store, log, cfg.DryRun)

	orch := pipeline.New(pipeline.Deps{
		Store:   store,
		Sources: sources,
		Boards:  store,
		Config: pipeline.Config{
			Scoring:            scoringCfg,
			Locations:          locationsCfg,
			Modes:              modesCfg,
			Titles:             titlesCfg,
			AIAnalysisMinScore: cfg.AIAnalysisMinScore,
			DedupWindowDays:    30,
			BatchSize:          5,
			TimeZone:           tz,
		},
		Analyzer: analyzer,
		Resume:   resume,
		Notifier: notif,
		Log:      log,
	})

	sched := scheduler.New(scheduler.Deps{
		Orchestrator:     orch,
		Discovery:        discoveryRunner,
		DiscoveryQueries: discoveryQueries,
		Store:            store,
		Notifier:         notif,
		TimeZone:         tz,
		Log:              log,
	})

	log.Info("scheduler: starting main work loop")
	go sched.Run(ctx)

	sig := <-sigChan
	log.Info("scheduler: received signal, shutting down", zap.String("signal", sig.String()))
	cancel()
	log.Info("scheduler: shutdown complete")
}

// buildSources turns the JSON source/company configs into the connector
// bindings the orchestrator drives, per spec.md §4.2/§4.8. Each source
// name maps to exactly one connector implementation; an unrecognized
// name is skipped rather than aborting startup, since a bad config entry
// shouldn't take down every other source.
func buildSources(cfg *config.Config, httpClient *fetch.Client, searchClient *searchapi.Client) ([]pipeline.Source, error) {
	defs, err := config.LoadSources(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}
	companies, err := config.LoadCompanies(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("load companies: %w", err)
	}

	var out []pipeline.Source
	for name, def := range defs {
		if !def.Enabled {
			continue
		}

		var conn connectors.Connector
		switch name {
		case "greenboard":
			conn = apiconn.NewGreenboardConnector(httpClient, name)
		case "leverpost":
			conn = apiconn.NewLeverpostConnector(httpClient, name)
		case "lever_page":
			conn = pageconn.NewConnector(httpClient, name, def.Platform)
		case "workable_page":
			conn = pageconn.NewConnector(httpClient, name, def.Platform)
		case "search_aggregators", "search_underground":
			conn = searchconn.NewConnector(searchClient, name)
		default:
			continue
		}

		companiesKey := name
		if def.Platform != "" {
			companiesKey = def.Platform
		}
		out = append(out, pipeline.Source{
			Name:      name,
			Connector: conn,
			Def:       def,
			Companies: companies[companiesKey],
			Category:  def.Schedule,
		})
	}
	return out, nil
}

// loadDiscoveryQueries pulls the preconfigured queries off the two search
// source defs, since discovery (C3) reuses the same query list as the
// aggregator/underground search connectors rather than keeping its own.
func loadDiscoveryQueries(cfg *config.Config) ([]string, error) {
	defs, err := config.LoadSources(cfg.ConfigDir)
	if err != nil {
		return nil, err
	}
	var queries []string
	for _, name := range []string{"search_aggregators", "search_underground"} {
		if def, ok := defs[name]; ok {
			queries = append(queries, def.Queries...)
		}
	}
	return queries, nil
}

// loadResume implements spec.md §4.7's "a resume blob loaded once and
// cached": check the Redis cache first, fall back to the on-disk file
// named by RESUME_PATH, and warm the cache on a miss. Resume text
// loading's own format/parsing is out of scope (spec.md's Non-goals), so
// this just reads bytes.
func loadResume(ctx context.Context, rcache *cache.Cache, log *zap.Logger) string {
	const profile = "default"
	if text, ok, err := rcache.GetResumeText(ctx, profile); err == nil && ok {
		return text
	}

	path := os.Getenv("RESUME_PATH")
	if path == "" {
		path = "./resume.txt"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("scheduler: no resume text available, fit analysis will run without one", zap.String("path", path), zap.Error(err))
		return ""
	}

	text := string(data)
	if err := rcache.SetResumeText(ctx, profile, text); err != nil {
		log.Warn("scheduler: failed to cache resume text", zap.Error(err))
	}
	return text
}
