// Command executor is the ad-hoc operator CLI from spec.md §6: discover,
// ingest, digest, backfill, replay, cleanup-expired, archive-old-jobs,
// health-check, status, and retry-alerts, each a one-shot invocation
// against the same Postgres store the scheduler and API share. Grounded
// on the teacher's cmd/executor/main.go (config load, signal-aware
// context, store init, single collaborator constructed then run) with
// the etcd leader election and Redis job-queue worker loop dropped:
// spec.md §6 describes discrete operator commands, not a queue consumer.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	config "jobradar/configs"
	"jobradar/pkg/cleanup"
	"jobradar/pkg/connectors"
	apiconn "jobradar/pkg/connectors/api"
	pageconn "jobradar/pkg/connectors/page"
	searchconn "jobradar/pkg/connectors/search"
	"jobradar/pkg/discovery"
	"jobradar/pkg/fetch"
	"jobradar/pkg/llm"
	"jobradar/pkg/logger"
	"jobradar/pkg/models"
	"jobradar/pkg/notifier"
	"jobradar/pkg/pipeline"
	"jobradar/pkg/scheduler"
	"jobradar/pkg/searchapi"
	"jobradar/pkg/storage/cache"
	"jobradar/pkg/storage/postgres"
	"jobradar/pkg/sysstats"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	log, err := logger.Init(logger.Config{Level: "info", Encoding: "json", OutputPath: "stdout", Service: "executor"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "executor: failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info("executor: received signal, cancelling", zap.String("signal", sig.String()))
		cancel()
	}()

	env, err := wireEnv(log)
	if err != nil {
		log.Fatal("executor: failed to wire dependencies", zap.Error(err))
	}
	defer env.store.Close()
	defer env.rcache.Close()

	switch cmd {
	case "discover":
		err = runDiscover(ctx, env)
	case "ingest":
		err = runIngest(ctx, env)
	case "backfill":
		err = runBackfill(ctx, env)
	case "digest":
		err = runDigest(ctx, env, args)
	case "replay":
		err = runReplay(ctx, env, args)
	case "cleanup-expired":
		err = runCleanupExpired(ctx, env)
	case "archive-old-jobs":
		err = runArchiveOldJobs(ctx, env)
	case "health-check":
		err = runHealthCheck(ctx, env)
	case "status":
		err = runStatus(ctx, env)
	case "retry-alerts":
		err = runRetryAlerts(ctx, env)
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		log.Error("executor: command failed", zap.String("command", cmd), zap.Error(err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: executor <command> [flags]

commands:
  discover                               run one discovery sweep for new boards
  ingest                                 run a full ingest across every connector family
  backfill                               like ingest, but suppresses alerts (spec.md backfill mode)
  digest [morning|evening|weekly] [--force-all]
  replay --source NAME --date YYYY-MM-DD
  cleanup-expired
  archive-old-jobs
  health-check
  status
  retry-alerts`)
}

// env bundles every collaborator a subcommand might need. Each command
// constructs the full set even when it only uses part of it, matching how
// cmd/scheduler/main.go and cmd/api/main.go each independently wire their
// own deps rather than sharing an internal wiring package.
type env struct {
	store        *postgres.Store
	rcache       *cache.Cache
	fetchClient  *fetch.Client
	searchClient *searchapi.Client
	notifier     notifier.Notifier
	bots         *notifier.BotClients
	orchestrator *pipeline.Orchestrator
	discovery    *discovery.Runner
	queries      []string
	tz           *time.Location
	log          *zap.Logger
}

func wireEnv(log *zap.Logger) (*env, error) {
	cfg := config.LoadConfig()

	connStr := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
	store, err := postgres.New(connStr)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	redisAddr := fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort)
	rcache, err := cache.New(redisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init cache: %w", err)
	}

	tz, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		tz = time.UTC
	}

	httpClient := &http.Client{Timeout: 20 * time.Second}
	fetchClient := fetch.NewClient(httpClient)

	searchKeys := cache.NewKeyRotator(rcache, "search", cfg.SearchAPIKeys)
	searchClient := searchapi.NewClient(cfg.SearchAPIBaseURL, httpClient, searchKeys)

	sources, err := buildSources(cfg, fetchClient, searchClient)
	if err != nil {
		return nil, fmt.Errorf("build sources: %w", err)
	}

	discoveryRunner := discovery.NewRunner(searchClient, store)
	queries, _ := loadDiscoveryQueries(cfg)

	scoringCfg, err := config.LoadScoring(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("load scoring config: %w", err)
	}
	locationsCfg, err := config.LoadLocations(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("load locations config: %w", err)
	}
	modesCfg, err := config.LoadModes(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("load modes config: %w", err)
	}
	titlesCfg, err := config.LoadTitleFilters(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("load title filters: %w", err)
	}

	resume := loadResume(context.Background(), rcache)

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

	return &env{
		store:        store,
		rcache:       rcache,
		fetchClient:  fetchClient,
		searchClient: searchClient,
		notifier:     notif,
		bots:         bots,
		orchestrator: orch,
		discovery:    discoveryRunner,
		queries:      queries,
		tz:           tz,
		log:          log,
	}, nil
}

func runDiscover(ctx context.Context, e *env) error {
	if len(e.queries) == 0 {
		return fmt.Errorf("no discovery queries configured")
	}
	found, err := e.discovery.Run(ctx, e.queries)
	if err != nil {
		return err
	}
	e.log.Info("executor: discover complete", zap.Int("boardsFound", found))
	return nil
}

func runIngest(ctx context.Context, e *env) error {
	result, err := e.orchestrator.Run(ctx, models.RunTypeCatchUp, false, false, pipeline.RunConnectorOptions{
		IncludeATS:         true,
		IncludeAggregators: true,
		IncludeUnderground: true,
	})
	if err != nil {
		return err
	}
	e.log.Info("executor: ingest complete", zap.String("status", string(result.Status)), zap.Any("counts", result.Counts))
	return nil
}

func runBackfill(ctx context.Context, e *env) error {
	result, err := e.orchestrator.Run(ctx, models.RunTypeBackfill, false, true, pipeline.RunConnectorOptions{
		IncludeATS:         true,
		IncludeAggregators: true,
		IncludeUnderground: true,
	})
	if err != nil {
		return err
	}
	e.log.Info("executor: backfill complete", zap.String("status", string(result.Status)), zap.Any("counts", result.Counts))
	return nil
}

func runDigest(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("digest", flag.ContinueOnError)
	forceAll := fs.Bool("force-all", false, "include every job status, not just active")
	if err := fs.Parse(args); err != nil {
		return err
	}
	period := "morning"
	if fs.NArg() > 0 {
		period = fs.Arg(0)
	}
	lookback := 24 * time.Hour
	if period == "weekly" {
		lookback = 7 * 24 * time.Hour
	}
	return scheduler.SendDigest(ctx, e.store, e.notifier, scheduler.DigestOptions{
		Period:   period,
		Lookback: lookback,
		ForceAll: *forceAll,
	}, e.log)
}

func runReplay(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	source := fs.String("source", "", "source name to replay")
	dateStr := fs.String("date", "", "date to replay, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *source == "" || *dateStr == "" {
		return fmt.Errorf("replay requires --source and --date")
	}
	date, err := time.ParseInLocation("2006-01-02", *dateStr, e.tz)
	if err != nil {
		return fmt.Errorf("invalid --date: %w", err)
	}

	result, err := e.orchestrator.Replay(ctx, *source, date)
	if err != nil {
		return err
	}
	e.log.Info("executor: replay complete",
		zap.String("source", *source),
		zap.String("date", *dateStr),
		zap.String("status", string(result.Status)),
		zap.Any("counts", result.Counts))
	return nil
}

func runCleanupExpired(ctx context.Context, e *env) error {
	result, err := cleanup.Run(ctx, e.store, e.fetchClient, cleanup.Options{}, e.log)
	if err != nil {
		return err
	}
	e.log.Info("executor: cleanup-expired complete",
		zap.Int("checked", result.Checked),
		zap.Int("expired", result.Expired),
		zap.Int("errored", result.Errored))
	return nil
}

func runArchiveOldJobs(ctx context.Context, e *env) error {
	result, err := scheduler.ArchiveAndPurge(ctx, e.store)
	if err != nil {
		return err
	}
	e.log.Info("executor: archive-old-jobs complete",
		zap.Int64("archived", result.Archived),
		zap.Int64("purged", result.Purged))
	return nil
}

func runHealthCheck(ctx context.Context, e *env) error {
	if _, err := e.store.LastCompletedRun(ctx); err != nil {
		fmt.Println("UNHEALTHY: store unreachable:", err)
		return err
	}
	stats := sysstats.Read()
	fmt.Printf("OK cpu=%.1f%% mem=%.1f%% goroutines=%d\n", stats.CPUPercent, stats.UsedMemPercent, stats.GoroutineCount)
	return nil
}

func runStatus(ctx context.Context, e *env) error {
	stats := sysstats.Read()
	fmt.Printf("cpu=%.1f%% mem=%.1f%% goroutines=%d\n", stats.CPUPercent, stats.UsedMemPercent, stats.GoroutineCount)

	run, err := e.store.LastCompletedRun(ctx)
	if err != nil {
		return err
	}
	if run == nil {
		fmt.Println("no completed runs yet")
		return nil
	}
	finishedAt := "unknown"
	if run.FinishedAt != nil {
		finishedAt = run.FinishedAt.Format(time.RFC3339)
	}
	fmt.Printf("last run: type=%s status=%s counts=%v finishedAt=%s\n", run.Type, run.Status, run.Counts, finishedAt)
	return nil
}

func runRetryAlerts(ctx context.Context, e *env) error {
	sent, err := notifier.FlushDue(ctx, e.store, e.bots, e.log, time.Now())
	if err != nil {
		return err
	}
	e.log.Info("executor: retry-alerts complete", zap.Int("sent", sent))
	return nil
}

// buildSources mirrors cmd/scheduler/main.go's source-binding logic; kept
// as its own copy here rather than shared, matching that entrypoint's own
// independent wiring.
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

func loadResume(ctx context.Context, rcache *cache.Cache) string {
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
		return ""
	}
	text := string(data)
	_ = rcache.SetResumeText(ctx, profile, text)
	return text
}
