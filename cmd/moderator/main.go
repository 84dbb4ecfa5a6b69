package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/roleguard/roleguard/pkg/cache"
	"github.com/roleguard/roleguard/pkg/config"
	"github.com/roleguard/roleguard/pkg/domain/rule"
	"github.com/roleguard/roleguard/pkg/infra/database"
	infraLogger "github.com/roleguard/roleguard/pkg/infra/logger"
	"github.com/roleguard/roleguard/pkg/infra/lookup"
	"github.com/roleguard/roleguard/pkg/infra/providers/factory"
	"github.com/roleguard/roleguard/pkg/infra/repository"
	"github.com/roleguard/roleguard/pkg/moderation/arbiter"
	"github.com/roleguard/roleguard/pkg/moderation/learner"
	"github.com/roleguard/roleguard/pkg/moderation/matcher"
	"github.com/roleguard/roleguard/pkg/moderation/patternstore"
	"github.com/roleguard/roleguard/pkg/moderation/persona"
	"github.com/roleguard/roleguard/pkg/moderation/pipeline"
)

func main() {
	configDir := flag.String("config", "./config", "directory containing config.yaml")
	replyMode := flag.Bool("reply", false, "check outbound reply text instead of inbound messages")
	personaID := flag.String("persona", "default", "persona id for fallback line selection in -reply mode")
	flag.Parse()

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	if err := config.Load(*configDir); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.GetConfig()

	logger := infraLogger.NewLogger(cfg.Logging.Level)
	ctx := context.Background()

	var repo rule.Repository
	if cfg.Database.Host != "" {
		db, err := database.NewDB(logger, &database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			logger.Fatalf("failed to initialize database: %v", err)
		}
		defer db.Close()
		repo = repository.NewRuleRepository(db.DB)
	} else {
		logger.Warn("no database configured, learned rules will not persist")
	}

	guard := persona.NewGuard(cfg.Persona, logger)
	if *replyMode {
		runReplyLoop(guard, *personaID)
		return
	}

	store := patternstore.NewStore(logger, repo)
	if repo != nil {
		if err := store.LoadLearned(ctx); err != nil {
			logger.WithError(err).Warn("could not load learned rules")
		}
	}

	quota := cache.NewQuotaCache(cfg.Redis, cfg.Quota, logger, nil)
	if err := quota.Restore(ctx); err != nil {
		logger.WithError(err).Warn("could not restore quota counters")
	}

	m := matcher.NewStaticMatcher(store, logger)
	l := learner.NewVocabularyLearner(
		store,
		quota,
		lookup.NewClient(cfg.Lookup, nil, logger),
		repo,
		cfg.Learner,
		logger,
	)
	judge := arbiter.NewContextArbiter(factory.NewProviderLocator(), cfg.Judge, logger)

	p := pipeline.NewPipeline(m, judge, l, cfg.Learner.QueueSize, logger)
	defer p.Close()

	runVerdictLoop(ctx, p, guard)
}

// runVerdictLoop reads one message per stdin line and prints the verdict as
// JSON, plus the inbound meta-question advice.
func runVerdictLoop(ctx context.Context, p *pipeline.Pipeline, guard *persona.Guard) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	enc := json.NewEncoder(os.Stdout)

	for scanner.Scan() {
		text := scanner.Text()
		if text == "" {
			continue
		}
		out := struct {
			Verdict interface{} `json:"verdict"`
			Meta    interface{} `json:"meta"`
		}{
			Verdict: p.Evaluate(ctx, pipeline.Input{Text: text}),
			Meta:    guard.CheckInbound(text),
		}
		if err := enc.Encode(out); err != nil {
			log.Fatalf("failed to encode verdict: %v", err)
		}
	}
}

// runReplyLoop checks outbound reply text per stdin line. Flagged replies
// are printed with the persona's substitute line.
func runReplyLoop(guard *persona.Guard, personaID string) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	enc := json.NewEncoder(os.Stdout)

	for scanner.Scan() {
		text := scanner.Text()
		if text == "" {
			continue
		}
		result := guard.CheckOutbound(text)
		out := struct {
			Result   interface{} `json:"result"`
			Fallback string      `json:"fallback,omitempty"`
		}{Result: result}
		if !result.IsValid {
			out.Fallback = guard.FallbackLine(personaID)
		}
		if err := enc.Encode(out); err != nil {
			log.Fatalf("failed to encode result: %v", err)
		}
	}
}
