package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kirillkom/dialogue-qa/internal/config"
	"github.com/kirillkom/dialogue-qa/internal/core/ports"
	"github.com/kirillkom/dialogue-qa/internal/core/usecase"
	"github.com/kirillkom/dialogue-qa/internal/infrastructure/extractor"
	"github.com/kirillkom/dialogue-qa/internal/infrastructure/httpjson"
	"github.com/kirillkom/dialogue-qa/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/dialogue-qa/internal/infrastructure/nlp/lemmacache"
	"github.com/kirillkom/dialogue-qa/internal/infrastructure/nlp/spacyhttp"
	"github.com/kirillkom/dialogue-qa/internal/infrastructure/qamodel"
	"github.com/kirillkom/dialogue-qa/internal/infrastructure/queue/nats"
	"github.com/kirillkom/dialogue-qa/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/dialogue-qa/internal/infrastructure/resilience"
	"github.com/kirillkom/dialogue-qa/internal/infrastructure/search/elastic"
	"github.com/kirillkom/dialogue-qa/internal/infrastructure/session/memory"
	"github.com/kirillkom/dialogue-qa/internal/infrastructure/session/redisstore"
	"github.com/kirillkom/dialogue-qa/internal/infrastructure/storage/localfs"
)

// Hooks lets a process attach its own observability to the wiring.
type Hooks struct {
	Observer    usecase.DialogueObserver
	WrapIndexer func(ports.DocumentIndexer) ports.DocumentIndexer
}

// Dialogue is the answering stack: NLP and model clients, the search index
// and the session store. The MCP server needs nothing else.
type Dialogue struct {
	Config config.Config
	Logger *slog.Logger

	Index    *elastic.Client
	Sessions ports.SessionStore
	Service  *usecase.DialogueUseCase

	executor *resilience.Executor
	db       *sql.DB
	closers  []func()
}

// App adds corpus ingestion on top of the dialogue stack.
type App struct {
	*Dialogue

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
}

func NewDialogue(ctx context.Context, cfg config.Config, logger *slog.Logger, hooks Hooks) (*Dialogue, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dialogue{
		Config:   cfg,
		Logger:   logger,
		executor: resilience.NewExecutor(cfg.Resilience),
	}

	sessions, err := d.sessionStore(ctx)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.Sessions = sessions

	nlp := spacyhttp.New(d.httpClient("nlp", cfg.NLPServiceURL))
	lemmas := lemmacache.New(nlp, cfg.LemmaCacheTTL)
	qa := qamodel.New(d.httpClient("qa_model", cfg.QAModelURL), cfg.QAMinScore)
	llm := ollama.New(d.httpClient("ollama", cfg.OllamaURL), cfg.OllamaModel)
	d.Index = elastic.New(d.httpClient("elasticsearch", cfg.ElasticsearchURL), elastic.Options{
		Index:            cfg.ElasticsearchIndex,
		SortByPopularity: cfg.ElasticsearchSortByPopularity,
	})

	settings := cfg.Pipeline.Settings()
	pipeline := usecase.NewQAPipeline(
		usecase.NewQueryReformulator(nlp, settings),
		usecase.NewPassageScorer(d.Index, nlp, settings),
		usecase.NewAnswerConsensus(qa, lemmas, settings, logger),
		logger,
	)
	d.Service = usecase.NewDialogueUseCase(usecase.DialogueDeps{
		Sessions:   sessions,
		Window:     usecase.NewContextWindow(sessions, settings.ContextDepth),
		Coref:      usecase.NewCoreferenceResolver(nlp, nlp),
		QA:         pipeline,
		Classifier: ollama.NewIntentClassifier(llm),
		Chat:       ollama.NewChatResponder(llm),
		Observer:   hooks.Observer,
		Logger:     logger,
		Timeout:    settings.TurnTimeout,
	})
	return d, nil
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger, hooks Hooks) (*App, error) {
	d, err := NewDialogue(ctx, cfg, logger, hooks)
	if err != nil {
		return nil, err
	}
	app := &App{Dialogue: d}
	if err := app.wireIngestion(ctx, hooks); err != nil {
		d.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wireIngestion(ctx context.Context, hooks Hooks) error {
	db, err := a.postgres(ctx)
	if err != nil {
		return err
	}
	repo := postgres.NewDocumentRepository(db)

	storage, err := localfs.New(a.Config.StoragePath)
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(a.Config.NATSURL, a.Config.NATSSubject, nats.Options{
		QueueGroup:         a.Config.NATSQueueGroup,
		ResilienceExecutor: a.executor,
		Logger:             a.Logger,
	})
	if err != nil {
		return fmt.Errorf("init message queue: %w", err)
	}
	a.closers = append(a.closers, queue.Close)

	var indexer ports.DocumentIndexer = a.Index
	if hooks.WrapIndexer != nil {
		indexer = hooks.WrapIndexer(indexer)
	}

	a.Queue = queue
	a.Repo = repo
	a.IngestUC = usecase.NewIngestDocumentUseCase(repo, storage, queue)
	a.ProcessUC = usecase.NewProcessDocumentUseCase(repo, extractor.New(storage, a.Config.MaxUploadBytes), indexer)
	return nil
}

func (d *Dialogue) httpClient(service, baseURL string) *httpjson.Client {
	return httpjson.New(service, baseURL, httpjson.Options{Executor: d.executor})
}

func (d *Dialogue) sessionStore(ctx context.Context) (ports.SessionStore, error) {
	switch strings.ToLower(strings.TrimSpace(d.Config.SessionBackend)) {
	case "", config.SessionBackendMemory:
		return memory.New(), nil
	case config.SessionBackendRedis:
		client := redisstore.NewClient(d.Config.RedisURL)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		d.closers = append(d.closers, func() { _ = client.Close() })
		return redisstore.New(goredis.UniversalClient(client), redisstore.Options{TTL: d.Config.SessionTTL}), nil
	case config.SessionBackendPostgres:
		db, err := d.postgres(ctx)
		if err != nil {
			return nil, err
		}
		return postgres.NewSessionRepository(db), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", d.Config.SessionBackend)
	}
}

// postgres opens the database once and ensures the schema.
func (d *Dialogue) postgres(ctx context.Context) (*sql.DB, error) {
	if d.db != nil {
		return d.db, nil
	}
	db, err := postgres.OpenDB(d.Config.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	d.db = db
	d.closers = append(d.closers, func() { _ = db.Close() })
	return db, nil
}

func (d *Dialogue) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}
