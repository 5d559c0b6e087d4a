package usreport

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/siherrmann/usreport/core/corpus"
	"github.com/siherrmann/usreport/core/pipeline"
	"github.com/siherrmann/usreport/core/prompt"
	"github.com/siherrmann/usreport/core/retrieval"
	"github.com/siherrmann/usreport/database"
	"github.com/siherrmann/usreport/helper"
	"github.com/siherrmann/usreport/model"
	"google.golang.org/genai"
)

// Reporter runs the report pipeline: extract findings, retrieve reference
// segments per organ, compose the prompt and generate the report.
type Reporter struct {
	Config   model.Config
	Pipeline *pipeline.Pipeline
	Builder  retrieval.IndexBuilder
	// Only set for the pgvector backend
	DB       *helper.Database
	Segments *database.SegmentsDBHandler

	resolver *retrieval.Resolver
	// Without extractor and generator, see WithRetrievalOnly
	retrievalOnly bool

	// Corpus state, replaced as a whole on reload
	mu         sync.RWMutex
	kb         model.KnowledgeBase
	retrievers *retrieval.Retrievers

	// Logging
	log *slog.Logger
}

// Option configures a Reporter
type Option func(*Reporter)

// WithPipeline sets the model facing functions instead of the default Gemini and hugot ones
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(r *Reporter) {
		r.Pipeline = p
	}
}

// WithIndexBuilder overrides the index builder selected by the configured backend
func WithIndexBuilder(builder retrieval.IndexBuilder) Option {
	return func(r *Reporter) {
		r.Builder = builder
	}
}

// WithDatabase sets the database used by the pgvector backend
func WithDatabase(db *helper.Database) Option {
	return func(r *Reporter) {
		r.DB = db
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reporter) {
		if logger != nil {
			r.log = logger
		}
	}
}

// WithRetrievalOnly creates a Reporter that only loads the corpus, resolves findings and
// composes prompts. The default pipeline then needs no API key unless the genai embedder is used.
func WithRetrievalOnly() Option {
	return func(r *Reporter) {
		r.retrievalOnly = true
	}
}

// Trace holds the intermediate artifacts of one report run
type Trace struct {
	Findings  *model.FindingsSet `json:"findings"`
	Retrieved model.Retrieved    `json:"retrieved"`
	Prompt    string             `json:"prompt"`
	Report    string             `json:"report"`
}

// NewReporter creates a Reporter for the configuration.
// Without WithPipeline the default pipeline is created, which needs an API key.
func NewReporter(ctx context.Context, config model.Config, opts ...Option) (*Reporter, error) {
	if err := config.Validate(); err != nil {
		return nil, helper.NewError("validate config", err)
	}

	r := &Reporter{
		Config: config,
		log:    helper.NewLogger(os.Stdout, slog.LevelInfo),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.Pipeline == nil {
		if err := r.UseDefaultPipeline(ctx); err != nil {
			return nil, err
		}
	}
	validate := r.Pipeline.Validate
	if r.retrievalOnly {
		validate = r.Pipeline.ValidateRetrieval
	}
	if err := validate(); err != nil {
		return nil, helper.NewError("validate pipeline", err)
	}

	if r.Builder == nil {
		if err := r.useConfiguredBackend(ctx); err != nil {
			return nil, err
		}
	}

	r.resolver = retrieval.NewResolver(retrieval.QueryPolicyFromConfig(config.Retriever))

	return r, nil
}

// UseDefaultPipeline sets up the markdown splitter, the configured embedder
// and Gemini models for extraction and generation.
func (r *Reporter) UseDefaultPipeline(ctx context.Context) error {
	var client *genai.Client
	var err error
	// Retrieval only runs need a client for the genai embedder alone
	if !r.retrievalOnly || r.Config.Embedder == model.EmbedderGenAI {
		client, err = pipeline.NewGenAIClient(ctx, r.Config.APIKey, "")
		if err != nil {
			return helper.NewError("create genai client", err)
		}
	}

	var embedder pipeline.EmbedFunc
	switch r.Config.Embedder {
	case model.EmbedderGenAI:
		embedder, err = pipeline.GenAIEmbedder(client, r.Config.EmbeddingModelName(), "", r.Config.EmbeddingDim)
	default:
		embedder, err = pipeline.HugotEmbedder(r.Config.EmbeddingModelName())
	}
	if err != nil {
		return helper.NewError("create embedder", err)
	}

	p := pipeline.NewPipeline(pipeline.DefaultSplitter(), embedder, nil, nil)
	if !r.retrievalOnly {
		p.Extractor, err = pipeline.GenAIExtractor(client, r.Config.ExtractionModel)
		if err != nil {
			return helper.NewError("create extractor", err)
		}

		p.Generator, err = pipeline.GenAIGenerator(client, r.Config.GenerationModel)
		if err != nil {
			return helper.NewError("create generator", err)
		}
	}

	r.Pipeline = p
	return nil
}

func (r *Reporter) useConfiguredBackend(ctx context.Context) error {
	switch r.Config.Backend {
	case model.IndexBackendPGVector:
		if r.DB == nil {
			dbConfig, err := helper.NewDatabaseConfiguration()
			if err != nil {
				return helper.NewError("database configuration", err)
			}
			r.DB, err = helper.NewDatabase("usreport", dbConfig, r.log)
			if err != nil {
				return helper.NewError("connect database", err)
			}
		}

		segments, err := database.NewSegmentsDBHandler(r.DB, r.Config.EmbeddingDimension(), false)
		if err != nil {
			return helper.NewError("create segments handler", err)
		}
		if r.Config.VectorIndex != "" {
			if err := segments.ChangeIndexType(ctx, r.Config.VectorIndex, nil); err != nil {
				return helper.NewError("create vector index", err)
			}
		}

		r.Segments = segments
		r.Builder = retrieval.NewPGVectorIndexBuilder(segments, r.Pipeline.Embedder)
	default:
		r.Builder = retrieval.NewMemoryIndexBuilder(r.Pipeline.Embedder)
	}
	return nil
}

// LoadCorpus loads the reference files, checks that every organ is covered
// and builds one retriever per organ. The previous corpus stays active if loading fails.
func (r *Reporter) LoadCorpus(ctx context.Context) error {
	loader := corpus.NewLoader(r.Config.CorpusDir, r.Pipeline.Splitter, r.Config.StrictOrgans, r.log)
	kb, err := loader.Load()
	if err != nil {
		return err
	}

	if r.Config.StrictOrgans {
		if err := corpus.ValidateOrgans(kb, model.Organs()); err != nil {
			return err
		}
	}

	buildCtx, cancel := r.callContext(ctx)
	defer cancel()

	retrievers, err := retrieval.BuildRetrievers(buildCtx, kb, r.Builder, r.Config.Retriever)
	if err != nil {
		return err
	}

	r.mu.Lock()
	previous := r.retrievers
	r.kb = kb
	r.retrievers = retrievers
	r.mu.Unlock()

	if err := previous.Drop(ctx); err != nil {
		r.log.Warn("Failed to drop previous indexes", slog.String("error", err.Error()))
	}

	r.log.Info("Loaded corpus", slog.String("dir", r.Config.CorpusDir), slog.Int("segments", kb.SegmentCount()))
	return nil
}

// KnowledgeBase returns the loaded knowledge base, nil before LoadCorpus
func (r *Reporter) KnowledgeBase() model.KnowledgeBase {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.kb
}

// ExtractFindings extracts the abnormal findings per organ from the input text
func (r *Reporter) ExtractFindings(ctx context.Context, input string) (*model.FindingsSet, error) {
	if r.Pipeline.Extractor == nil {
		return nil, helper.NewKindError(model.ErrExtraction, "extract findings", fmt.Errorf("extractor not set"))
	}

	callCtx, cancel := r.callContext(ctx)
	defer cancel()

	findings, err := r.Pipeline.Extractor(callCtx, input)
	if err != nil {
		return nil, helper.NewKindError(model.ErrExtraction, "extract findings", err)
	}
	if findings == nil {
		return nil, helper.NewKindError(model.ErrExtraction, "extract findings", fmt.Errorf("extractor returned no findings"))
	}
	return findings, nil
}

// Resolve retrieves the reference segments for the findings of every organ.
// The corpus is loaded on first use.
func (r *Reporter) Resolve(ctx context.Context, findings *model.FindingsSet) (model.Retrieved, error) {
	if err := r.ensureCorpus(ctx); err != nil {
		return nil, err
	}

	callCtx, cancel := r.callContext(ctx)
	defer cancel()

	// Reloads wait until running queries are done
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolver.Resolve(callCtx, r.retrievers.Map(), findings)
}

// ComposePrompt builds the prompt template from the prompt directory and the retrieved segments
func (r *Reporter) ComposePrompt(retrieved model.Retrieved) prompt.Template {
	sections := prompt.LoadSections(r.Config.PromptDir, r.log)
	return prompt.Compose(sections, retrieved)
}

// GenerateReport runs the whole pipeline for the input text and returns the model's report
func (r *Reporter) GenerateReport(ctx context.Context, input string) (string, error) {
	trace, err := r.GenerateReportWithTrace(ctx, input)
	if err != nil {
		return "", err
	}
	return trace.Report, nil
}

// GenerateReportWithTrace runs the whole pipeline and returns every intermediate artifact
func (r *Reporter) GenerateReportWithTrace(ctx context.Context, input string) (*Trace, error) {
	findings, err := r.ExtractFindings(ctx, input)
	if err != nil {
		return nil, err
	}

	retrieved, err := r.Resolve(ctx, findings)
	if err != nil {
		return nil, err
	}

	text := r.ComposePrompt(retrieved).Render(input)
	if r.Pipeline.Generator == nil {
		return nil, helper.NewKindError(model.ErrGeneration, "generate report", fmt.Errorf("generator not set"))
	}

	callCtx, cancel := r.callContext(ctx)
	defer cancel()

	report, err := r.Pipeline.Generator(callCtx, text)
	if err != nil {
		return nil, helper.NewKindError(model.ErrGeneration, "generate report", err)
	}

	r.log.Info("Generated report", slog.Int("prompt_length", len(text)), slog.Int("report_length", len(report)))

	return &Trace{
		Findings:  findings,
		Retrieved: retrieved,
		Prompt:    text,
		Report:    report,
	}, nil
}

// Close drops the built indexes and closes the database connection
func (r *Reporter) Close() error {
	r.mu.Lock()
	retrievers := r.retrievers
	r.retrievers = nil
	r.kb = nil
	r.mu.Unlock()

	if err := retrievers.Drop(context.Background()); err != nil {
		r.log.Warn("Failed to drop indexes", slog.String("error", err.Error()))
	}

	if r.DB != nil {
		return r.DB.Close()
	}
	return nil
}

func (r *Reporter) ensureCorpus(ctx context.Context) error {
	r.mu.RLock()
	loaded := r.retrievers != nil
	r.mu.RUnlock()
	if loaded {
		return nil
	}
	return r.LoadCorpus(ctx)
}

// callContext bounds one remote stage by the configured timeout
func (r *Reporter) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Config.CallTimeout > 0 {
		return context.WithTimeout(ctx, r.Config.CallTimeout)
	}
	return context.WithCancel(ctx)
}
