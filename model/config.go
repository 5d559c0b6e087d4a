package model

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// SearchType selects how an index is queried
type SearchType string

const (
	SearchTypeSimilarity SearchType = "similarity"
)

// FindingPlaceholder is replaced by the finding description in a query template
const FindingPlaceholder = "{finding}"

// MetadataScopedQueryTemplate asks the retriever to search the heading metadata only
const MetadataScopedQueryTemplate = "Search only in the `metadata` field\n\nQuery: " + FindingPlaceholder

// RetrieverConfig represents configuration for the per organ retrievers
type RetrieverConfig struct {
	SearchType    SearchType `yaml:"search_type" json:"search_type"`
	K             int        `yaml:"k" json:"k"`
	QueryTemplate string     `yaml:"query_template" json:"query_template"`
}

// DefaultRetrieverConfig returns similarity search with k=3 using the finding as query
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		SearchType:    SearchTypeSimilarity,
		K:             3,
		QueryTemplate: FindingPlaceholder,
	}
}

// Validate checks search type and k
func (c RetrieverConfig) Validate() error {
	if c.SearchType != SearchTypeSimilarity {
		return fmt.Errorf("unsupported search type %q", c.SearchType)
	}
	if c.K <= 0 {
		return fmt.Errorf("k must be positive, got %d", c.K)
	}
	return nil
}

// Query renders the query text for a finding
func (c RetrieverConfig) Query(finding string) string {
	if c.QueryTemplate == "" {
		return finding
	}
	return strings.ReplaceAll(c.QueryTemplate, FindingPlaceholder, finding)
}

// EmbedderProvider selects the embedding backend
type EmbedderProvider string

const (
	EmbedderHugot EmbedderProvider = "hugot"
	EmbedderGenAI EmbedderProvider = "genai"
)

// Embedding models and their output dimensions used when the configuration leaves them empty
const (
	DefaultHugotEmbeddingModel = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultHugotEmbeddingDim   = 384
	DefaultGenAIEmbeddingModel = "gemini-embedding-001"
	DefaultGenAIEmbeddingDim   = 3072
)

// MaxIndexedEmbeddingDim is the largest dimension pgvector builds hnsw and ivfflat indexes for
const MaxIndexedEmbeddingDim = 2000

// IndexBackend selects where retrieval indexes live
type IndexBackend string

const (
	IndexBackendMemory   IndexBackend = "memory"
	IndexBackendPGVector IndexBackend = "pgvector"
)

// Config is the complete pipeline configuration.
// EmbeddingModel and EmbeddingDim default per embedder when left empty.
// VectorIndex optionally adds an hnsw or ivfflat index for the pgvector backend.
type Config struct {
	CorpusDir       string           `yaml:"corpus_dir"`
	PromptDir       string           `yaml:"prompt_dir"`
	StrictOrgans    bool             `yaml:"strict_organs"`
	ExtractionModel string           `yaml:"extraction_model"`
	GenerationModel string           `yaml:"generation_model"`
	EmbeddingModel  string           `yaml:"embedding_model"`
	Embedder        EmbedderProvider `yaml:"embedder"`
	Backend         IndexBackend     `yaml:"backend"`
	EmbeddingDim    int              `yaml:"embedding_dim"`
	VectorIndex     string           `yaml:"vector_index"`
	Retriever       RetrieverConfig  `yaml:"retriever"`
	CallTimeout     time.Duration    `yaml:"call_timeout"`
	APIKey          string           `yaml:"-"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		CorpusDir:       "abnormal",
		PromptDir:       "prompt",
		StrictOrgans:    true,
		ExtractionModel: "gemini-2.5-flash",
		GenerationModel: "gemini-2.5-flash",
		Embedder:        EmbedderHugot,
		Backend:         IndexBackendMemory,
		Retriever:       DefaultRetrieverConfig(),
		CallTimeout:     60 * time.Second,
	}
}

// EmbeddingModelName returns the configured embedding model or the default of the embedder
func (c Config) EmbeddingModelName() string {
	if c.EmbeddingModel != "" {
		return c.EmbeddingModel
	}
	if c.Embedder == EmbedderGenAI {
		return DefaultGenAIEmbeddingModel
	}
	return DefaultHugotEmbeddingModel
}

// EmbeddingDimension returns the configured embedding dimension or the default of the embedder
func (c Config) EmbeddingDimension() int {
	if c.EmbeddingDim != 0 {
		return c.EmbeddingDim
	}
	if c.Embedder == EmbedderGenAI {
		return DefaultGenAIEmbeddingDim
	}
	return DefaultHugotEmbeddingDim
}

// LoadConfig reads a YAML file on top of the defaults and applies environment overrides.
// An empty path only applies the environment.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return config, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return config, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := config.ApplyEnv(); err != nil {
		return config, err
	}

	return config, config.Validate()
}

// ApplyEnv overrides fields from USREPORT_* variables and reads the API key.
// A .env file in the working directory is loaded first if present.
func (c *Config) ApplyEnv() error {
	_ = godotenv.Load()

	setString := func(key string, target *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*target = v
		}
	}

	setString("USREPORT_CORPUS_DIR", &c.CorpusDir)
	setString("USREPORT_PROMPT_DIR", &c.PromptDir)
	setString("USREPORT_EXTRACTION_MODEL", &c.ExtractionModel)
	setString("USREPORT_GENERATION_MODEL", &c.GenerationModel)
	setString("USREPORT_EMBEDDING_MODEL", &c.EmbeddingModel)
	setString("USREPORT_QUERY_TEMPLATE", &c.Retriever.QueryTemplate)
	setString("USREPORT_VECTOR_INDEX", &c.VectorIndex)

	if v := os.Getenv("USREPORT_EMBEDDER"); v != "" {
		c.Embedder = EmbedderProvider(v)
	}
	if v := os.Getenv("USREPORT_BACKEND"); v != "" {
		c.Backend = IndexBackend(v)
	}
	if v := os.Getenv("USREPORT_SEARCH_TYPE"); v != "" {
		c.Retriever.SearchType = SearchType(v)
	}
	if v := os.Getenv("USREPORT_K"); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("USREPORT_K: %w", err)
		}
		c.Retriever.K = k
	}
	if v := os.Getenv("USREPORT_EMBEDDING_DIM"); v != "" {
		dim, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("USREPORT_EMBEDDING_DIM: %w", err)
		}
		c.EmbeddingDim = dim
	}
	if v := os.Getenv("USREPORT_CALL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("USREPORT_CALL_TIMEOUT: %w", err)
		}
		c.CallTimeout = d
	}
	if v := os.Getenv("USREPORT_STRICT_ORGANS"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("USREPORT_STRICT_ORGANS: %w", err)
		}
		c.StrictOrgans = strict
	}

	setString("GOOGLE_API_KEY", &c.APIKey)
	setString("GEMINI_API_KEY", &c.APIKey)

	return nil
}

// Validate checks the configuration for unsupported values
func (c Config) Validate() error {
	if err := c.Retriever.Validate(); err != nil {
		return err
	}
	switch c.Embedder {
	case EmbedderHugot, EmbedderGenAI:
	default:
		return fmt.Errorf("unsupported embedder %q", c.Embedder)
	}
	switch c.Backend {
	case IndexBackendMemory, IndexBackendPGVector:
	default:
		return fmt.Errorf("unsupported backend %q", c.Backend)
	}
	if c.EmbeddingDim < 0 {
		return fmt.Errorf("embedding_dim must not be negative")
	}
	switch c.VectorIndex {
	case "", "hnsw", "ivfflat":
	default:
		return fmt.Errorf("unsupported vector_index %q", c.VectorIndex)
	}
	if c.VectorIndex != "" && c.EmbeddingDimension() > MaxIndexedEmbeddingDim {
		return fmt.Errorf("vector_index %s supports at most %d dimensions, got %d", c.VectorIndex, MaxIndexedEmbeddingDim, c.EmbeddingDimension())
	}
	if c.CallTimeout < 0 {
		return fmt.Errorf("call_timeout must not be negative")
	}
	return nil
}
