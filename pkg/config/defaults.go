package config

const (
	defaultChunkSize = 1000

	defaultIndexProvider = "memory"
	defaultIndexTarget   = "index.json"

	defaultEmbeddingProvider   = "openai"
	defaultEmbeddingModel      = "text-embedding-3-small"
	defaultEmbeddingDimensions = 1536

	defaultModelName      = "gpt-4o-mini"
	defaultModelBaseURL   = "https://api.openai.com"
	defaultMaxTokens      = 1024
	defaultTemperature    = 0.2
	defaultMaxAttempts    = 3
	defaultCooldownSecs   = 300
	defaultBackoffBaseMs  = 500
	defaultBackoffCapMs   = 8000
	defaultTopK           = 5
	defaultRedundancy     = 0.92
	defaultAPIListen      = ":8090"
	defaultEventsProvider = "nop"
	defaultEventsTopic    = "mishkat.answers"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Corpus: CorpusConfig{
			ChunkSize: defaultChunkSize,
		},
		Index: IndexConfig{
			Provider: defaultIndexProvider,
			Target:   defaultIndexTarget,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Model: ModelConfig{
			Name:          defaultModelName,
			BaseURL:       defaultModelBaseURL,
			MaxTokens:     defaultMaxTokens,
			Temperature:   defaultTemperature,
			MaxAttempts:   defaultMaxAttempts,
			CooldownSecs:  defaultCooldownSecs,
			BackoffBaseMs: defaultBackoffBaseMs,
			BackoffCapMs:  defaultBackoffCapMs,
		},
		Retrieval: RetrievalConfig{
			TopK:                defaultTopK,
			RedundancyThreshold: defaultRedundancy,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
