package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/noorlabs/mishkat/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the MISHKAT_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (MISHKAT_API_LISTEN, MISHKAT_INDEX_TARGET, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: MISHKAT_API_LISTEN, MISHKAT_MODEL_NAME, etc.
	v.SetEnvPrefix("MISHKAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes a Config from the viper precedence chain
// (flags > env > file > defaults).
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Corpus: CorpusConfig{
			QuranPath: v.GetString("corpus.quran_path"),
			TafsirDir: v.GetString("corpus.tafsir_dir"),
			ChunkSize: v.GetUint("corpus.chunk_size"),
		},
		Index: IndexConfig{
			Provider:   v.GetString("index.provider"),
			Target:     v.GetString("index.target"),
			Collection: v.GetString("index.collection"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
		},
		Model: ModelConfig{
			Name:          v.GetString("model.name"),
			BaseURL:       v.GetString("model.base_url"),
			MaxTokens:     v.GetUint("model.max_tokens"),
			Temperature:   v.GetFloat64("model.temperature"),
			MaxAttempts:   v.GetUint("model.max_attempts"),
			CooldownSecs:  v.GetUint("model.cooldown_secs"),
			BackoffBaseMs: v.GetUint("model.backoff_base_ms"),
			BackoffCapMs:  v.GetUint("model.backoff_cap_ms"),
		},
		Retrieval: RetrievalConfig{
			TopK:                v.GetUint("retrieval.top_k"),
			RedundancyThreshold: v.GetFloat64("retrieval.redundancy_threshold"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  v.GetStringSlice("events.brokers"),
			Topic:    v.GetString("events.topic"),
		},
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Corpus
	v.SetDefault("corpus.quran_path", d.Corpus.QuranPath)
	v.SetDefault("corpus.tafsir_dir", d.Corpus.TafsirDir)
	v.SetDefault("corpus.chunk_size", d.Corpus.ChunkSize)

	// Index
	v.SetDefault("index.provider", d.Index.Provider)
	v.SetDefault("index.target", d.Index.Target)
	v.SetDefault("index.collection", d.Index.Collection)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	// Model
	v.SetDefault("model.name", d.Model.Name)
	v.SetDefault("model.base_url", d.Model.BaseURL)
	v.SetDefault("model.max_tokens", d.Model.MaxTokens)
	v.SetDefault("model.temperature", d.Model.Temperature)
	v.SetDefault("model.max_attempts", d.Model.MaxAttempts)
	v.SetDefault("model.cooldown_secs", d.Model.CooldownSecs)
	v.SetDefault("model.backoff_base_ms", d.Model.BackoffBaseMs)
	v.SetDefault("model.backoff_cap_ms", d.Model.BackoffCapMs)

	// Retrieval
	v.SetDefault("retrieval.top_k", d.Retrieval.TopK)
	v.SetDefault("retrieval.redundancy_threshold", d.Retrieval.RedundancyThreshold)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Events
	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}
