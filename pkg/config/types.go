package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent mishkat configuration stored as
// config.toml in the .mishkat/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	Corpus    CorpusConfig    `toml:"corpus"`
	Index     IndexConfig     `toml:"index"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Model     ModelConfig     `toml:"model"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	API       APIConfig       `toml:"api"`
	Events    EventsConfig    `toml:"events"`
}

// CorpusConfig locates the source texts the index is built from.
type CorpusConfig struct {
	QuranPath string `toml:"quran_path,omitempty"`
	TafsirDir string `toml:"tafsir_dir,omitempty"`
	ChunkSize uint   `toml:"chunk_size,omitempty"`
}

// IndexConfig holds vector index settings. Provider selects the driver:
// "memory", "sqlite" or "qdrant". Target is the driver-specific location
// (index file, database file, or qdrant host:port).
type IndexConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Collection string `toml:"collection,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// ModelConfig holds chat model and resilience settings.
type ModelConfig struct {
	Name          string  `toml:"name,omitempty"`
	BaseURL       string  `toml:"base_url,omitempty"`
	MaxTokens     uint    `toml:"max_tokens,omitempty"`
	Temperature   float64 `toml:"temperature,omitempty"`
	MaxAttempts   uint    `toml:"max_attempts,omitempty"`
	CooldownSecs  uint    `toml:"cooldown_secs,omitempty"`
	BackoffBaseMs uint    `toml:"backoff_base_ms,omitempty"`
	BackoffCapMs  uint    `toml:"backoff_cap_ms,omitempty"`
}

// RetrievalConfig holds retrieval tuning.
type RetrievalConfig struct {
	TopK                uint    `toml:"top_k,omitempty"`
	RedundancyThreshold float64 `toml:"redundancy_threshold,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// EventsConfig holds answer event publishing settings. Provider is "nop" or
// "kafka".
type EventsConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"corpus.quran_path": {
		get: func(c *Config) string { return c.Corpus.QuranPath },
		set: func(c *Config, v string) error { c.Corpus.QuranPath = v; return nil },
	},
	"corpus.tafsir_dir": {
		get: func(c *Config) string { return c.Corpus.TafsirDir },
		set: func(c *Config, v string) error { c.Corpus.TafsirDir = v; return nil },
	},
	"corpus.chunk_size": {
		get: func(c *Config) string { return formatUint(c.Corpus.ChunkSize) },
		set: func(c *Config, v string) error { return setUint(&c.Corpus.ChunkSize, "corpus.chunk_size", v) },
	},
	"index.provider": {
		get: func(c *Config) string { return c.Index.Provider },
		set: func(c *Config, v string) error { c.Index.Provider = v; return nil },
	},
	"index.target": {
		get: func(c *Config) string { return c.Index.Target },
		set: func(c *Config, v string) error { c.Index.Target = v; return nil },
	},
	"index.collection": {
		get: func(c *Config) string { return c.Index.Collection },
		set: func(c *Config, v string) error { c.Index.Collection = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string { return formatUint(c.Embedding.Dimensions) },
		set: func(c *Config, v string) error { return setUint(&c.Embedding.Dimensions, "embedding.dimensions", v) },
	},
	"model.name": {
		get: func(c *Config) string { return c.Model.Name },
		set: func(c *Config, v string) error { c.Model.Name = v; return nil },
	},
	"model.base_url": {
		get: func(c *Config) string { return c.Model.BaseURL },
		set: func(c *Config, v string) error { c.Model.BaseURL = v; return nil },
	},
	"model.max_tokens": {
		get: func(c *Config) string { return formatUint(c.Model.MaxTokens) },
		set: func(c *Config, v string) error { return setUint(&c.Model.MaxTokens, "model.max_tokens", v) },
	},
	"model.max_attempts": {
		get: func(c *Config) string { return formatUint(c.Model.MaxAttempts) },
		set: func(c *Config, v string) error { return setUint(&c.Model.MaxAttempts, "model.max_attempts", v) },
	},
	"model.cooldown_secs": {
		get: func(c *Config) string { return formatUint(c.Model.CooldownSecs) },
		set: func(c *Config, v string) error { return setUint(&c.Model.CooldownSecs, "model.cooldown_secs", v) },
	},
	"retrieval.top_k": {
		get: func(c *Config) string { return formatUint(c.Retrieval.TopK) },
		set: func(c *Config, v string) error { return setUint(&c.Retrieval.TopK, "retrieval.top_k", v) },
	},
	"retrieval.redundancy_threshold": {
		get: func(c *Config) string {
			if c.Retrieval.RedundancyThreshold == 0 {
				return ""
			}
			return strconv.FormatFloat(c.Retrieval.RedundancyThreshold, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for retrieval.redundancy_threshold: %w", err)
			}
			c.Retrieval.RedundancyThreshold = f
			return nil
		},
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error { c.Events.Provider = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}

func formatUint(n uint) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(n), 10)
}

func setUint(dst *uint, key, v string) error {
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dst = uint(n)
	return nil
}
