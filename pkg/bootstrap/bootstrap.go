// Package bootstrap assembles the engine and its collaborators from
// configuration, so commands stay thin.
package bootstrap

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noorlabs/mishkat/pkg/config"
	"github.com/noorlabs/mishkat/pkg/credentials"
	"github.com/noorlabs/mishkat/pkg/embeddings"
	"github.com/noorlabs/mishkat/pkg/embeddings/ollama"
	"github.com/noorlabs/mishkat/pkg/embeddings/openai"
	"github.com/noorlabs/mishkat/pkg/engine"
	"github.com/noorlabs/mishkat/pkg/eventstream"
	kafkapub "github.com/noorlabs/mishkat/pkg/eventstream/kafka"
	"github.com/noorlabs/mishkat/pkg/eventstream/nop"
	"github.com/noorlabs/mishkat/pkg/eventstream/worker"
	"github.com/noorlabs/mishkat/pkg/generator"
	"github.com/noorlabs/mishkat/pkg/llm/client"
	"github.com/noorlabs/mishkat/pkg/retriever"
	"github.com/noorlabs/mishkat/pkg/vector"
	"github.com/noorlabs/mishkat/pkg/vector/memory"
	"github.com/noorlabs/mishkat/pkg/vector/qdrant"
	"github.com/noorlabs/mishkat/pkg/vector/sqlitevec"
)

// NewEmbedder creates the configured embedding provider.
func NewEmbedder(cfg config.EmbeddingConfig, keys []string) (embeddings.Embedder, error) {
	switch cfg.Provider {
	case "openai":
		if len(keys) == 0 {
			return nil, fmt.Errorf("openai embedding provider requires an API key")
		}
		return openai.New(openai.Config{
			APIKey:  keys[0],
			Model:   cfg.Model,
			BaseURL: cfg.Target,
		})

	case "ollama":
		return ollama.New(ollama.Config{
			BaseURL:   cfg.Target,
			Model:     cfg.Model,
			Dimension: int(cfg.Dimensions),
		})

	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
}

// NewDriver creates the configured vector index driver. For the memory
// provider an existing index file at Target is loaded; otherwise an empty
// index is created for a subsequent build.
func NewDriver(ctx context.Context, cfg config.IndexConfig, dimensions int, logger *zap.Logger) (vector.Driver, error) {
	switch cfg.Provider {
	case "memory":
		if memory.Exists(cfg.Target) {
			return memory.Load(cfg.Target, logger)
		}
		return memory.New(dimensions, logger)

	case "sqlite":
		return sqlitevec.New(sqlitevec.Config{
			DBPath:     cfg.Target,
			Dimensions: dimensions,
		}, logger)

	case "qdrant":
		host, port, err := splitHostPort(cfg.Target)
		if err != nil {
			return nil, err
		}
		return qdrant.New(ctx, qdrant.Config{
			Host:       host,
			Port:       port,
			Collection: cfg.Collection,
			Dimensions: dimensions,
		}, logger)

	default:
		return nil, fmt.Errorf("unknown index provider: %q", cfg.Provider)
	}
}

// NewPublisher creates the configured answer event publisher.
func NewPublisher(cfg config.EventsConfig, logger *zap.Logger) (eventstream.Publisher, error) {
	switch cfg.Provider {
	case "", "nop":
		return nop.NewPublisher(), nil

	case "kafka":
		if len(cfg.Brokers) == 0 {
			return nil, fmt.Errorf("kafka events provider requires at least one broker")
		}
		// Publish off the hot path; broker stalls must not delay answers.
		return worker.NewPool(&worker.Config{
			Publisher: kafkapub.NewPublisher(cfg.Brokers, cfg.Topic, logger),
			Logger:    logger,
		})

	default:
		return nil, fmt.Errorf("unknown events provider: %q", cfg.Provider)
	}
}

// Stack is the assembled retrieval-and-generation stack.
type Stack struct {
	Engine    *engine.Engine
	Retriever *retriever.Retriever
	Embedder  embeddings.Embedder
	Driver    vector.Driver

	publisher eventstream.Publisher
}

// Close releases the driver, embedder and publisher.
func (s *Stack) Close() {
	s.Embedder.Close()
	s.Driver.Close()
	s.publisher.Close()
}

// NewStack wires the full retrieval-and-generation stack from config.
func NewStack(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stack, error) {
	keys := credentials.KeysFromEnv()

	embedder, err := NewEmbedder(cfg.Embedding, keys)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	driver, err := NewDriver(ctx, cfg.Index, embedder.Dimension(), logger)
	if err != nil {
		embedder.Close()
		return nil, fmt.Errorf("creating index driver: %w", err)
	}

	publisher, err := NewPublisher(cfg.Events, logger)
	if err != nil {
		embedder.Close()
		driver.Close()
		return nil, fmt.Errorf("creating event publisher: %w", err)
	}

	pool, err := credentials.NewPool(keys, time.Duration(cfg.Model.CooldownSecs)*time.Second, logger)
	if err != nil {
		embedder.Close()
		driver.Close()
		publisher.Close()
		return nil, fmt.Errorf("creating credential pool: %w", err)
	}

	modelClient, err := client.New(client.Config{
		Strategies: []client.Strategy{
			client.NewDirect(client.DirectConfig{BaseURL: cfg.Model.BaseURL}),
			client.NewLibrary(client.LibraryConfig{BaseURL: cfg.Model.BaseURL}),
		},
		Pool:        pool,
		MaxAttempts: int(cfg.Model.MaxAttempts),
		BackoffBase: time.Duration(cfg.Model.BackoffBaseMs) * time.Millisecond,
		BackoffCap:  time.Duration(cfg.Model.BackoffCapMs) * time.Millisecond,
		Logger:      logger,
	})
	if err != nil {
		embedder.Close()
		driver.Close()
		publisher.Close()
		return nil, fmt.Errorf("creating model client: %w", err)
	}

	ret := retriever.New(embedder, driver, logger,
		retriever.WithTopK(int(cfg.Retrieval.TopK)),
		retriever.WithRedundancyThreshold(cfg.Retrieval.RedundancyThreshold),
	)

	gen := generator.New(modelClient, logger,
		generator.WithModel(cfg.Model.Name),
		generator.WithMaxTokens(int(cfg.Model.MaxTokens)),
		generator.WithTemperature(cfg.Model.Temperature),
	)

	return &Stack{
		Engine:    engine.New(ret, gen, publisher, logger),
		Retriever: ret,
		Embedder:  embedder,
		Driver:    driver,
		publisher: publisher,
	}, nil
}

// splitHostPort parses "host:port" with a default qdrant gRPC port.
func splitHostPort(target string) (string, int, error) {
	if target == "" {
		return "localhost", 6334, nil
	}

	host, portStr, found := strings.Cut(target, ":")
	if !found {
		return target, 6334, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant target %q: %w", target, err)
	}
	return host, port, nil
}
