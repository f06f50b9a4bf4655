// Package servecmder provides the serve command running the HTTP API and
// MCP server.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noorlabs/mishkat/api"
	"github.com/noorlabs/mishkat/api/mcp"
	"github.com/noorlabs/mishkat/pkg/bootstrap"
	"github.com/noorlabs/mishkat/pkg/config"
	"github.com/noorlabs/mishkat/pkg/logger"
)

// serveFlags defines the flags the serve command binds into the viper
// precedence chain.
var serveFlags = config.FlagSet{
	config.FlagListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "api.listen",
		Description: "Address for the API server to listen on",
	},
	config.FlagIndexProvider: {
		Name:        "index-provider",
		ViperKey:    "index.provider",
		Description: "Vector index driver (memory, sqlite, qdrant)",
	},
	config.FlagIndexTarget: {
		Name:        "index-target",
		ViperKey:    "index.target",
		Description: "Index location (file path or qdrant host:port)",
	},
	config.FlagEmbeddingProv: {
		Name:        "embedding-provider",
		ViperKey:    "embedding.provider",
		Description: "Embedding provider (openai, ollama)",
	},
	config.FlagEmbeddingTgt: {
		Name:        "embedding-target",
		ViperKey:    "embedding.target",
		Description: "Embedding provider URL override",
	},
	config.FlagEmbeddingModel: {
		Name:        "embedding-model",
		ViperKey:    "embedding.model",
		Description: "Embedding model name",
	},
	config.FlagModelName: {
		Name:        "model",
		Shorthand:   "m",
		ViperKey:    "model.name",
		Description: "Chat model used for answer generation",
	},
}

var serveFlagKeys = []string{
	config.FlagListen,
	config.FlagIndexProvider,
	config.FlagIndexTarget,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagModelName,
}

type ServeCommander struct {
	listen         string
	indexProvider  string
	indexTarget    string
	embeddingProv  string
	embeddingTgt   string
	embeddingModel string
	modelName      string
	debug          bool
	logger         *zap.Logger
}

const serveLongDesc string = `Run the mishkat HTTP API and MCP server.

The API exposes:
  POST /v1/ask    Answer a question (JSON body)
  GET  /v1/ask    Answer a question (query parameters)
  GET  /ping      Health check
  ALL  /mcp       MCP streamable HTTP endpoint (ask and search tools)

The vector index must have been built first with "mishkat index".`

const serveShortDesc string = "Run the mishkat API and MCP server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, serveFlags, serveFlagKeys)

			return cmder.run(config.FromViper(v))
		},
	}

	config.AddStringFlag(cmd, serveFlags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, serveFlags, config.FlagIndexProvider, &cmder.indexProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagIndexTarget, &cmder.indexTarget)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingProv, &cmder.embeddingProv)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingTgt, &cmder.embeddingTgt)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddStringFlag(cmd, serveFlags, config.FlagModelName, &cmder.modelName)

	return cmd
}

func (c *ServeCommander) run(cfg *config.Config) error {
	c.logger = logger.New(c.debug)
	defer c.logger.Sync()

	ctx := context.Background()

	stack, err := bootstrap.NewStack(ctx, cfg, c.logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	mcpServer, err := mcp.NewServer(mcp.Config{
		Answerer: stack.Engine,
		Searcher: stack.Retriever,
		Logger:   c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	apiConfig := api.Config{
		ListenAddr: cfg.API.Listen,
	}
	apiServer := api.NewServer(apiConfig, stack.Engine, c.logger)
	apiServer.MountMCP(mcpServer.Handler())

	c.logger.Info("starting mishkat server",
		zap.String("listen", cfg.API.Listen),
		zap.String("index_provider", cfg.Index.Provider),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Model.Name),
	)

	// Channel to capture errors from goroutines
	errChan := make(chan error, 1)

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return apiServer.Shutdown()
	}
}
