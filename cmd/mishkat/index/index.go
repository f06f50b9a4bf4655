// Package indexcmder provides the index command building the vector index
// from corpus files.
package indexcmder

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noorlabs/mishkat/pkg/bootstrap"
	"github.com/noorlabs/mishkat/pkg/cliui"
	"github.com/noorlabs/mishkat/pkg/config"
	"github.com/noorlabs/mishkat/pkg/credentials"
	"github.com/noorlabs/mishkat/pkg/indexer"
	"github.com/noorlabs/mishkat/pkg/logger"
	"github.com/noorlabs/mishkat/pkg/vector/memory"
)

var indexFlags = config.FlagSet{
	config.FlagQuranPath: {
		Name:        "quran",
		Shorthand:   "q",
		ViperKey:    "corpus.quran_path",
		Description: "Path to the quran.json corpus file",
	},
	config.FlagTafsirDir: {
		Name:        "tafsir",
		Shorthand:   "t",
		ViperKey:    "corpus.tafsir_dir",
		Description: "Directory of tafsir JSON files (one collection per file)",
	},
	config.FlagChunkSize: {
		Name:        "chunk-size",
		ViperKey:    "corpus.chunk_size",
		Description: "Maximum passage size before sentence chunking",
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
	config.FlagEmbeddingModel: {
		Name:        "embedding-model",
		ViperKey:    "embedding.model",
		Description: "Embedding model name",
	},
}

var indexFlagKeys = []string{
	config.FlagQuranPath,
	config.FlagTafsirDir,
	config.FlagChunkSize,
	config.FlagIndexProvider,
	config.FlagIndexTarget,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingModel,
}

type IndexCommander struct {
	quranPath     string
	tafsirDir     string
	chunkSize     uint
	indexProvider string
	indexTarget   string
	embeddingProv string
	embeddingMod  string
	workers       uint
	debug         bool
	logger        *zap.Logger
}

const indexLongDesc string = `Build the vector index from corpus files.

Loads the Quran corpus and optional tafsir collections, chunks long passages
at sentence boundaries, embeds every chunk, and writes the index with the
configured driver. An existing index is replaced atomically; a serve process
reading the old index keeps working until the new one commits.

Examples:
  mishkat index --quran data/quran.json --tafsir data/tafsir/
  mishkat index --index-provider sqlite --index-target .mishkat/index.db`

const indexShortDesc string = "Build the vector index from corpus files"

func NewIndexCmd() *cobra.Command {
	cmder := &IndexCommander{}

	cmd := &cobra.Command{
		Use:   "index",
		Short: indexShortDesc,
		Long:  indexLongDesc,
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
			config.BindRegisteredFlags(v, cmd, indexFlags, indexFlagKeys)

			return cmder.run(config.FromViper(v))
		},
	}

	config.AddStringFlag(cmd, indexFlags, config.FlagQuranPath, &cmder.quranPath)
	config.AddStringFlag(cmd, indexFlags, config.FlagTafsirDir, &cmder.tafsirDir)
	config.AddUintFlag(cmd, indexFlags, config.FlagChunkSize, &cmder.chunkSize)
	config.AddStringFlag(cmd, indexFlags, config.FlagIndexProvider, &cmder.indexProvider)
	config.AddStringFlag(cmd, indexFlags, config.FlagIndexTarget, &cmder.indexTarget)
	config.AddStringFlag(cmd, indexFlags, config.FlagEmbeddingProv, &cmder.embeddingProv)
	config.AddStringFlag(cmd, indexFlags, config.FlagEmbeddingModel, &cmder.embeddingMod)
	cmd.Flags().UintVarP(&cmder.workers, "workers", "w", indexer.DefaultWorkers, "Concurrent embedding calls")

	return cmd
}

func (c *IndexCommander) run(cfg *config.Config) error {
	c.logger = logger.New(c.debug)
	defer c.logger.Sync()

	if cfg.Corpus.QuranPath == "" && cfg.Corpus.TafsirDir == "" {
		return fmt.Errorf("nothing to index: set --quran and/or --tafsir")
	}

	ctx := context.Background()

	keys := credentials.KeysFromEnv()
	embedder, err := bootstrap.NewEmbedder(cfg.Embedding, keys)
	if err != nil {
		return err
	}
	defer embedder.Close()

	driver, err := bootstrap.NewDriver(ctx, cfg.Index, embedder.Dimension(), c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	ix := indexer.New(embedder, driver, c.logger,
		indexer.WithChunkSize(int(cfg.Corpus.ChunkSize)),
		indexer.WithWorkers(int(c.workers)),
	)

	var result *indexer.Result
	err = cliui.Step(os.Stdout, "Building vector index", func() error {
		var buildErr error
		result, buildErr = ix.Run(ctx, cfg.Corpus.QuranPath, cfg.Corpus.TafsirDir)
		return buildErr
	})
	if err != nil {
		return err
	}

	// The memory driver lives in-process; persist it for later serve runs.
	if mem, ok := driver.(*memory.Driver); ok {
		if err := cliui.Step(os.Stdout, "Saving index file", func() error {
			return mem.Save(cfg.Index.Target)
		}); err != nil {
			return err
		}
	}

	fmt.Printf("\n  %s\n\n", result.Summary())
	return nil
}
