// Package configcmder provides the config command for managing persistent
// mishkat configuration stored in the .mishkat/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent mishkat configuration.

Configuration is stored as config.toml in the .mishkat/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  corpus.quran_path, corpus.tafsir_dir, corpus.chunk_size,
  index.provider, index.target, index.collection,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  model.name, model.base_url, model.max_tokens, model.max_attempts,
  retrieval.top_k, retrieval.redundancy_threshold,
  api.listen, events.provider, events.topic

Use subcommands to get, set, or list configuration values:
  mishkat config set <key> <value>    Set a configuration value
  mishkat config get <key>            Get a configuration value
  mishkat config list                 List all configuration values

Examples:
  mishkat config set index.provider sqlite
  mishkat config set embedding.model text-embedding-3-large
  mishkat config get model.name
  mishkat config list`

const configShortDesc string = "Manage persistent mishkat configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
