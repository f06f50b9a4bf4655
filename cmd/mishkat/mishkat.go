// Package mishkatcmder
package mishkatcmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/noorlabs/mishkat/cmd/mishkat/ask"
	configcmder "github.com/noorlabs/mishkat/cmd/mishkat/config"
	indexcmder "github.com/noorlabs/mishkat/cmd/mishkat/index"
	servecmder "github.com/noorlabs/mishkat/cmd/mishkat/serve"
	versioncmder "github.com/noorlabs/mishkat/cmd/version"
)

const mishkatLongDesc string = `Mishkat answers questions about the Quran and its tafsir literature
with cited, retrieval-grounded answers.

	mishkat index     Build the vector index from corpus files
	mishkat ask       Ask a question from the terminal
	mishkat serve     Run the HTTP API and MCP server`

const mishkatShortDesc string = "Mishkat - Quranic question answering"

func NewMishkatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mishkat",
		Short: mishkatShortDesc,
		Long:  mishkatLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .mishkat/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(indexcmder.NewIndexCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
