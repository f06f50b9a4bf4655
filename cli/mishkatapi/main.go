package main

import (
	"os"

	servecmder "github.com/noorlabs/mishkat/cmd/mishkat/serve"
)

func main() {
	cmd := servecmder.NewServeCmd()
	cmd.Use = "mishkatapi"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .mishkat/ config directory")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
