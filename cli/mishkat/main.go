package main

import (
	"os"

	mishkatcmder "github.com/noorlabs/mishkat/cmd/mishkat"
)

func main() {
	cmd := mishkatcmder.NewMishkatCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
