// Package main is the entry point for the mintwell API server.
package main

import (
	"os"

	"github.com/mintwell/mintwell-server/cmd/mintwell-api/app"
	"github.com/mintwell/mintwell-server/pkg/logger"
)

func main() {
	logger.Initialize()

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
