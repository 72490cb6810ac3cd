// cmd/htgen/main.go
package main

import (
	"github.com/bstardust/htgen/internal/logger"
	"github.com/bstardust/htgen/pkg/cli"
)

func main() {
	// Initialize logger
	logger.Init()

	// Execute CLI
	cli.Execute()
}
