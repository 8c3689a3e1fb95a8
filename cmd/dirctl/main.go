// Command dirctl runs maintenance tasks against the directory database.
package main

import (
	"os"

	"github.com/ikkim/bizdir-backend/pkg/logger"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("dirctl failed", err)
		os.Exit(1)
	}
}
