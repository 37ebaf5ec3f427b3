// Command rainfall reshapes daily rainfall readings into a per-year Dataset
// and renders, corrects, exports, and serves it.
package main

import (
	"log/slog"
	"os"

	"github.com/couchcryptid/rainfall-etl/internal/observability"
)

func main() {
	if err := newRootCmd(observability.NewMetrics()).Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
