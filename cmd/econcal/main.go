// Command econcal runs economic-calendar reconciliation jobs: provider
// syncs, stale-event detection, and reschedule-marker repair.
package main

import (
	"os"

	"github.com/econcal/econcal/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
