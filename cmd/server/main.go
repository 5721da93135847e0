// Package main implements the entry point for the recurring task server,
// which stores users' recurring household tasks, materializes their
// upcoming instances and prunes old ones on a schedule.
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
