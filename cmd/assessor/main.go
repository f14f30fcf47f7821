// cmd/assessor/main.go
package main

import (
	"github.com/mwiater/assessor/internal/cli"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// main starts the assessor CLI by delegating to the cobra root command.
func main() {
	cli.SetVersionInfo(version, commit, date)
	cli.Execute()
}
