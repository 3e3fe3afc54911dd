// veriscan is a concurrent TCP connect port scanner that can cross-check
// its results against nmap and watch targets for open-port drift.
package main

import (
	"github.com/veriscan/veriscan/cmd/cli"
)

// Build information - set by ldflags during build.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildTime)
	cli.Execute()
}
