package main

import "github.com/dmitrymomot/marketplace/cmd/marketplace/cli"

var (
	// Set by ldflags during build.
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	cli.SetVersion(version, buildTime, gitCommit)
	cli.Execute()
}
