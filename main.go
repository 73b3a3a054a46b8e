// Package main is the entry point for the dpipe CLI tool, which scrapes PUBG
// match telemetry, cleans disaster-response messages, trains the message
// classifier, and serves the result dashboard.
package main

import "github.com/pable/go-data-pipelines/cmd"

func main() {
	cmd.Execute()
}
