// Package main is the entry point for the valmetrics CLI tool, which
// normalizes Valorant match payloads and computes player performance metrics.
package main

import "github.com/pable/valmetrics/cmd"

func main() {
	cmd.Execute()
}
