// Package main is the entry point for the fern property resolution service and CLI.
package main

import (
	"github.com/Ramsey-B/fern/cmd/fern/cmd"
)

var version = "dev"

func main() {
	cmd.Execute(version)
}
