/*
Package main is the entry point for the staffassist CLI.

staffassist answers HealthCareWorld staff questions about sales, products,
customers and inventory, grounded in the business store.

Usage:

	staffassist [command]

Available Commands:

	serve       Run the staff assistant HTTP API
	ask         Ask one question and print the response envelope
	seed        Import a JSON dataset into the business store
	sessions    Print the conversation log of a session

Examples:

	# Load data and start the API
	staffassist seed ./datasets/march.json
	staffassist serve --addr :8080

	# One-shot question
	staffassist ask "Which products are low on stock?"
*/
package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/0xcro3dile/staffassist/internal/cli"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	root := cli.NewRootCmd(fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date))
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
