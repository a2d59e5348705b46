// Package main provides the liveform CLI.
//
// liveform runs the registration and product forms in the terminal with
// live validation, and validates form documents in batch.
//
// Usage:
//
//	liveform [command] [flags]
//
// Commands:
//
//	register      Fill in the registration form
//	product       Fill in the product form
//	validate      Validate a YAML or JSON form document
//	schema        Print the forms as OpenAPI component schemas
//	i18n          Check message catalogues
//
// Examples:
//
//	# Choose a form from the menu, in Chinese
//	liveform --locale zh
//
//	# Validate a document and print every error
//	liveform validate --form registration -f signup.yaml
//
//	# Find keys missing from a catalogue directory
//	liveform i18n find-missing --dir ./locales
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(newApp()).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
