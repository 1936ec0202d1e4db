// Command novelreview analyzes manuscript drafts with an LLM-backed workflow.
//
// Usage:
//
//	novelreview analyze chapter1.docx chapter2.md --format markdown --save
//	novelreview analyze --text "..." --format json
//	novelreview serve --addr :8080
//	novelreview mcp
//	novelreview history --limit 10
//	novelreview show <run-id>
//	novelreview graph
//
// API keys are read from OPENAI_API_KEY, ANTHROPIC_API_KEY or GOOGLE_API_KEY
// (a .env file in the working directory is honored). Other settings come
// from the YAML config file and NOVELREVIEW_* variables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
