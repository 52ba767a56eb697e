// Package app provides the RAG query server application.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kart-io/ragquery/cmd/ragquery/app/options"
	"github.com/kart-io/ragquery/internal/ragquery"
	"github.com/kart-io/ragquery/pkg/infra/app"
)

// commandDesc is the description of the command.
const commandDesc = `RAG Query Service

Answers natural-language questions over a document index.

POST /ragQuery with {"question": "...", "businessContext": "..."}:
  - retrieves the top 5 documents from the search backend (Azure AI Search, RediSearch or Milvus)
  - asks the chat model to answer using only those documents
  - returns the answer with one citation per retrieved document

Configuration is read from flags, RAGQUERY_* environment variables and an
optional ragquery.yaml. AZURE_SEARCH_* and AZURE_OPENAI_* variables fill the
search and chat settings left empty.`

// NewApp creates and returns a new App object with default parameters.
func NewApp() *app.App {
	opts := options.NewServerOptions()
	application := app.NewApp(
		app.WithName(ragquery.Name),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)

	return application
}

// run contains the main logic for initializing and running the server.
func run(opts *options.ServerOptions) app.RunFunc {
	return func() error {
		// Load the configuration options
		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		ctx := setupSignalContext()

		// Build the server using the configuration
		server, err := cfg.NewServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		// Run the server with signal context for graceful shutdown
		return server.Run(ctx)
	}
}

// setupSignalContext returns a context that is cancelled on SIGINT or SIGTERM.
// A second signal exits immediately.
func setupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}
