// Package main is the entry point for the RAG query service.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/ragquery/cmd/ragquery/app"
)

func main() {
	app.NewApp().Run()
}
