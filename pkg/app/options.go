// Package app defines the contract between a command's options and the
// application runner in pkg/infra/app.
package app

import "github.com/kart-io/ragquery/pkg/app/cliflag"

// CliOptions is implemented by the root options struct of a command.
type CliOptions interface {
	// Flags returns the flags grouped into named sections for help output.
	Flags() cliflag.NamedFlagSets
	// Complete fills derived values after flags, env and file are applied.
	Complete() error
	// Validate reports every invalid option at once.
	Validate() error
}
