// typemigrate - diagnostic-driven source migration
//
// typemigrate reads the type checker's JSON diagnostics and rewrites the
// source lines they point at, pass after pass, until the tree compiles
// against the new generated types.
package main

import (
	"os"

	"github.com/ccollicutt/typemigrate/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
