// Package main is the entry point for the amiqc binary.
package main

import (
	"os"

	cli "amiqc/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
