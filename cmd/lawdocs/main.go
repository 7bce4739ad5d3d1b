// lawdocs converts regulatory PDFs into structure-faithful Markdown plus a
// companion quality-accounting metadata file.
//
// Usage: lawdocs [flags] <input_root> <output_root>
package main

import (
	"os"

	"github.com/lawdocs/pipeline/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
