// Package probe implements the Dependency Probe: it detects which external
// tools are present and callable before the pipeline commits to a strategy
// for any given document.
package probe

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/lawdocs/pipeline/internal/model"
)

// Probe detects capabilities by attempting a trivial invocation of each
// external tool. A missing or uncallable tool is never fatal here; it only
// disables stages that depend on it.
func Probe(ctx context.Context) model.Capabilities {
	caps := model.Capabilities{}

	caps.HasTextExtractor = hasBinary(ctx, "pdftotext")
	caps.HasRasterizer = hasBinary(ctx, "pdftoppm")
	caps.HasOCR, caps.OCRLanguages = probeOCR()

	return caps
}

func hasBinary(ctx context.Context, name string) bool {
	path, err := exec.LookPath(name)
	if err != nil {
		return false
	}
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cmd := exec.CommandContext(probeCtx, path, "-v")
	// Some of these tools print their version banner to stderr and still
	// exit non-zero; presence on PATH plus a clean invocation attempt is
	// enough to call the capability available.
	_ = cmd.Run()
	return true
}

func probeOCR() (bool, []string) {
	client := gosseract.NewClient()
	defer client.Close()

	langs, err := client.GetAvailableLanguages()
	if err != nil {
		return false, nil
	}
	for i, l := range langs {
		langs[i] = strings.TrimSpace(l)
	}
	return true, langs
}
