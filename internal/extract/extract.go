// Package extract implements the Page Extractor: it invokes the external
// layout-preserving text extractor and splits its output on form-feed page
// separators.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	pipelineerrors "github.com/lawdocs/pipeline/internal/errors"
)

// Timeout is the per-document extraction deadline.
const Timeout = 60 * time.Second

// Extract runs pdftotext -layout over pdfPath's bytes via stdin/stdout pipes
// and returns one text blob per page, split on the extractor's form-feed
// page separators.
func Extract(ctx context.Context, docID, pdfPath string) ([]string, error) {
	content, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, pipelineerrors.NewExtractError(docID, -1, "", err)
	}

	extractCtx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	cmd := exec.CommandContext(extractCtx, "pdftotext", "-layout", "-", "-")
	cmd.Stdin = bytes.NewReader(content)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitStatus := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitStatus = exitErr.ExitCode()
		}
		return nil, pipelineerrors.NewExtractError(docID, exitStatus, stderrTail(stderr.String()), err)
	}

	return splitPages(stdout.String()), nil
}

// splitPages breaks pdftotext's output on the form-feed character it emits
// between pages. A trailing empty page produced by a trailing form feed is
// dropped.
func splitPages(text string) []string {
	pages := strings.Split(text, "\f")
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	if len(pages) == 0 {
		pages = []string{""}
	}
	return pages
}

func stderrTail(s string) string {
	const maxLen = 500
	if len(s) <= maxLen {
		return s
	}
	return s[len(s)-maxLen:]
}

// ErrBinaryMissing names the missing-pdftotext condition. Nothing in the
// module returns it: the pipeline reports a missing extractor as a
// capability error instead.
var ErrBinaryMissing = fmt.Errorf("pdftotext not available")
