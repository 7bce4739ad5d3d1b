// Package ocr implements the OCR Subsystem: rasterizing suspect pages and
// running Tesseract over them with an adaptive fallback on empty output.
//
// Grounded on the teacher repo's tesseract_ocr.go (gosseract client usage)
// and the pack's pdftoppm rasterization pattern (exec.Command with -png -r
// <dpi>, results collected via filepath.Glob on the output prefix).
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	pipelineerrors "github.com/lawdocs/pipeline/internal/errors"
	"github.com/lawdocs/pipeline/internal/model"
)

// Timeout is the per-page OCR deadline (rasterize + recognize).
const Timeout = 120 * time.Second

// Result is the outcome of OCR'ing one page.
type Result struct {
	Text      string
	Config    model.OCRConfig
	Fallback  bool
}

// Run rasterizes the given page of pdfPath at primary.DPI and recognizes it,
// retrying with the adaptive fallback configuration when the primary pass
// yields empty text after trimming. workDir is used for the rasterized PNG;
// when keepArtifact is false the PNG is removed before returning.
func Run(ctx context.Context, docID, pdfPath string, page int, primary model.OCRConfig, workDir string, keepArtifact bool) (*Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	png, artifactPath, err := rasterize(runCtx, pdfPath, page, primary.DPI, workDir)
	if err != nil {
		return nil, pipelineerrors.NewOCRError(docID, page, err)
	}
	if !keepArtifact && artifactPath != "" {
		defer os.Remove(artifactPath)
	}

	text, err := recognize(png, primary)
	if err != nil {
		return nil, pipelineerrors.NewOCRError(docID, page, err)
	}

	if strings.TrimSpace(text) != "" {
		return &Result{Text: text, Config: primary}, nil
	}

	fallback := model.FallbackOCRConfig(primary)
	text, err = recognize(png, fallback)
	if err != nil {
		return nil, pipelineerrors.NewOCRError(docID, page, err)
	}
	return &Result{Text: text, Config: fallback, Fallback: true}, nil
}

func rasterize(ctx context.Context, pdfPath string, page, dpi int, workDir string) ([]byte, string, error) {
	prefix := filepath.Join(workDir, fmt.Sprintf("page-%d", page))

	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png", "-r", strconv.Itoa(dpi),
		"-f", strconv.Itoa(page), "-l", strconv.Itoa(page),
		pdfPath, prefix)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, "", fmt.Errorf("pdftoppm failed: %w (%s)", err, stderr.String())
	}

	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil || len(matches) == 0 {
		// Some poppler versions omit the numeric suffix entirely when a
		// single page is requested.
		single := prefix + ".png"
		if _, statErr := os.Stat(single); statErr == nil {
			matches = []string{single}
		} else {
			return nil, "", fmt.Errorf("pdftoppm produced no output for page %d", page)
		}
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, "", err
	}
	return data, matches[0], nil
}

func recognize(png []byte, cfg model.OCRConfig) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(strings.Split(cfg.Lang, "+")...); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(cfg.PSM)); err != nil {
		return "", fmt.Errorf("set psm: %w", err)
	}
	if err := client.SetVariable(gosseract.SettableVariable("tessedit_ocr_engine_mode"), strconv.Itoa(cfg.OEM)); err != nil {
		return "", fmt.Errorf("set oem: %w", err)
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return text, nil
}
