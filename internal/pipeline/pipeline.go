// Package pipeline orchestrates one document through the full
// extract→clean→promote→emit sequence. Its shape (a single driver method
// threading an explicit context through every stage, heavy narration
// logging, structured error returns) follows the teacher repo's
// processor.ProcessDocument, generalized to the legal-document domain.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lawdocs/pipeline/internal/clean"
	"github.com/lawdocs/pipeline/internal/config"
	pipelineerrors "github.com/lawdocs/pipeline/internal/errors"
	"github.com/lawdocs/pipeline/internal/emit"
	"github.com/lawdocs/pipeline/internal/enumerate"
	"github.com/lawdocs/pipeline/internal/extract"
	"github.com/lawdocs/pipeline/internal/heading"
	"github.com/lawdocs/pipeline/internal/logging"
	"github.com/lawdocs/pipeline/internal/metrics"
	"github.com/lawdocs/pipeline/internal/model"
	"github.com/lawdocs/pipeline/internal/ocr"
	"github.com/lawdocs/pipeline/internal/suppress"
	"github.com/lawdocs/pipeline/internal/suspect"
)

// Pipeline holds the dependencies shared by every document run: resolved
// config and probed capabilities. It owns no per-document state.
type Pipeline struct {
	Cfg  *config.Config
	Caps model.Capabilities
	Log  *logging.Logger
}

// New builds a Pipeline from resolved config and probed capabilities.
func New(cfg *config.Config, caps model.Capabilities) *Pipeline {
	return &Pipeline{Cfg: cfg, Caps: caps, Log: logging.New("pipeline")}
}

// Outcome is what one document run produced, for the driver/dispatcher to
// aggregate into a RunSummary and optionally persist to the run ledger.
type Outcome struct {
	DocID          string
	Markdown       string
	Meta           model.Metadata
	EmitResult     *emit.Result
	Err            error
}

// Run executes the full pipeline for one enumerated document and emits its
// outputs. It never panics: every external-tool or I/O failure is returned
// as a *errors.PipelineError so the dispatcher can record it and move on to
// the next document.
func (p *Pipeline) Run(ctx context.Context, entry enumerate.Entry) Outcome {
	started := time.Now()
	log := logging.New(entry.DocID)

	outcome := Outcome{DocID: entry.DocID}

	if !p.Caps.HasTextExtractor {
		outcome.Err = pipelineerrors.NewCapabilityError(entry.DocID, "pdftotext", nil)
		return outcome
	}

	log.Info("extracting pages", "path", entry.AbsPath)
	rawPages, err := extract.Extract(ctx, entry.DocID, entry.AbsPath)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	pageCount := len(rawPages)

	suspectPages := suspect.Detect(rawPages)
	log.Info("suspect detection complete", "suspects", len(suspectPages), "pages", pageCount)

	ocrInfo, pages, timingMS := p.runOCR(ctx, log, entry.DocID, entry.AbsPath, rawPages, suspectPages)

	preCleanupPages := append([]string(nil), pages...)

	whitelist := suppress.CompileWhitelist(p.Cfg.KeepLines)
	suppressedPages, cleanupStats := suppress.Suppress(pages, whitelist)

	cleaned, cleanStats := clean.Clean(suppressedPages)
	cleanupStats.HyphensFixed += cleanStats.HyphensFixed

	markdown, found := heading.Promote(cleaned)

	charCoverage := metrics.CharacterCoverage(markdown, preCleanupPages)
	leakRate := metrics.LeakRate(markdown)
	splitViolations := metrics.SplitViolations(markdown)
	coveragePages := metrics.CoveragePages(pageCount, suspectPages, ocrInfo.OCRRunPages)
	p95 := metrics.P95(timingMS)

	finished := time.Now()
	cleanupStats.RuntimeMS = finished.Sub(started).Milliseconds()

	meta := model.Metadata{
		DocID:        entry.DocID,
		Engine:       "lawdocs-pipeline",
		SuspectPages: suspectPages,
		OCR:          ocrInfo,
		Found:        found,
		Stats:        cleanupStats,
		Metrics: model.Metrics{
			CharacterCoverage: charCoverage,
			LeakRate:          leakRate,
			SplitViolations:   splitViolations,
			CoveragePages:     coveragePages,
			DurationMS:        finished.Sub(started).Milliseconds(),
		},
		PageCount:           pageCount,
		TimingMSPerPage:     timingMS,
		P95LatencyMSPerPage: p95,
		Timestamps: model.Timestamps{
			StartedMS:  started.UnixMilli(),
			FinishedMS: finished.UnixMilli(),
		},
	}

	fp, err := metrics.Fingerprint(meta)
	if err != nil {
		outcome.Err = pipelineerrors.NewEmitError(entry.DocID, "", err)
		return outcome
	}
	meta.MetaFingerprint = fp

	outcome.Markdown = markdown
	outcome.Meta = meta

	keepArtifacts := p.Cfg.Artifacts || p.Cfg.DumpSteps
	result, err := emit.Emit(p.Cfg.OutputRoot, entry.DocID, markdown, meta, p.Cfg.PerDocDir, keepArtifacts, nil)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.EmitResult = result

	log.Info("document complete", "bab", found.BAB, "pasal", found.Pasal,
		"coverage_pages", coveragePages, "leak_rate", leakRate, "fingerprint", fp)

	return outcome
}

// runOCR handles the with-ocr tri-state, the CI sample cap, and the
// adaptive per-page fallback, returning the OCR metadata block, the page
// texts with OCR'd pages substituted in, and a per-page latency sample.
func (p *Pipeline) runOCR(ctx context.Context, log *logging.Logger, docID, pdfPath string, rawPages []string, suspectPages []int) (model.OCRInfo, []string, []int64) {
	pages := append([]string(nil), rawPages...)
	primary := model.OCRConfig{Lang: p.Cfg.OCRLang, PSM: 4, OEM: 1, DPI: p.Cfg.OCRDPI}

	info := model.OCRInfo{
		Enabled: p.Cfg.WithOCR != config.OCROff,
		Lang:    primary.Lang,
		PSM:     primary.PSM,
		OEM:     primary.OEM,
		DPI:     primary.DPI,
	}

	timings := make([]int64, len(rawPages))

	if p.Cfg.WithOCR == config.OCROff {
		info.SkippedReason = "disabled by --with-ocr=off"
		return info, pages, timings
	}
	if len(suspectPages) == 0 {
		return info, pages, timings
	}
	if !p.Caps.HasRasterizer || !p.Caps.HasOCR {
		info.SkippedReason = "rasterizer or OCR engine unavailable"
		return info, pages, timings
	}

	toRun := suspectPages
	if p.Cfg.CISampleSuspects > 0 && p.Cfg.CISampleSuspects < len(suspectPages) {
		toRun = suspectPages[:p.Cfg.CISampleSuspects]
		log.Warn("CI sample cap applied", "cap", p.Cfg.CISampleSuspects, "total_suspects", len(suspectPages))
	}

	workDir, err := os.MkdirTemp("", "lawdocs-ocr-*")
	if err != nil {
		info.SkippedReason = fmt.Sprintf("failed to create work dir: %v", err)
		return info, pages, timings
	}
	defer os.RemoveAll(workDir)

	ran := []int{}
	effective := primary
	for _, page := range toRun {
		pageStart := time.Now()
		res, err := ocr.Run(ctx, docID, pdfPath, page, primary, workDir, p.Cfg.Artifacts)
		timings[page-1] = time.Since(pageStart).Milliseconds()
		if err != nil {
			log.Warn("OCR failed on page", "page", page, "error", err)
			continue
		}
		pages[page-1] = res.Text
		ran = append(ran, page)
		effective = res.Config
	}

	info.Ran = len(ran) > 0
	info.OCRRunPages = ran
	info.Lang = effective.Lang
	info.PSM = effective.PSM
	info.OEM = effective.OEM
	info.DPI = effective.DPI

	return info, pages, timings
}

// docIDFromPath derives a doc_id for a path under root the same way the
// enumerator does. Nothing in the module calls it.
func docIDFromPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return enumerate.DocID(strings.TrimPrefix(rel, string(filepath.Separator)))
}
