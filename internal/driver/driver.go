// Package driver is the top-level batch driver: it enumerates documents,
// wires the optional domain-stack integrations (cache, ledger, index), picks
// a dispatcher, runs the pipeline over every document, and applies the
// --strict KPI policy to decide the process exit code.
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/lawdocs/pipeline/internal/cache"
	"github.com/lawdocs/pipeline/internal/config"
	"github.com/lawdocs/pipeline/internal/dispatch"
	"github.com/lawdocs/pipeline/internal/enumerate"
	pipelineerrors "github.com/lawdocs/pipeline/internal/errors"
	"github.com/lawdocs/pipeline/internal/groundtruth"
	"github.com/lawdocs/pipeline/internal/ledger"
	"github.com/lawdocs/pipeline/internal/logging"
	"github.com/lawdocs/pipeline/internal/model"
	"github.com/lawdocs/pipeline/internal/pipeline"
	"github.com/lawdocs/pipeline/internal/probe"
	"github.com/lawdocs/pipeline/internal/qualityindex"
)

// RunSummary is one document's final outcome, after KPI evaluation. Err is
// nil on success; otherwise it is either the pipeline failure passed
// through from Outcome.Err, or a *errors.PipelineError with code Schema
// built from the KPI violation(s) evaluate found.
type RunSummary struct {
	DocID   string
	Success bool
	KPIPass bool
	Err     error
}

// Driver ties the pipeline to enumeration, dispatch, and the optional
// domain-stack integrations.
type Driver struct {
	Cfg *config.Config
	Log *logging.Logger
}

func New(cfg *config.Config) *Driver {
	return &Driver{Cfg: cfg, Log: logging.New("driver")}
}

// Run processes every PDF under Cfg.InputRoot and returns the process exit
// code: 0 unless Cfg.Strict is set and at least one document violated a KPI
// or failed outright.
func (d *Driver) Run(ctx context.Context) (int, error) {
	caps := probe.Probe(ctx)
	d.Log.Info("capabilities probed", "text_extractor", caps.HasTextExtractor,
		"rasterizer", caps.HasRasterizer, "ocr", caps.HasOCR)

	entries, err := enumerate.Enumerate(d.Cfg.InputRoot)
	if err != nil {
		return 1, fmt.Errorf("enumerate input root: %w", err)
	}
	d.Log.Info("enumerated documents", "count", len(entries))

	var expectations map[string]groundtruth.Expectation
	if d.Cfg.GroundTruth != "" {
		expectations, err = groundtruth.Load(d.Cfg.GroundTruth)
		if err != nil {
			return 1, fmt.Errorf("load ground truth: %w", err)
		}
	}

	var fpCache *cache.Cache
	if d.Cfg.Cache {
		fpCache, err = cache.Connect(ctx, d.Cfg.RedisURL)
		if err != nil {
			d.Log.Warn("fingerprint cache unavailable, proceeding without it", "error", err)
			fpCache = nil
		} else {
			defer fpCache.Close()
		}
	}

	var runLedger *ledger.Ledger
	if d.Cfg.Ledger {
		runLedger, err = ledger.Connect(ctx, d.Cfg.DatabaseURL)
		if err != nil {
			d.Log.Warn("run ledger unavailable, proceeding without it", "error", err)
			runLedger = nil
		} else {
			defer runLedger.Close()
		}
	}

	var qIndex *qualityindex.Index
	if d.Cfg.Index {
		qIndex, err = qualityindex.Connect(ctx, d.Cfg.QdrantURL, d.Cfg.QdrantCollection)
		if err != nil {
			d.Log.Warn("quality index unavailable, proceeding without it", "error", err)
			qIndex = nil
		} else {
			defer qIndex.Close()
		}
	}

	p := pipeline.New(d.Cfg, caps)

	toRun, cachedOutcomes := d.splitCacheHits(ctx, fpCache, entries)

	var dispatcher dispatch.Dispatcher
	if d.Cfg.Dispatch == config.DispatchAsynq {
		dispatcher = dispatch.NewAsynqDispatcher(d.Cfg.RedisURL, concurrencyOrDefault(d.Cfg.Concurrency))
	} else {
		dispatcher = dispatch.NewLocalPool(d.Cfg.Concurrency)
	}

	started := time.Now()
	freshOutcomes := dispatcher.Run(ctx, toRun, p)
	d.Log.Info("batch complete", "documents", len(entries), "elapsed_ms", time.Since(started).Milliseconds())

	outcomes := mergeOutcomes(entries, toRun, freshOutcomes, cachedOutcomes)

	anyKPIFail := false
	for _, o := range outcomes {
		summary := d.evaluate(o, expectations)
		if !summary.Success || !summary.KPIPass {
			anyKPIFail = true
		}

		if fpCache != nil && o.Err == nil {
			if digest, derr := cache.SourceDigest(entryPath(entries, o.DocID)); derr == nil {
				fpCache.Store(ctx, o.DocID, digest, o.Meta.MetaFingerprint)
			}
		}
		if runLedger != nil {
			_ = runLedger.Append(ctx, ledger.Row{
				DocID:     o.DocID,
				Started:   time.UnixMilli(o.Meta.Timestamps.StartedMS),
				Finished:  time.UnixMilli(o.Meta.Timestamps.FinishedMS),
				Meta:      o.Meta,
				KPIPass:   summary.KPIPass,
				ErrorCode: errorCode(summary.Err),
			})
		}
		if qIndex != nil && o.Err == nil {
			if ierr := qIndex.Upsert(ctx, o.DocID, o.Meta); ierr != nil {
				d.Log.Warn("quality index upsert failed", "doc_id", o.DocID, "error", ierr)
			}
		}
	}

	if d.Cfg.Strict && anyKPIFail {
		return 1, nil
	}
	return 0, nil
}

func (d *Driver) evaluate(o pipeline.Outcome, expectations map[string]groundtruth.Expectation) RunSummary {
	summary := RunSummary{DocID: o.DocID, Success: o.Err == nil, KPIPass: true}
	if o.Err != nil {
		summary.Err = o.Err
		summary.KPIPass = false
		return summary
	}

	var reasons []string
	if len(o.Meta.SuspectPages) > 0 && o.Meta.Metrics.CoveragePages < 1.0 {
		reasons = append(reasons, "coverage_pages below 1.0 with unresolved suspect pages")
	}
	if o.Meta.Metrics.LeakRate > 0 {
		reasons = append(reasons, "non-zero leak_rate")
	}
	if exp, ok := expectations[o.DocID]; ok {
		if o.Meta.Found.BAB != exp.BAB || o.Meta.Found.Pasal != exp.Pasal {
			reasons = append(reasons, fmt.Sprintf("landmark mismatch: found bab=%d pasal=%d, expected bab=%d pasal=%d",
				o.Meta.Found.BAB, o.Meta.Found.Pasal, exp.BAB, exp.Pasal))
		}
	}

	if len(reasons) > 0 {
		summary.KPIPass = false
		summary.Err = pipelineerrors.NewSchemaError(o.DocID, strings.Join(reasons, "; "))
	}
	return summary
}

// errorCode extracts the stable error-taxonomy code from a RunSummary's
// Err for the run ledger, empty when there was no failure.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if pe, ok := err.(*pipelineerrors.PipelineError); ok {
		return string(pe.Code)
	}
	return ""
}

// splitCacheHits separates entries whose prior output is already valid
// (unchanged source digest, cached fingerprint, output files present) from
// those that need to run.
func (d *Driver) splitCacheHits(ctx context.Context, c *cache.Cache, entries []enumerate.Entry) ([]enumerate.Entry, map[string]pipeline.Outcome) {
	cached := map[string]pipeline.Outcome{}
	if c == nil {
		return entries, cached
	}

	var toRun []enumerate.Entry
	for _, e := range entries {
		digest, err := cache.SourceDigest(e.AbsPath)
		if err != nil {
			toRun = append(toRun, e)
			continue
		}
		fp, ok := c.Lookup(ctx, e.DocID, digest)
		if !ok || !outputsExist(d.Cfg, e.DocID) {
			toRun = append(toRun, e)
			continue
		}
		cached[e.DocID] = pipeline.Outcome{
			DocID: e.DocID,
			Meta:  model.Metadata{DocID: e.DocID, MetaFingerprint: fp},
		}
	}
	return toRun, cached
}

func outputsExist(cfg *config.Config, docID string) bool {
	dir := cfg.OutputRoot
	if cfg.PerDocDir {
		dir = filepath.Join(cfg.OutputRoot, docID)
	}
	mdPath := filepath.Join(dir, docID+".md")
	metaPath := filepath.Join(dir, docID+".meta.json")
	if _, err := os.Stat(mdPath); err != nil {
		return false
	}
	if _, err := os.Stat(metaPath); err != nil {
		return false
	}
	return true
}

func mergeOutcomes(all, ran []enumerate.Entry, freshOutcomes []pipeline.Outcome, cached map[string]pipeline.Outcome) []pipeline.Outcome {
	byDocID := make(map[string]pipeline.Outcome, len(all))
	for i, e := range ran {
		byDocID[e.DocID] = freshOutcomes[i]
	}
	for docID, o := range cached {
		byDocID[docID] = o
	}

	result := make([]pipeline.Outcome, 0, len(all))
	for _, e := range all {
		if o, ok := byDocID[e.DocID]; ok {
			result = append(result, o)
		}
	}
	return result
}

func entryPath(entries []enumerate.Entry, docID string) string {
	for _, e := range entries {
		if e.DocID == docID {
			return e.AbsPath
		}
	}
	return ""
}

func concurrencyOrDefault(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}
