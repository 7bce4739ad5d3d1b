// Package model holds the data types shared across every pipeline stage.
package model

import "time"

// Capabilities records which external tools were found callable by the probe.
type Capabilities struct {
	HasTextExtractor bool     `json:"has_text_extractor"`
	HasRasterizer    bool     `json:"has_rasterizer"`
	HasOCR           bool     `json:"has_ocr"`
	OCRLanguages     []string `json:"ocr_languages,omitempty"`
}

// OCRConfig is the effective tesseract configuration for one OCR invocation.
type OCRConfig struct {
	Lang string `json:"lang"`
	PSM  int    `json:"psm"`
	OEM  int    `json:"oem"`
	DPI  int    `json:"dpi"`
}

// DefaultOCRConfig returns the primary (non-fallback) configuration.
func DefaultOCRConfig() OCRConfig {
	return OCRConfig{Lang: "ind", PSM: 4, OEM: 1, DPI: 300}
}

// FallbackOCRConfig returns the adaptive fallback applied when the primary
// pass yields empty text.
func FallbackOCRConfig(primary OCRConfig) OCRConfig {
	return OCRConfig{Lang: "ind+eng", PSM: 6, OEM: primary.OEM, DPI: primary.DPI}
}

// Page is one page of a Document as it flows through extraction, OCR,
// suppression, and cleanup.
type Page struct {
	Index      int // 1-based
	Text       string
	Suspect    bool
	OCRRan     bool
	OCRConfig  OCRConfig
	LatencyMS  int64
}

// Document is one source PDF and the pages extracted from it.
type Document struct {
	DocID    string
	SrcPath  string
	Pages    []*Page
}

// FoundCounts tallies the legal landmarks recognized by the heading promoter.
type FoundCounts struct {
	BAB        int  `json:"bab"`
	Pasal      int  `json:"pasal"`
	Menimbang  bool `json:"menimbang"`
	Mengingat  bool `json:"mengingat"`
	Penjelasan bool `json:"penjelasan"`
}

// CleanupStats accumulates counters from the suppressor and cleaner stages.
// RuntimeMS is volatile and stripped before fingerprinting.
type CleanupStats struct {
	RemovedHeader int   `json:"removed_header"`
	RemovedFooter int   `json:"removed_footer"`
	HyphensFixed  int   `json:"hyphens_fixed"`
	RuntimeMS     int64 `json:"runtime_ms"`
}

// Metrics are the quality figures computed after heading promotion.
// DurationMS is volatile and stripped before fingerprinting.
type Metrics struct {
	CharacterCoverage float64 `json:"character_coverage"`
	LeakRate          float64 `json:"leak_rate"`
	SplitViolations   int     `json:"split_violations"`
	CoveragePages     float64 `json:"coverage_pages"`
	DurationMS        int64   `json:"duration_ms"`
}

// OCRInfo is the `ocr` block of the metadata JSON.
type OCRInfo struct {
	Enabled        bool   `json:"enabled"`
	Ran            bool   `json:"ran"`
	SkippedReason  string `json:"skipped_reason,omitempty"`
	OCRRunPages    []int  `json:"ocr_run_pages"`
	Lang           string `json:"lang"`
	PSM            int    `json:"psm"`
	OEM            int    `json:"oem"`
	DPI            int    `json:"dpi"`
}

// Timestamps are volatile (excluded from the fingerprint).
type Timestamps struct {
	StartedMS  int64 `json:"started_ms"`
	FinishedMS int64 `json:"finished_ms"`
}

// Metadata is the full `<doc_id>.meta.json` document.
type Metadata struct {
	DocID                string     `json:"doc_id"`
	Engine               string     `json:"engine"`
	SuspectPages         []int      `json:"suspect_pages"`
	OCR                  OCRInfo    `json:"ocr"`
	Found                FoundCounts `json:"found"`
	Stats                CleanupStats `json:"stats"`
	Metrics              Metrics    `json:"metrics"`
	PageCount            int        `json:"page_count"`
	TimingMSPerPage      []int64    `json:"timing_ms_per_page"`
	P95LatencyMSPerPage  float64    `json:"p95_latency_ms_per_page"`
	Timestamps           Timestamps `json:"timestamps"`
	MetaFingerprint      string     `json:"meta_fingerprint"`
}

// Now is overridable in tests; production code always uses time.Now.
var Now = time.Now
