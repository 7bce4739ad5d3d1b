// Package emit implements the Emitter: atomic output writes (temp file +
// rename) with stale-artifact cleanup, so a killed run never leaves a
// partially written document behind.
package emit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	pipelineerrors "github.com/lawdocs/pipeline/internal/errors"
	"github.com/lawdocs/pipeline/internal/model"
)

// Result captures where the document's outputs were written, for logging
// and the run ledger.
type Result struct {
	Dir      string
	MDPath   string
	MetaPath string
}

// Emit writes the Markdown and metadata atomically under outputRoot,
// nesting under <doc_id>/ when perDocDir is set. keepArtifacts controls
// whether artifacts/ (step dumps, OCR page images) survives; when false any
// existing artifacts/ subtree is removed.
func Emit(outputRoot, docID, markdown string, meta model.Metadata, perDocDir, keepArtifacts bool, stepArtifacts map[string][]byte) (*Result, error) {
	dir := outputRoot
	if perDocDir {
		dir = filepath.Join(outputRoot, docID)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, pipelineerrors.NewEmitError(docID, dir, err)
	}

	if err := cleanStale(dir, keepArtifacts); err != nil {
		return nil, pipelineerrors.NewEmitError(docID, dir, err)
	}

	mdPath := filepath.Join(dir, docID+".md")
	if err := writeAtomic(mdPath, []byte(markdown)); err != nil {
		return nil, pipelineerrors.NewEmitError(docID, mdPath, err)
	}

	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, pipelineerrors.NewEmitError(docID, "", err)
	}
	metaPath := filepath.Join(dir, docID+".meta.json")
	if err := writeAtomic(metaPath, metaBytes); err != nil {
		return nil, pipelineerrors.NewEmitError(docID, metaPath, err)
	}

	if keepArtifacts && len(stepArtifacts) > 0 {
		artifactsDir := filepath.Join(dir, "artifacts")
		for relPath, data := range stepArtifacts {
			full := filepath.Join(artifactsDir, relPath)
			if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
				return nil, pipelineerrors.NewEmitError(docID, full, err)
			}
			if err := writeAtomic(full, data); err != nil {
				return nil, pipelineerrors.NewEmitError(docID, full, err)
			}
		}
	}

	return &Result{Dir: dir, MDPath: mdPath, MetaPath: metaPath}, nil
}

// writeAtomic writes data to a temp file in the same directory as path,
// then renames it into place so readers never observe a partial write.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

// cleanStale removes leftover *.tmp files, loose step-artifact files
// outside artifacts/, and any existing artifacts/ subtree when artifacts are
// disabled for this run.
func cleanStale(dir string, keepArtifacts bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		name := e.Name()
		full := filepath.Join(dir, name)

		if strings.HasSuffix(name, ".tmp") {
			os.Remove(full)
			continue
		}
		if !e.IsDir() && strings.HasPrefix(name, "step") {
			os.Remove(full)
			continue
		}
		if e.IsDir() && name == "artifacts" && !keepArtifacts {
			os.RemoveAll(full)
			continue
		}
	}

	return nil
}
