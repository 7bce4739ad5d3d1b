package emit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lawdocs/pipeline/internal/model"
)

func TestEmitWritesMarkdownAndMetadata(t *testing.T) {
	root := t.TempDir()
	meta := model.Metadata{DocID: "uu-1-2020", Engine: "lawdocs"}

	res, err := Emit(root, "uu-1-2020", "# Title\n", meta, false, false, nil)
	require.NoError(t, err)

	mdBytes, err := os.ReadFile(res.MDPath)
	require.NoError(t, err)
	assert.Equal(t, "# Title\n", string(mdBytes))

	_, err = os.Stat(res.MetaPath)
	assert.NoError(t, err)
}

func TestEmitPerDocDir(t *testing.T) {
	root := t.TempDir()
	meta := model.Metadata{DocID: "uu-2-2021"}

	res, err := Emit(root, "uu-2-2021", "content", meta, true, false, nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "uu-2-2021"), res.Dir)
}

func TestEmitCleansStaleArtifactsWhenDisabled(t *testing.T) {
	root := t.TempDir()
	artifactsDir := filepath.Join(root, "artifacts")
	require.NoError(t, os.MkdirAll(artifactsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "step1.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "leftover.tmp"), []byte("x"), 0o644))

	meta := model.Metadata{DocID: "uu-3-2021"}
	_, err := Emit(root, "uu-3-2021", "content", meta, false, false, nil)
	require.NoError(t, err)

	_, err = os.Stat(artifactsDir)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "step1.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "leftover.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestEmitKeepsArtifactsWhenEnabled(t *testing.T) {
	root := t.TempDir()
	meta := model.Metadata{DocID: "uu-4-2021"}

	stepArtifacts := map[string][]byte{
		"page_001.png": []byte("fake-png-bytes"),
	}

	res, err := Emit(root, "uu-4-2021", "content", meta, false, true, stepArtifacts)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(res.Dir, "artifacts", "page_001.png"))
	require.NoError(t, err)
	assert.Equal(t, "fake-png-bytes", string(data))
}
