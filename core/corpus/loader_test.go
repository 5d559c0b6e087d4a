package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/siherrmann/usreport/core/pipeline"
	"github.com/siherrmann/usreport/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func writeCorpus(t *testing.T) string {
	dir := t.TempDir()
	writeFile(t, dir, "liver.md", "# Liver\nFatty liver: mild steatosis\n\n## Cirrhosis\nNodular surface.\n")
	writeFile(t, dir, "kidney.md", "# Kidney\nRenal cyst: simple cyst.\n")
	writeFile(t, dir, "nested/gallbladder.md", "# Gallbladder\nCholelithiasis.\n")
	return dir
}

func TestLoaderLoad(t *testing.T) {
	t.Run("Loads all organs recursively", func(t *testing.T) {
		dir := writeCorpus(t)
		loader := NewLoader(dir, pipeline.DefaultSplitter(), true, nil)

		kb, err := loader.Load()

		require.NoError(t, err)
		assert.Equal(t, []model.Organ{model.OrganLiver, model.OrganKidney, model.OrganGallBladder}, kb.Organs())
		require.Len(t, kb[model.OrganLiver], 2)
		assert.Equal(t, "# Liver\nFatty liver: mild steatosis", kb[model.OrganLiver][0].Content)
		assert.Equal(t, "Liver", kb[model.OrganLiver][0].Headers["Header 1"])
		assert.Equal(t, model.OrganLiver, kb[model.OrganLiver][1].Organ)
		assert.Equal(t, 1, kb[model.OrganLiver][1].Index)
		assert.Contains(t, kb[model.OrganGallBladder][0].Source, "nested")
	})

	t.Run("Missing directory names the path", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "abnormal")
		loader := NewLoader(missing, pipeline.DefaultSplitter(), true, nil)

		kb, err := loader.Load()

		require.Error(t, err)
		assert.Nil(t, kb, "Expected no silent empty knowledge base")
		assert.ErrorIs(t, err, model.ErrCorpusLoad)
		assert.Contains(t, err.Error(), missing)
	})

	t.Run("File instead of directory", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "liver.md", "# Liver")
		_, err := NewLoader(path, pipeline.DefaultSplitter(), true, nil).Load()

		assert.ErrorIs(t, err, model.ErrCorpusLoad)
	})

	t.Run("Unknown organ key fails in strict mode", func(t *testing.T) {
		dir := writeCorpus(t)
		writeFile(t, dir, "Kidneys.md", "# Kidneys")

		_, err := NewLoader(dir, pipeline.DefaultSplitter(), true, nil).Load()

		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrCorpusLoad)
		assert.Contains(t, err.Error(), "Kidneys")
	})

	t.Run("Unknown organ key is skipped in lenient mode", func(t *testing.T) {
		dir := writeCorpus(t)
		writeFile(t, dir, "spleen.md", "# Spleen")

		kb, err := NewLoader(dir, pipeline.DefaultSplitter(), false, nil).Load()

		require.NoError(t, err)
		assert.Len(t, kb, 3)
	})

	t.Run("Duplicate organ file", func(t *testing.T) {
		dir := writeCorpus(t)
		writeFile(t, dir, "other/liver.md", "# Liver again")

		_, err := NewLoader(dir, pipeline.DefaultSplitter(), true, nil).Load()

		assert.ErrorIs(t, err, model.ErrCorpusLoad)
		assert.ErrorContains(t, err, "duplicate")
	})

	t.Run("Non markdown files are ignored", func(t *testing.T) {
		dir := writeCorpus(t)
		writeFile(t, dir, "notes.txt", "ignored")

		kb, err := NewLoader(dir, pipeline.DefaultSplitter(), true, nil).Load()

		require.NoError(t, err)
		assert.Len(t, kb, 3)
	})

	t.Run("Missing splitter", func(t *testing.T) {
		_, err := NewLoader(writeCorpus(t), nil, true, nil).Load()
		assert.ErrorIs(t, err, model.ErrCorpusLoad)
	})
}

func TestValidateOrgans(t *testing.T) {
	t.Run("All organs present", func(t *testing.T) {
		kb, err := NewLoader(writeCorpus(t), pipeline.DefaultSplitter(), true, nil).Load()
		require.NoError(t, err)

		assert.NoError(t, ValidateOrgans(kb, model.Organs()))
	})

	t.Run("Missing organ fails fast", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "liver.md", "# Liver\nx")

		kb, err := NewLoader(dir, pipeline.DefaultSplitter(), true, nil).Load()
		require.NoError(t, err)

		err = ValidateOrgans(kb, model.Organs())
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrCorpusLoad)
		assert.Contains(t, err.Error(), "kidney.md")
		assert.Contains(t, err.Error(), "gallbladder.md")
	})
}

func TestLoadKnowledgeBase(t *testing.T) {
	t.Run("Loads corpus in strict mode", func(t *testing.T) {
		dir := writeCorpus(t)

		kb, err := LoadKnowledgeBase(dir, pipeline.DefaultSplitter())

		require.NoError(t, err)
		assert.Equal(t, 4, kb.SegmentCount())
	})

	t.Run("Rejects unknown organ keys", func(t *testing.T) {
		dir := writeCorpus(t)
		writeFile(t, dir, "spleen.md", "# Spleen")

		_, err := LoadKnowledgeBase(dir, pipeline.DefaultSplitter())

		assert.ErrorIs(t, err, model.ErrCorpusLoad)
	})
}
