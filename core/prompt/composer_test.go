package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/siherrmann/usreport/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSections(t *testing.T, skip ...string) string {
	dir := t.TempDir()
	for _, name := range SectionFiles {
		skipped := false
		for _, s := range skip {
			if s == name {
				skipped = true
			}
		}
		if skipped {
			continue
		}
		content := "section " + strings.TrimSuffix(name, ".md")
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func testRetrieved() model.Retrieved {
	return model.Retrieved{
		model.OrganLiver: {
			model.NewDocumentSegment(model.OrganLiver, "liver.md", "# Liver\nFatty liver: mild steatosis", nil, 0),
			model.NewDocumentSegment(model.OrganLiver, "liver.md", "## Cirrhosis\nNodular surface.", nil, 1),
		},
		model.OrganKidney: {},
	}
}

func TestLoadSections(t *testing.T) {
	t.Run("Loads all sections in order", func(t *testing.T) {
		sections := LoadSections(writeSections(t), nil)

		assert.Equal(t, []string{
			"section 1_introduction",
			"section 2_english_style_guide",
			"section 3_report_structure",
			"section 4_report_template_normal",
			"section 5_abnormal",
		}, sections.List())
	})

	t.Run("Missing file becomes a placeholder", func(t *testing.T) {
		sections := LoadSections(writeSections(t, EnglishStyleFile), nil)

		assert.Equal(t, MissingSectionText, sections.EnglishStyle)
		assert.Equal(t, "section 1_introduction", sections.Introduction)
		assert.Equal(t, "section 5_abnormal", sections.AbnormalTemplate)
	})

	t.Run("Unreadable file becomes an error text", func(t *testing.T) {
		dir := writeSections(t, NormalTemplateFile)
		require.NoError(t, os.Mkdir(filepath.Join(dir, NormalTemplateFile), 0o700))

		sections := LoadSections(dir, nil)

		assert.True(t, strings.HasPrefix(sections.NormalTemplate, "An error occurred: "), sections.NormalTemplate)
	})

	t.Run("Missing directory yields placeholders only", func(t *testing.T) {
		sections := LoadSections(filepath.Join(t.TempDir(), "prompt"), nil)
		for _, text := range sections.List() {
			assert.Equal(t, MissingSectionText, text)
		}
	})
}

func TestCompose(t *testing.T) {
	sections := Sections{
		Introduction:     "intro",
		EnglishStyle:     "style",
		ReportStructure:  "structure",
		NormalTemplate:   "normal",
		AbnormalTemplate: "abnormal",
	}

	t.Run("Renders sections, organ blocks and user input", func(t *testing.T) {
		template := Compose(sections, testRetrieved())

		expected := "intro\n\nstyle\n\nstructure\n\nnormal\n\nabnormal\n\n" +
			"liver:\n# Liver\nFatty liver: mild steatosis\n\n## Cirrhosis\nNodular surface.\n\n" +
			"kidney:\n\n\n" +
			"gallbladder:\n\n\n" +
			"User input: Liver slightly enlarged.\n\nOutput:"
		assert.Equal(t, expected, template.Render("Liver slightly enlarged."))
	})

	t.Run("Empty retrieval keeps all organ blocks", func(t *testing.T) {
		rendered := Compose(sections, model.Retrieved{}).Render("normal study")

		assert.Contains(t, rendered, "liver:\n\n\nkidney:\n\n\ngallbladder:\n\n\nUser input: normal study")
	})

	t.Run("Composition is pure", func(t *testing.T) {
		first := Compose(sections, testRetrieved()).Render("input")
		second := Compose(sections, testRetrieved()).Render("input")
		assert.Equal(t, first, second)
	})

	t.Run("User input is the only substitution", func(t *testing.T) {
		retrieved := model.Retrieved{
			model.OrganGallBladder: {model.NewDocumentSegment(model.OrganGallBladder, "gallbladder.md", "literal {user} braces", nil, 0)},
		}
		rendered := Compose(sections, retrieved).Render("{finding} text")

		assert.Contains(t, rendered, "gallbladder:\nliteral {user} braces")
		assert.Contains(t, rendered, "User input: {finding} text")
	})

	t.Run("String shows the user slot", func(t *testing.T) {
		template := Compose(sections, model.Retrieved{})
		assert.True(t, strings.HasSuffix(template.String(), "User input: {user}\n\nOutput:"))
		assert.False(t, template.IsZero())
		assert.True(t, Template{}.IsZero())
	})
}
