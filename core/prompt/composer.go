package prompt

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/siherrmann/usreport/model"
)

// Section file names in prompt order
const (
	IntroductionFile     = "1_introduction.md"
	EnglishStyleFile     = "2_english_style_guide.md"
	ReportStructureFile  = "3_report_structure.md"
	NormalTemplateFile   = "4_report_template_normal.md"
	AbnormalTemplateFile = "5_abnormal.md"
)

// SectionFiles lists the section files in the order they appear in the prompt
var SectionFiles = []string{
	IntroductionFile,
	EnglishStyleFile,
	ReportStructureFile,
	NormalTemplateFile,
	AbnormalTemplateFile,
}

// Placeholders used for sections that could not be read
const (
	MissingSectionText = "The file could not be found."
	sectionErrorFormat = "An error occurred: %v"
)

// UserPlaceholder marks where the user input goes in Template.String
const UserPlaceholder = "{user}"

const (
	sectionSeparator = "\n\n"
	userPrefix       = "User input: "
	outputSuffix     = "\n\nOutput:"
)

// Sections holds the five instruction sections in prompt order
type Sections struct {
	Introduction     string
	EnglishStyle     string
	ReportStructure  string
	NormalTemplate   string
	AbnormalTemplate string
}

// List returns the sections in prompt order
func (s Sections) List() []string {
	return []string{
		s.Introduction,
		s.EnglishStyle,
		s.ReportStructure,
		s.NormalTemplate,
		s.AbnormalTemplate,
	}
}

// LoadSections reads the section files from dir.
// A missing or unreadable file yields a placeholder text instead of an error.
func LoadSections(dir string, logger *slog.Logger) Sections {
	if logger == nil {
		logger = slog.Default()
	}

	texts := make([]string, len(SectionFiles))
	for i, name := range SectionFiles {
		texts[i] = readSection(filepath.Join(dir, name), logger)
	}

	return Sections{
		Introduction:     texts[0],
		EnglishStyle:     texts[1],
		ReportStructure:  texts[2],
		NormalTemplate:   texts[3],
		AbnormalTemplate: texts[4],
	}
}

func readSection(path string, logger *slog.Logger) string {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		return string(data)
	case errors.Is(err, fs.ErrNotExist):
		logger.Warn("Prompt section not found", slog.String("path", path))
		return MissingSectionText
	default:
		logger.Warn("Prompt section unreadable", slog.String("path", path), slog.String("error", err.Error()))
		return fmt.Sprintf(sectionErrorFormat, err)
	}
}

// Template is a composed prompt with exactly one open slot for the user input.
// Retrieved text is never scanned for placeholders.
type Template struct {
	prefix string
	suffix string
}

// Compose assembles the instruction sections, the retrieved text of every organ
// and the user input slot. Every organ gets a block, empty or not.
func Compose(sections Sections, retrieved model.Retrieved) Template {
	parts := append(sections.List(), AbnormalBlock(retrieved))

	var b strings.Builder
	b.WriteString(strings.Join(parts, sectionSeparator))
	b.WriteString(sectionSeparator)
	b.WriteString(userPrefix)

	return Template{
		prefix: b.String(),
		suffix: outputSuffix,
	}
}

// AbnormalBlock renders the retrieved segments per organ, e.g. "liver:\n<text>\n\nkidney:\n..."
func AbnormalBlock(retrieved model.Retrieved) string {
	blocks := make([]string, 0, len(model.Organs()))
	for _, organ := range model.Organs() {
		blocks = append(blocks, string(organ)+":\n"+FormatSegments(retrieved.ForOrgan(organ)))
	}
	return strings.Join(blocks, sectionSeparator)
}

// FormatSegments joins the segment texts with blank lines
func FormatSegments(set model.RetrievedSet) string {
	return strings.Join(set.Texts(), sectionSeparator)
}

// Render returns the final prompt for the user input
func (t Template) Render(userInput string) string {
	return t.prefix + userInput + t.suffix
}

// String returns the template with the user slot shown as {user}
func (t Template) String() string {
	return t.Render(UserPlaceholder)
}

// IsZero reports whether the template was never composed
func (t Template) IsZero() bool {
	return t.prefix == "" && t.suffix == ""
}
