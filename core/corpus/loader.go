package corpus

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/siherrmann/usreport/core/pipeline"
	"github.com/siherrmann/usreport/helper"
	"github.com/siherrmann/usreport/model"
)

// Loader reads a directory of markdown reference files into a knowledge base
type Loader struct {
	Dir      string
	Splitter pipeline.SplitFunc
	// Strict rejects markdown files whose stem is not an organ key
	Strict bool
	log    *slog.Logger
}

// NewLoader creates a loader for dir
func NewLoader(dir string, splitter pipeline.SplitFunc, strict bool, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		Dir:      dir,
		Splitter: splitter,
		Strict:   strict,
		log:      logger,
	}
}

// Load finds all *.md files below Dir, splits each one and keys the segments by file stem
func (l *Loader) Load() (model.KnowledgeBase, error) {
	if l.Splitter == nil {
		return nil, helper.NewKindError(model.ErrCorpusLoad, "load corpus", fmt.Errorf("splitter not set"))
	}

	files, err := FindMarkdownFiles(l.Dir)
	if err != nil {
		return nil, err
	}

	kb := model.KnowledgeBase{}
	for _, file := range files {
		doc, err := model.NewDocumentFromFile(file)
		if err != nil {
			return nil, helper.NewKindError(model.ErrCorpusLoad, fmt.Sprintf("read %s", file), err)
		}

		organ, err := model.ParseOrgan(doc.Title)
		if err != nil {
			if l.Strict {
				return nil, helper.NewKindError(model.ErrCorpusLoad, fmt.Sprintf("file %s", file), err)
			}
			l.log.Warn("Skipping reference file with unknown organ key", slog.String("path", file), slog.String("key", doc.Title))
			continue
		}
		if _, exists := kb[organ]; exists {
			return nil, helper.NewKindError(model.ErrCorpusLoad, fmt.Sprintf("file %s", file), fmt.Errorf("duplicate reference file for organ %q", organ))
		}

		sections, err := l.Splitter(doc.Content)
		if err != nil {
			return nil, helper.NewKindError(model.ErrCorpusLoad, fmt.Sprintf("split %s", file), err)
		}

		segments := make([]*model.DocumentSegment, 0, len(sections))
		for i, section := range sections {
			segments = append(segments, model.NewDocumentSegment(organ, doc.Source, section.Content, section.Headers, i))
		}
		kb[organ] = segments

		l.log.Info("Loaded reference file", slog.String("organ", string(organ)), slog.String("path", file), slog.Int("segments", len(segments)))
	}

	return kb, nil
}

// FindMarkdownFiles returns the sorted paths of all *.md files below dir.
// A missing or unreadable directory is a corpus load error naming the path.
func FindMarkdownFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, helper.NewKindError(model.ErrCorpusLoad, fmt.Sprintf("stat %s", dir), err)
	}
	if !info.IsDir() {
		return nil, helper.NewKindError(model.ErrCorpusLoad, fmt.Sprintf("stat %s", dir), fmt.Errorf("not a directory"))
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".md") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, helper.NewKindError(model.ErrCorpusLoad, fmt.Sprintf("walk %s", dir), err)
	}

	sort.Strings(files)
	return files, nil
}

// ValidateOrgans checks that every required organ has at least one segment
func ValidateOrgans(kb model.KnowledgeBase, required []model.Organ) error {
	var missing []string
	for _, organ := range required {
		if len(kb[organ]) == 0 {
			missing = append(missing, string(organ))
		}
	}
	if len(missing) > 0 {
		return helper.NewKindError(model.ErrCorpusLoad, "validate organs", fmt.Errorf("no reference segments for %s (expected files %s)", strings.Join(missing, ", "), expectedFiles(missing)))
	}
	return nil
}

func expectedFiles(keys []string) string {
	files := make([]string, len(keys))
	for i, key := range keys {
		files[i] = key + ".md"
	}
	return strings.Join(files, ", ")
}

// LoadKnowledgeBase loads dir in strict mode with the default logger
func LoadKnowledgeBase(dir string, splitter pipeline.SplitFunc) (model.KnowledgeBase, error) {
	return NewLoader(dir, splitter, true, nil).Load()
}
