package pipeline

import (
	"fmt"
	"strings"

	"github.com/siherrmann/usreport/model"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type heading struct {
	level int
	title string
	start int // byte offset of the heading line
}

// MarkdownHeaderSplitter creates a splitter that cuts markdown at headings up to maxLevel.
// Heading lines stay part of the section text. Each section carries the chain of
// enclosing headings as "Header 1".."Header N" metadata. A heading directly followed
// by a deeper heading is merged into that deeper section.
func MarkdownHeaderSplitter(maxLevel int) SplitFunc {
	parser := goldmark.New().Parser()

	return func(source string) ([]SectionWithHeaders, error) {
		if maxLevel <= 0 || maxLevel > len(model.HeaderKeys) {
			return nil, fmt.Errorf("max heading level must be between 1 and %d", len(model.HeaderKeys))
		}

		if strings.TrimSpace(source) == "" {
			return []SectionWithHeaders{}, nil
		}

		src := []byte(source)
		doc := parser.Parse(text.NewReader(src))

		var headings []heading
		for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
			h, ok := n.(*ast.Heading)
			if !ok || h.Level > maxLevel {
				continue
			}
			start, title, ok := headingPosition(h, src)
			if !ok {
				continue
			}
			headings = append(headings, heading{level: h.Level, title: title, start: start})
		}

		var sections []SectionWithHeaders

		// Text before the first heading
		firstStart := len(src)
		if len(headings) > 0 {
			firstStart = headings[0].start
		}
		if preamble := strings.TrimSpace(string(src[:firstStart])); preamble != "" {
			sections = append(sections, SectionWithHeaders{Content: preamble, Headers: model.Metadata{}})
		}

		var stack []heading
		pending := ""
		for i, h := range headings {
			end := len(src)
			if i+1 < len(headings) {
				end = headings[i+1].start
			}

			// Drop headings of the same or deeper level
			for len(stack) > 0 && stack[len(stack)-1].level >= h.level {
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, h)

			content := strings.TrimSpace(string(src[h.start:end]))
			if pending != "" {
				content = pending + "\n" + content
				pending = ""
			}

			headingOnly := !strings.Contains(strings.TrimSpace(string(src[h.start:end])), "\n")
			if headingOnly && i+1 < len(headings) && headings[i+1].level > h.level {
				pending = content
				continue
			}

			sections = append(sections, SectionWithHeaders{
				Content: content,
				Headers: headerMetadata(stack),
			})
		}

		return sections, nil
	}
}

// DefaultSplitter splits on heading levels 1 to 3
func DefaultSplitter() SplitFunc {
	return MarkdownHeaderSplitter(3)
}

// headingPosition returns the start of the heading line and the heading title
func headingPosition(h *ast.Heading, src []byte) (int, string, bool) {
	lines := h.Lines()
	if lines.Len() == 0 {
		return 0, "", false
	}

	var title strings.Builder
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		title.Write(segment.Value(src))
	}

	start := lines.At(0).Start
	for start > 0 && src[start-1] != '\n' {
		start--
	}

	return start, strings.TrimSpace(title.String()), true
}

func headerMetadata(stack []heading) model.Metadata {
	headers := model.Metadata{}
	for _, h := range stack {
		headers[model.HeaderKeys[h.level-1]] = h.title
	}
	return headers
}
