package model

import (
	"os"
	"path/filepath"
)

// Document is a reference file read from the corpus directory
type Document struct {
	Title   string `json:"title"`
	Source  string `json:"source,omitempty"`
	Content string `json:"content,omitempty"`
}

// NewDocumentFromFile reads a file and creates a Document with the file content.
// The title is the file stem, the source the file path.
func NewDocumentFromFile(filePath string) (*Document, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(filePath)
	title := filename[:len(filename)-len(filepath.Ext(filename))]
	if title == "" {
		title = filename
	}

	return &Document{
		Title:   title,
		Source:  filePath,
		Content: string(content),
	}, nil
}
