package model

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// segmentNamespace is the namespace for content derived segment IDs
var segmentNamespace = uuid.MustParse("5b7f0f5e-3c64-4a43-9a8c-2f1e0c6a9d11")

// HeaderKeys are the metadata keys for heading levels 1 to 3
var HeaderKeys = []string{"Header 1", "Header 2", "Header 3"}

// DocumentSegment is a heading delimited span of a reference markdown file.
// Segments are immutable once created.
type DocumentSegment struct {
	ID      uuid.UUID `json:"id"`
	Organ   Organ     `json:"organ"`
	Source  string    `json:"source,omitempty"`
	Content string    `json:"content"`
	Headers Metadata  `json:"headers,omitempty"`
	Index   int       `json:"index"`
	// Results
	Similarity float64 `json:"similarity,omitempty"`
}

// NewDocumentSegment creates a segment whose ID is derived from its content and headers,
// so equal segments share the same ID.
func NewDocumentSegment(organ Organ, source string, content string, headers Metadata, index int) *DocumentSegment {
	if headers == nil {
		headers = Metadata{}
	}
	return &DocumentSegment{
		ID:      uuid.NewSHA1(segmentNamespace, []byte(segmentKey(content, headers))),
		Organ:   organ,
		Source:  source,
		Content: content,
		Headers: headers,
		Index:   index,
	}
}

// Equal reports whether two segments have identical text and heading metadata
func (s *DocumentSegment) Equal(other *DocumentSegment) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.Key() == other.Key()
}

// Key is the identity used for deduplication
func (s *DocumentSegment) Key() string {
	return segmentKey(s.Content, s.Headers)
}

// HeaderPath returns the heading chain, e.g. "Liver/Fatty liver"
func (s *DocumentSegment) HeaderPath() string {
	var parts []string
	for _, key := range HeaderKeys {
		if v, ok := s.Headers[key]; ok {
			if str, ok := v.(string); ok && str != "" {
				parts = append(parts, str)
			}
		}
	}
	return strings.Join(parts, "/")
}

// WithSimilarity returns a copy carrying a similarity score
func (s *DocumentSegment) WithSimilarity(similarity float64) *DocumentSegment {
	c := *s
	c.Similarity = similarity
	return &c
}

func segmentKey(content string, headers Metadata) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('\x1f')
		b.WriteString(toString(headers[k]))
		b.WriteByte('\x1e')
	}
	b.WriteByte('\x1d')
	b.WriteString(content)
	return b.String()
}

// KnowledgeBase maps each organ to its ordered segments. Read-only after loading.
type KnowledgeBase map[Organ][]*DocumentSegment

// Organs returns the organs present, in report order
func (kb KnowledgeBase) Organs() []Organ {
	var organs []Organ
	for _, organ := range Organs() {
		if _, ok := kb[organ]; ok {
			organs = append(organs, organ)
		}
	}
	return organs
}

// SegmentCount returns the total number of segments
func (kb KnowledgeBase) SegmentCount() int {
	n := 0
	for _, segments := range kb {
		n += len(segments)
	}
	return n
}
