package retrieval

import (
	"context"

	"github.com/siherrmann/usreport/model"
)

// Index is a similarity search structure over the segments of one organ
type Index interface {
	// Search returns the k segments most similar to query, most similar first
	Search(ctx context.Context, query string, k int) ([]*model.DocumentSegment, error)
	// Drop releases the index state
	Drop(ctx context.Context) error
}

// IndexBuilder builds a fresh index over the segments of one organ.
// Segments are embedded once at build time.
type IndexBuilder interface {
	Build(ctx context.Context, organ model.Organ, segments []*model.DocumentSegment) (Index, error)
}

// Retriever queries one organ's index
type Retriever func(ctx context.Context, query string) ([]*model.DocumentSegment, error)
