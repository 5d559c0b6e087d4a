package retrieval

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/siherrmann/usreport/core/pipeline"
	"github.com/siherrmann/usreport/database"
	"github.com/siherrmann/usreport/model"
)

// PGVectorIndexBuilder builds indexes stored in the postgres segments table.
// Every build writes under a fresh index RID, so rebuilds never share rows.
type PGVectorIndexBuilder struct {
	handler database.SegmentsDBHandlerFunctions
	embed   pipeline.EmbedFunc
}

// NewPGVectorIndexBuilder creates a builder storing segments through handler
func NewPGVectorIndexBuilder(handler database.SegmentsDBHandlerFunctions, embed pipeline.EmbedFunc) *PGVectorIndexBuilder {
	return &PGVectorIndexBuilder{
		handler: handler,
		embed:   embed,
	}
}

// Build embeds and inserts the segments of one organ
func (b *PGVectorIndexBuilder) Build(ctx context.Context, organ model.Organ, segments []*model.DocumentSegment) (Index, error) {
	if b.handler == nil {
		return nil, fmt.Errorf("segments handler not set")
	}
	if b.embed == nil {
		return nil, fmt.Errorf("embedder not set")
	}

	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Content
	}

	embeddings, err := b.embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %s segments: %w", organ, err)
	}
	if len(embeddings) != len(segments) {
		return nil, fmt.Errorf("embedding count mismatch: got %d embeddings for %d segments", len(embeddings), len(segments))
	}

	index := &pgvectorIndex{
		rid:     uuid.New(),
		organ:   organ,
		handler: b.handler,
		embed:   b.embed,
	}

	err = b.handler.InsertSegments(ctx, index.rid, segments, embeddings)
	if err != nil {
		return nil, fmt.Errorf("store %s segments: %w", organ, err)
	}

	return index, nil
}

type pgvectorIndex struct {
	rid     uuid.UUID
	organ   model.Organ
	handler database.SegmentsDBHandlerFunctions
	embed   pipeline.EmbedFunc
}

func (p *pgvectorIndex) Search(ctx context.Context, query string, k int) ([]*model.DocumentSegment, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	queryEmbedding, err := pipeline.EmbedOne(ctx, p.embed, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	return p.handler.SelectSegmentsBySimilarity(ctx, p.rid, queryEmbedding, k)
}

func (p *pgvectorIndex) Drop(ctx context.Context) error {
	_, err := p.handler.DeleteIndex(ctx, p.rid)
	return err
}
