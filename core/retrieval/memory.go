package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/siherrmann/usreport/core/pipeline"
	"github.com/siherrmann/usreport/model"
)

// MemoryIndexBuilder builds in-process brute force cosine indexes
type MemoryIndexBuilder struct {
	embed pipeline.EmbedFunc
}

// NewMemoryIndexBuilder creates a builder embedding with embed
func NewMemoryIndexBuilder(embed pipeline.EmbedFunc) *MemoryIndexBuilder {
	return &MemoryIndexBuilder{embed: embed}
}

// Build embeds all segments in one batch
func (b *MemoryIndexBuilder) Build(ctx context.Context, organ model.Organ, segments []*model.DocumentSegment) (Index, error) {
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

	return &memoryIndex{
		organ:      organ,
		embed:      b.embed,
		segments:   segments,
		embeddings: embeddings,
	}, nil
}

type memoryIndex struct {
	organ      model.Organ
	embed      pipeline.EmbedFunc
	segments   []*model.DocumentSegment
	embeddings [][]float32
}

func (m *memoryIndex) Search(ctx context.Context, query string, k int) ([]*model.DocumentSegment, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	queryEmbedding, err := pipeline.EmbedOne(ctx, m.embed, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	type scored struct {
		index      int
		similarity float32
	}
	scores := make([]scored, len(m.segments))
	for i := range m.segments {
		scores[i] = scored{index: i, similarity: cosineSimilarity(queryEmbedding, m.embeddings[i])}
	}

	// Stable keeps corpus order between equal scores
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].similarity > scores[j].similarity
	})

	if k > len(scores) {
		k = len(scores)
	}
	results := make([]*model.DocumentSegment, 0, k)
	for _, s := range scores[:k] {
		results = append(results, m.segments[s.index].WithSimilarity(float64(s.similarity)))
	}
	return results, nil
}

func (m *memoryIndex) Drop(ctx context.Context) error {
	m.segments = nil
	m.embeddings = nil
	return nil
}

// cosineSimilarity calculates the cosine similarity between two embedding vectors
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float32
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
