package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/siherrmann/usreport/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingBuilder fails for one organ and records drops of the others
type failingBuilder struct {
	failOrgan model.Organ
	dropped   atomic.Int32
}

func (b *failingBuilder) Build(ctx context.Context, organ model.Organ, segments []*model.DocumentSegment) (Index, error) {
	if organ == b.failOrgan {
		return nil, fmt.Errorf("index backend unavailable")
	}
	return &droppingIndex{dropped: &b.dropped}, nil
}

type droppingIndex struct {
	dropped *atomic.Int32
}

func (d *droppingIndex) Search(ctx context.Context, query string, k int) ([]*model.DocumentSegment, error) {
	return nil, nil
}

func (d *droppingIndex) Drop(ctx context.Context) error {
	d.dropped.Add(1)
	return nil
}

func TestBuildRetrievers(t *testing.T) {
	ctx := context.Background()
	kb := testKnowledgeBase()

	t.Run("One retriever per organ", func(t *testing.T) {
		retrievers, err := BuildRetrievers(ctx, kb, NewMemoryIndexBuilder(keywordEmbed), model.DefaultRetrieverConfig())
		require.NoError(t, err, "Expected BuildRetrievers to not return an error")

		assert.Equal(t, model.Organs(), retrievers.Organs())
		assert.Len(t, retrievers.Map(), 3)
		assert.Equal(t, 3, retrievers.Config().K)
	})

	t.Run("Retriever returns k segments", func(t *testing.T) {
		config := model.DefaultRetrieverConfig()
		config.K = 2
		retrievers, err := BuildRetrievers(ctx, kb, NewMemoryIndexBuilder(keywordEmbed), config)
		require.NoError(t, err)

		retriever, ok := retrievers.Retriever(model.OrganLiver)
		require.True(t, ok)
		results, err := retriever(ctx, "fatty")
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("Missing organ has no retriever", func(t *testing.T) {
		partial := model.KnowledgeBase{model.OrganLiver: kb[model.OrganLiver]}
		retrievers, err := BuildRetrievers(ctx, partial, NewMemoryIndexBuilder(keywordEmbed), model.DefaultRetrieverConfig())
		require.NoError(t, err)

		_, ok := retrievers.Retriever(model.OrganKidney)
		assert.False(t, ok)
	})

	t.Run("Unsupported search type", func(t *testing.T) {
		config := model.DefaultRetrieverConfig()
		config.SearchType = "mmr"
		_, err := BuildRetrievers(ctx, kb, NewMemoryIndexBuilder(keywordEmbed), config)
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrRetrieval), "Expected retrieval error kind")
		assert.Contains(t, err.Error(), "unsupported search type")
	})

	t.Run("Nil builder", func(t *testing.T) {
		_, err := BuildRetrievers(ctx, kb, nil, model.DefaultRetrieverConfig())
		assert.ErrorIs(t, err, model.ErrRetrieval)
	})

	t.Run("Build failure releases built indexes", func(t *testing.T) {
		builder := &failingBuilder{failOrgan: model.OrganKidney}
		_, err := BuildRetrievers(ctx, kb, builder, model.DefaultRetrieverConfig())
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrRetrieval)
		assert.Contains(t, err.Error(), "index backend unavailable")
		assert.LessOrEqual(t, builder.dropped.Load(), int32(2))
	})

	t.Run("Drop releases every index", func(t *testing.T) {
		builder := &failingBuilder{}
		retrievers, err := BuildRetrievers(ctx, kb, builder, model.DefaultRetrieverConfig())
		require.NoError(t, err)

		require.NoError(t, retrievers.Drop(ctx))
		assert.Equal(t, int32(3), builder.dropped.Load())
		assert.Empty(t, retrievers.Map())
	})
}
