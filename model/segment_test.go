package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocumentSegment(t *testing.T) {
	t.Run("Equal content and headers give equal IDs", func(t *testing.T) {
		a := NewDocumentSegment(OrganLiver, "a.md", "# Liver\nFatty liver: mild steatosis", Metadata{"Header 1": "Liver"}, 0)
		b := NewDocumentSegment(OrganLiver, "b.md", "# Liver\nFatty liver: mild steatosis", Metadata{"Header 1": "Liver"}, 3)

		assert.Equal(t, a.ID, b.ID)
		assert.True(t, a.Equal(b), "Expected segments with same text and headers to be equal")
	})

	t.Run("Different headers are not equal", func(t *testing.T) {
		a := NewDocumentSegment(OrganLiver, "", "same text", Metadata{"Header 1": "Liver"}, 0)
		b := NewDocumentSegment(OrganLiver, "", "same text", Metadata{"Header 1": "Kidney"}, 0)

		assert.NotEqual(t, a.ID, b.ID)
		assert.False(t, a.Equal(b))
	})

	t.Run("Nil headers become empty metadata", func(t *testing.T) {
		s := NewDocumentSegment(OrganKidney, "", "text", nil, 0)
		require.NotNil(t, s.Headers)
		assert.True(t, s.Equal(NewDocumentSegment(OrganKidney, "", "text", Metadata{}, 1)))
	})

	t.Run("Nil comparison", func(t *testing.T) {
		var s *DocumentSegment
		assert.True(t, s.Equal(nil))
		assert.False(t, NewDocumentSegment(OrganLiver, "", "x", nil, 0).Equal(nil))
	})
}

func TestDocumentSegmentHeaderPath(t *testing.T) {
	s := NewDocumentSegment(OrganLiver, "", "text", Metadata{"Header 1": "Liver", "Header 2": "Parenchyma", "Header 3": "Fatty liver"}, 0)
	assert.Equal(t, "Liver/Parenchyma/Fatty liver", s.HeaderPath())
}

func TestDocumentSegmentWithSimilarity(t *testing.T) {
	s := NewDocumentSegment(OrganLiver, "", "text", nil, 0)
	scored := s.WithSimilarity(0.9)

	assert.Equal(t, 0.9, scored.Similarity)
	assert.Equal(t, 0.0, s.Similarity, "Expected original segment to be unchanged")
	assert.True(t, s.Equal(scored), "Expected similarity to not affect equality")
}

func TestKnowledgeBase(t *testing.T) {
	kb := KnowledgeBase{
		OrganGallBladder: {NewDocumentSegment(OrganGallBladder, "", "a", nil, 0)},
		OrganLiver:       {NewDocumentSegment(OrganLiver, "", "b", nil, 0), NewDocumentSegment(OrganLiver, "", "c", nil, 1)},
	}

	assert.Equal(t, []Organ{OrganLiver, OrganGallBladder}, kb.Organs())
	assert.Equal(t, 3, kb.SegmentCount())
}

func TestRetrievedSet(t *testing.T) {
	a := NewDocumentSegment(OrganLiver, "", "a", nil, 0)
	b := NewDocumentSegment(OrganLiver, "", "b", nil, 1)
	set := RetrievedSet{a, b}

	assert.Equal(t, []string{"a", "b"}, set.Texts())
	assert.True(t, set.Contains(NewDocumentSegment(OrganLiver, "", "a", nil, 7)))
	assert.False(t, set.Contains(NewDocumentSegment(OrganLiver, "", "c", nil, 0)))

	retrieved := Retrieved{OrganLiver: set}
	assert.Len(t, retrieved.ForOrgan(OrganLiver), 2)
	assert.NotNil(t, retrieved.ForOrgan(OrganKidney))
	assert.Empty(t, retrieved.ForOrgan(OrganKidney))
}
