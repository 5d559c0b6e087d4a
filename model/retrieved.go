package model

// RetrievedSet is the deduplicated union of segments retrieved for one organ,
// in order of first occurrence.
type RetrievedSet []*DocumentSegment

// Texts returns the segment contents in order
func (r RetrievedSet) Texts() []string {
	texts := make([]string, 0, len(r))
	for _, s := range r {
		texts = append(texts, s.Content)
	}
	return texts
}

// Contains reports whether an equal segment is already in the set
func (r RetrievedSet) Contains(segment *DocumentSegment) bool {
	for _, s := range r {
		if s.Equal(segment) {
			return true
		}
	}
	return false
}

// Retrieved holds the retrieved set of every organ
type Retrieved map[Organ]RetrievedSet

// ForOrgan returns the organ's set, empty if absent
func (r Retrieved) ForOrgan(organ Organ) RetrievedSet {
	if set, ok := r[organ]; ok {
		return set
	}
	return RetrievedSet{}
}
