package model

import "errors"

// Error kinds of the report pipeline. Every stage failure carries exactly one of them.
var (
	ErrCorpusLoad = errors.New("corpus load error")
	ErrExtraction = errors.New("extraction error")
	ErrRetrieval  = errors.New("retrieval error")
	ErrGeneration = errors.New("generation error")
)
