package pipeline

import "fmt"

func errMissing(name string) error {
	return fmt.Errorf("%s not set", name)
}

func errEmbeddingCount(want, got int) error {
	return fmt.Errorf("embedding count mismatch: got %d embeddings for %d texts", got, want)
}
