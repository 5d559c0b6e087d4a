package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/siherrmann/usreport/helper"
	"github.com/siherrmann/usreport/model"
	"golang.org/x/sync/errgroup"
)

// Retrievers holds one built index per organ with k bound from the configuration
type Retrievers struct {
	config  model.RetrieverConfig
	indexes map[model.Organ]Index
}

// BuildRetrievers builds one index per organ of the knowledge base.
// Organs are built concurrently; the first failure cancels the rest.
func BuildRetrievers(ctx context.Context, kb model.KnowledgeBase, builder IndexBuilder, config model.RetrieverConfig) (*Retrievers, error) {
	if err := config.Validate(); err != nil {
		return nil, helper.NewKindError(model.ErrRetrieval, "validate retriever config", err)
	}
	if builder == nil {
		return nil, helper.NewKindError(model.ErrRetrieval, "build retrievers", fmt.Errorf("index builder not set"))
	}

	r := &Retrievers{
		config:  config,
		indexes: map[model.Organ]Index{},
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, organ := range kb.Organs() {
		segments := kb[organ]
		g.Go(func() error {
			index, err := builder.Build(gctx, organ, segments)
			if err != nil {
				return helper.NewKindError(model.ErrRetrieval, fmt.Sprintf("build %s index", organ), err)
			}
			mu.Lock()
			r.indexes[organ] = index
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Release what was built before the failure
		_ = r.Drop(context.WithoutCancel(ctx))
		return nil, err
	}

	return r, nil
}

// Organs returns the organs with an index, in report order
func (r *Retrievers) Organs() []model.Organ {
	var organs []model.Organ
	for _, organ := range model.Organs() {
		if _, ok := r.indexes[organ]; ok {
			organs = append(organs, organ)
		}
	}
	return organs
}

// Retriever returns the retriever of an organ
func (r *Retrievers) Retriever(organ model.Organ) (Retriever, bool) {
	index, ok := r.indexes[organ]
	if !ok {
		return nil, false
	}
	k := r.config.K
	return func(ctx context.Context, query string) ([]*model.DocumentSegment, error) {
		return index.Search(ctx, query, k)
	}, true
}

// Map returns a retriever per organ
func (r *Retrievers) Map() map[model.Organ]Retriever {
	if r == nil {
		return map[model.Organ]Retriever{}
	}
	retrievers := make(map[model.Organ]Retriever, len(r.indexes))
	for organ := range r.indexes {
		retriever, _ := r.Retriever(organ)
		retrievers[organ] = retriever
	}
	return retrievers
}

// Config returns the configuration the retrievers were built with
func (r *Retrievers) Config() model.RetrieverConfig {
	return r.config
}

// Drop releases every index
func (r *Retrievers) Drop(ctx context.Context) error {
	if r == nil {
		return nil
	}
	var errs []error
	for organ, index := range r.indexes {
		if err := index.Drop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drop %s index: %w", organ, err))
		}
	}
	r.indexes = map[model.Organ]Index{}
	return errors.Join(errs...)
}
