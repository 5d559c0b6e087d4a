package retrieval

import (
	"context"
	"fmt"
	"sync"

	"github.com/siherrmann/usreport/helper"
	"github.com/siherrmann/usreport/model"
	"golang.org/x/sync/errgroup"
)

// QueryPolicy turns a finding description into the query text sent to a retriever
type QueryPolicy func(finding string) string

// QueryPolicyFromConfig renders queries with the configured template
func QueryPolicyFromConfig(config model.RetrieverConfig) QueryPolicy {
	return config.Query
}

// Resolver runs the findings of every organ against that organ's retriever
type Resolver struct {
	query QueryPolicy
}

// NewResolver creates a resolver. A nil policy sends the finding text as is.
func NewResolver(query QueryPolicy) *Resolver {
	if query == nil {
		query = func(finding string) string { return finding }
	}
	return &Resolver{query: query}
}

// Resolve issues one query per non-empty finding, concatenates the results of an organ
// in finding order and removes repeated segments keeping the first occurrence.
// Organs without findings get an empty set and issue no query.
func (r *Resolver) Resolve(ctx context.Context, retrievers map[model.Organ]Retriever, findings *model.FindingsSet) (model.Retrieved, error) {
	retrieved := model.Retrieved{}
	for _, organ := range model.Organs() {
		retrieved[organ] = model.RetrievedSet{}
	}
	if findings == nil {
		return retrieved, nil
	}

	// Fail before any query when an organ with findings has no retriever
	for _, organ := range model.Organs() {
		if len(findings.Queries(organ)) == 0 {
			continue
		}
		if retriever, ok := retrievers[organ]; !ok || retriever == nil {
			return nil, helper.NewKindError(model.ErrRetrieval, "resolve", fmt.Errorf("no retriever for organ %s", organ))
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, organ := range model.Organs() {
		queries := findings.Queries(organ)
		if len(queries) == 0 {
			continue
		}
		retriever := retrievers[organ]

		g.Go(func() error {
			set, err := r.resolveOrgan(gctx, organ, retriever, queries)
			if err != nil {
				return err
			}
			mu.Lock()
			retrieved[organ] = set
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return retrieved, nil
}

func (r *Resolver) resolveOrgan(ctx context.Context, organ model.Organ, retriever Retriever, queries []string) (model.RetrievedSet, error) {
	var all []*model.DocumentSegment
	for _, finding := range queries {
		segments, err := retriever(ctx, r.query(finding))
		if err != nil {
			return nil, helper.NewKindError(model.ErrRetrieval, fmt.Sprintf("query %s retriever", organ), err)
		}
		all = append(all, segments...)
	}
	return RemoveDuplicates(all), nil
}

// RemoveDuplicates keeps the first occurrence of every segment, preserving order
func RemoveDuplicates(segments []*model.DocumentSegment) model.RetrievedSet {
	seen := make(map[string]struct{}, len(segments))
	unique := model.RetrievedSet{}
	for _, s := range segments {
		if s == nil {
			continue
		}
		key := s.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, s)
	}
	return unique
}
