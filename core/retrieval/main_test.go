package retrieval

import (
	"context"
	"strings"
	"sync"

	"github.com/siherrmann/usreport/model"
)

var vocabulary = []string{"fatty", "cirrhosis", "cyst", "stone", "polyp", "hydronephrosis", "echogenic", "wall"}

// keywordEmbed embeds a text as keyword counts over a fixed vocabulary
func keywordEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		vector := make([]float32, len(vocabulary)+1)
		lower := strings.ToLower(text)
		for j, word := range vocabulary {
			vector[j] = float32(strings.Count(lower, word))
		}
		// Keeps empty texts away from the zero vector
		vector[len(vocabulary)] = 0.01
		embeddings[i] = vector
	}
	return embeddings, nil
}

func testKnowledgeBase() model.KnowledgeBase {
	return model.KnowledgeBase{
		model.OrganLiver: {
			model.NewDocumentSegment(model.OrganLiver, "liver.md", "# Liver\n## Fatty liver\nDiffuse fatty infiltration, echogenic parenchyma.", model.Metadata{"Header 1": "Liver", "Header 2": "Fatty liver"}, 0),
			model.NewDocumentSegment(model.OrganLiver, "liver.md", "## Cirrhosis\nCirrhosis with nodular surface.", model.Metadata{"Header 1": "Liver", "Header 2": "Cirrhosis"}, 1),
			model.NewDocumentSegment(model.OrganLiver, "liver.md", "## Cyst\nSimple cyst, anechoic.", model.Metadata{"Header 1": "Liver", "Header 2": "Cyst"}, 2),
			model.NewDocumentSegment(model.OrganLiver, "liver.md", "## Fatty sparing\nFocal fatty sparing near the gallbladder fossa.", model.Metadata{"Header 1": "Liver", "Header 2": "Fatty sparing"}, 3),
		},
		model.OrganKidney: {
			model.NewDocumentSegment(model.OrganKidney, "kidney.md", "# Kidney\n## Stone\nEchogenic stone with shadowing.", model.Metadata{"Header 1": "Kidney", "Header 2": "Stone"}, 0),
			model.NewDocumentSegment(model.OrganKidney, "kidney.md", "## Hydronephrosis\nDilated collecting system, hydronephrosis.", model.Metadata{"Header 1": "Kidney", "Header 2": "Hydronephrosis"}, 1),
		},
		model.OrganGallBladder: {
			model.NewDocumentSegment(model.OrganGallBladder, "gallbladder.md", "# GallBladder\n## Stone\nMobile stone, posterior shadowing.", model.Metadata{"Header 1": "GallBladder", "Header 2": "Stone"}, 0),
			model.NewDocumentSegment(model.OrganGallBladder, "gallbladder.md", "## Polyp\nNon mobile polyp of the wall.", model.Metadata{"Header 1": "GallBladder", "Header 2": "Polyp"}, 1),
		},
	}
}

// recordingRetriever wraps a retriever and records every query
type recordingRetriever struct {
	mu      sync.Mutex
	queries []string
	next    Retriever
}

func (r *recordingRetriever) retrieve(ctx context.Context, query string) ([]*model.DocumentSegment, error) {
	r.mu.Lock()
	r.queries = append(r.queries, query)
	r.mu.Unlock()
	if r.next == nil {
		return nil, nil
	}
	return r.next(ctx, query)
}

func (r *recordingRetriever) Queries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}
