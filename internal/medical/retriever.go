package medical

import (
	"context"
	"fmt"

	"github.com/ali-rahimi/medibot/tools/vectorstore"
)

// Retrieval parameters tuned for medical accuracy: a handful of passages,
// admitted only above a high similarity bar.
const (
	retrievalTopK      = 5
	retrievalThreshold = 0.7
)

// DefaultSource labels retrieved passages whose metadata carries no source.
const DefaultSource = "Medical Knowledge Base"

// RetrievedDocument is a transient text snippet returned by similarity
// search, consumed within one orchestration pass and never persisted.
type RetrievedDocument struct {
	Text       string
	Similarity float64
	Source     string
}

// Retriever wraps the external similarity-search collaborator and
// translates its failures into ErrRetrievalUnavailable. It never swallows a
// collaborator error and never hands one through verbatim; the orchestrator
// decides the fallback policy.
type Retriever struct {
	searcher vectorstore.Searcher
}

func NewRetriever(searcher vectorstore.Searcher) *Retriever {
	return &Retriever{searcher: searcher}
}

func (r *Retriever) Search(ctx context.Context, query string) ([]RetrievedDocument, error) {
	raw, err := r.searcher.Search(ctx, query, retrievalTopK, retrievalThreshold)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalUnavailable, err)
	}
	docs := make([]RetrievedDocument, 0, len(raw))
	for _, d := range raw {
		docs = append(docs, RetrievedDocument{
			Text:       d.Text,
			Similarity: similarityOf(d),
			Source:     sourceOf(d),
		})
	}
	return docs, nil
}

func similarityOf(d vectorstore.Document) float64 {
	if v, ok := d.Metadata["similarity_score"]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case float32:
			return float64(n)
		case int:
			return float64(n)
		}
	}
	return defaultSimilarity
}

func sourceOf(d vectorstore.Document) string {
	if v, ok := d.Metadata["source"]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return DefaultSource
}
