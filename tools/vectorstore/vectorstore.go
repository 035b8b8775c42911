package vectorstore

import "context"

// Document is one passage returned by similarity search. Metadata carries
// whatever the index stored alongside the vector; well-known keys are
// "similarity_score" and "source".
type Document struct {
	Text     string
	Metadata map[string]interface{}
}

// Searcher is the similarity-search contract the chat pipeline consumes.
// topK bounds the number of hits; threshold drops everything scored below it.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, threshold float64) ([]Document, error)
}
