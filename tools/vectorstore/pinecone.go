package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Embedder turns query text into a vector. The LLM provider satisfies it.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Pinecone queries a Pinecone-compatible index over its REST API. Each
// search embeds the query, posts it to /query and maps the matches into
// Documents with the score mirrored under "similarity_score".
type Pinecone struct {
	baseURL    string
	apiKey     string
	namespace  string
	embedder   Embedder
	httpClient *http.Client
}

func NewPinecone(baseURL, apiKey, namespace string, embedder Embedder, timeout time.Duration) *Pinecone {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Pinecone{
		baseURL:    baseURL,
		apiKey:     apiKey,
		namespace:  namespace,
		embedder:   embedder,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	Namespace       string    `json:"namespace,omitempty"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []struct {
		ID       string                 `json:"id"`
		Score    float64                `json:"score"`
		Metadata map[string]interface{} `json:"metadata"`
	} `json:"matches"`
}

func (p *Pinecone) Search(ctx context.Context, query string, topK int, threshold float64) ([]Document, error) {
	vecs, err := p.embedder.CreateEmbedding(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embed query: empty embedding response")
	}

	jsonData, err := json.Marshal(queryRequest{
		Vector:          vecs[0],
		TopK:            topK,
		Namespace:       p.namespace,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/query", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status: %d", resp.StatusCode)
	}

	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	docs := make([]Document, 0, len(qr.Matches))
	for _, m := range qr.Matches {
		if m.Score < threshold {
			continue
		}
		meta := m.Metadata
		if meta == nil {
			meta = map[string]interface{}{}
		}
		meta["similarity_score"] = m.Score
		text, _ := meta["text"].(string)
		docs = append(docs, Document{Text: text, Metadata: meta})
	}
	return docs, nil
}
