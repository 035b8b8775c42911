package medical

import (
	"context"
	"errors"
	"testing"

	"github.com/ali-rahimi/medibot/tools/vectorstore"
)

type fakeSearcher struct {
	docs      []vectorstore.Document
	err       error
	topK      int
	threshold float64
}

func (f *fakeSearcher) Search(_ context.Context, _ string, topK int, threshold float64) ([]vectorstore.Document, error) {
	f.topK = topK
	f.threshold = threshold
	return f.docs, f.err
}

func TestRetrieverTranslatesFailures(t *testing.T) {
	r := NewRetriever(&fakeSearcher{err: errors.New("connection refused")})
	_, err := r.Search(context.Background(), "query")
	if !errors.Is(err, ErrRetrievalUnavailable) {
		t.Fatalf("expected ErrRetrievalUnavailable, got %v", err)
	}
}

func TestRetrieverAppliesDefaults(t *testing.T) {
	fs := &fakeSearcher{docs: []vectorstore.Document{
		{Text: "full metadata", Metadata: map[string]interface{}{"similarity_score": 0.91, "source": "Cardiology Atlas"}},
		{Text: "bare", Metadata: nil},
		{Text: "empty source", Metadata: map[string]interface{}{"source": ""}},
	}}
	r := NewRetriever(fs)

	docs, err := r.Search(context.Background(), "query")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if fs.topK != 5 || fs.threshold != 0.7 {
		t.Fatalf("search params = (%d, %v)", fs.topK, fs.threshold)
	}

	if docs[0].Similarity != 0.91 || docs[0].Source != "Cardiology Atlas" {
		t.Fatalf("doc[0] = %+v", docs[0])
	}
	if docs[1].Similarity != 0.5 {
		t.Fatalf("missing similarity must default to 0.5, got %v", docs[1].Similarity)
	}
	if docs[1].Source != "Medical Knowledge Base" {
		t.Fatalf("missing source must default, got %q", docs[1].Source)
	}
	if docs[2].Source != "Medical Knowledge Base" {
		t.Fatalf("empty source must default, got %q", docs[2].Source)
	}
}
