package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(128, nil)
	ctx := context.Background()

	a, _ := e.Embed(ctx, "the capital of France is Paris")
	b, _ := e.Embed(ctx, "the capital of France is Paris")
	if len(a) != 128 {
		t.Fatalf("expected dimension 128, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding differs at %d", i)
		}
	}
	if n := cosine(a, a); math.Abs(n-1) > 1e-5 {
		t.Errorf("expected unit vector, self-similarity %f", n)
	}
}

func TestHashEmbedder_Similarity(t *testing.T) {
	e := NewHashEmbedder(256, nil)
	ctx := context.Background()

	q, _ := e.Embed(ctx, "vacation policy days")
	near, _ := e.Embed(ctx, "employees get twenty vacation days under the policy")
	far, _ := e.Embed(ctx, "the server rack needs new power supplies")

	if cosine(q, near) <= cosine(q, far) {
		t.Errorf("expected related text to be closer: near=%f far=%f", cosine(q, near), cosine(q, far))
	}
}

func TestHashEmbedder_EmptyTextIsZero(t *testing.T) {
	e := NewHashEmbedder(32, nil)
	v, err := e.Embed(context.Background(), "   ")
	if err != nil {
		t.Fatal(err)
	}
	for _, x := range v {
		if x != 0 {
			t.Fatal("expected all-zero vector for text without tokens")
		}
	}
}

func TestHashEmbedder_Batch(t *testing.T) {
	e := NewHashEmbedder(64, nil)
	texts := []string{"one document", "another document", "third"}
	vectors, err := e.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(vectors))
	}
	single, _ := e.Embed(context.Background(), texts[1])
	for i := range single {
		if single[i] != vectors[1][i] {
			t.Fatal("batch output not aligned with input order")
		}
	}
}

func embeddingServer(t *testing.T, reverse bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, len(req.Input))
		for i, text := range req.Input {
			data[i] = item{Object: "embedding", Embedding: []float32{float32(len(text)), 1, 0}, Index: i}
		}
		if reverse {
			for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
				data[i], data[j] = data[j], data[i]
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
		})
	}))
}

func TestOpenAIEmbedder_AlignsByIndex(t *testing.T) {
	srv := embeddingServer(t, true)
	defer srv.Close()

	e, err := NewOpenAIEmbedder(srv.URL+"/v1", "ORACLE_TEST_UNSET_KEY", "test-embed", 3, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}

	vectors, err := e.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vectors))
	}
	// longer inputs produce a larger first component after normalization
	for i := 1; i < len(vectors); i++ {
		if vectors[i][0] <= vectors[i-1][0] {
			t.Errorf("vector %d out of order: %v after %v", i, vectors[i], vectors[i-1])
		}
	}
	if n := cosine(vectors[0], vectors[0]); math.Abs(n-1) > 1e-5 {
		t.Errorf("expected normalized vectors")
	}
}

func TestOpenAIEmbedder_DimensionMismatch(t *testing.T) {
	srv := embeddingServer(t, false)
	defer srv.Close()

	e, err := NewOpenAIEmbedder(srv.URL+"/v1", "", "test-embed", 8, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Embed(context.Background(), "hello"); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestOpenAIEmbedder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"model not loaded"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	e, _ := NewOpenAIEmbedder(srv.URL+"/v1", "", "test-embed", 3, 0)
	if _, err := e.EmbedBatch(context.Background(), []string{"x"}); err == nil {
		t.Error("expected error from failing server")
	}
}
