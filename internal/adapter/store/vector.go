package store

import (
	"math"
	"sort"

	"oracle/internal/domain"
	"oracle/internal/port"
)

// Candidate is a stored entry considered during a brute-force query.
type Candidate struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata domain.EntryMetadata
}

// Rank scores every candidate against query and returns the k closest,
// ascending by cosine distance with ties broken by ID.
func Rank(query []float32, candidates []Candidate, k int) []port.IndexHit {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}

	hits := make([]port.IndexHit, 0, len(candidates))
	for _, c := range candidates {
		hits = append(hits, port.IndexHit{
			ID:       c.ID,
			Text:     c.Text,
			Metadata: c.Metadata,
			Distance: CosineDistance(query, c.Vector),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k]
}

// CosineDistance returns 1 - cosine similarity. Zero vectors are at distance 1.
func CosineDistance(a, b []float32) float64 {
	return 1 - cosineSimilarity(a, b)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
