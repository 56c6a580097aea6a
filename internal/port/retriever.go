package port

import (
	"context"

	"oracle/internal/domain"
)

// Retriever finds the passages most relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) ([]domain.RetrievalResult, error)
}
