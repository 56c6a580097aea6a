package port

import "oracle/internal/domain"

type Chunker interface {
	Chunk(text string, meta domain.ChunkMetadata) []domain.Chunk
}
