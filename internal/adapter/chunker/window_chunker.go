package chunker

import (
	"errors"
	"fmt"
	"strings"

	"oracle/internal/domain"
)

// ErrInvalidChunkConfig is returned for size/overlap pairs that cannot make progress.
var ErrInvalidChunkConfig = errors.New("invalid chunk configuration")

// WindowChunker splits whitespace-normalized text into fixed-size character
// windows that end on a word boundary when possible.
type WindowChunker struct {
	size    int
	overlap int
}

func NewWindowChunker(size, overlap int) (*WindowChunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidChunkConfig, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must not be negative, got %d", ErrInvalidChunkConfig, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", ErrInvalidChunkConfig, overlap, size)
	}
	if size-overlap < size/10 {
		return nil, fmt.Errorf("%w: overlap %d leaves a step below %d characters", ErrInvalidChunkConfig, overlap, size/10)
	}
	return &WindowChunker{size: size, overlap: overlap}, nil
}

// Chunk splits text into ordered chunks. Lengths are measured in runes.
// A window is cut at its last space unless that space is too close to the
// window start to move past the overlap, as with a single very long token;
// then the window is cut at its full size.
func (c *WindowChunker) Chunk(text string, meta domain.ChunkMetadata) []domain.Chunk {
	cleaned := Normalize(text)
	if cleaned == "" {
		return nil
	}

	runes := []rune(cleaned)
	n := len(runes)
	if n <= c.size {
		return []domain.Chunk{{Text: cleaned, Metadata: meta}}
	}

	var chunks []domain.Chunk
	start := 0
	for {
		end := start + c.size
		if end >= n {
			end = n
		} else if snapped := snapToSpace(runes, start, end); snapped-c.overlap > start {
			end = snapped
		}

		if chunk, ok := trimmed(runes, start, end); ok {
			chunk.Metadata = meta
			chunk.ChunkIndex = len(chunks)
			chunks = append(chunks, chunk)
		}

		if end >= n {
			break
		}

		start = end - c.overlap
	}

	return chunks
}

// Normalize collapses every whitespace run into a single space and trims the ends.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// snapToSpace moves end back to the last space after start, if any.
func snapToSpace(runes []rune, start, end int) int {
	for i := end - 1; i > start; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return end
}

func trimmed(runes []rune, start, end int) (domain.Chunk, bool) {
	for start < end && runes[start] == ' ' {
		start++
	}
	for end > start && runes[end-1] == ' ' {
		end--
	}
	if start == end {
		return domain.Chunk{}, false
	}
	return domain.Chunk{Text: string(runes[start:end]), Offset: start}, true
}
