package domain

// Document is the extracted text of one corpus file.
type Document struct {
	Filename string
	Content  string
	Path     string
}

type ChunkMetadata struct {
	Filename string `json:"filename"`
	Path     string `json:"path,omitempty"`
}

// Chunk is a bounded window of a document's whitespace-normalized text.
type Chunk struct {
	Text       string
	Metadata   ChunkMetadata
	ChunkIndex int
	Offset     int // rune offset of Text inside the normalized document
}

type EntryMetadata struct {
	Filename   string `json:"filename"`
	ChunkIndex int    `json:"chunk_index"`
}

// IndexedEntry is a chunk stored in the index together with its embedding.
type IndexedEntry struct {
	ID        string
	Embedding []float32
	Text      string
	Metadata  EntryMetadata
}

// RetrievalResult is one retrieved passage. Distance is nil when the
// index could not report one.
type RetrievalResult struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Metadata EntryMetadata `json:"metadata"`
	Distance *float64      `json:"distance,omitempty"`
}

// SourceGroup holds the concatenated retrieved text of a single file.
type SourceGroup struct {
	Filename   string
	Text       string
	ChunkCount int
	Truncated  bool
}

// PromptContext is the grounding context handed to the generator.
type PromptContext struct {
	Question string
	Groups   []SourceGroup
}

type Stats struct {
	TotalChunks    int    `json:"total_documents"`
	CollectionName string `json:"collection_name"`
	Backend        string `json:"backend,omitempty"`
	Stale          bool   `json:"stale,omitempty"`
}
