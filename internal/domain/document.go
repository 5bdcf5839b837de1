package domain

// Document is one unit of retrievable text. Its text is self-contained:
// nothing in it references another document.
type Document struct {
	ID   string
	Text string
}

// Chunk is a bounded-length slice of a document's text, the unit stored in
// and returned by the vector index.
type Chunk struct {
	DocID string
	Text  string
}

// ScoredChunk is a chunk with its similarity score from a top-k lookup.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}
