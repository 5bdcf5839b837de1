// Package splitter cuts document text into bounded, overlapping chunks.
package splitter

import "fmt"

// Splitter produces fixed-size rune windows with a configured overlap between
// consecutive chunks, so that meaning cut at a chunk boundary survives in the
// neighbour chunk.
type Splitter struct {
	chunkSize int
	overlap   int
}

// New creates a splitter. overlap must be smaller than chunkSize, otherwise
// splitting would never advance.
func New(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be in [0, %d), got %d", chunkSize, overlap)
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}, nil
}

// Split cuts text into chunks of at most chunkSize runes. Each chunk after
// the first starts overlap runes before the end of the previous one. Text
// that already fits in one chunk is returned unchanged as a single element.
// Splitting operates on runes: the dataset is Korean and byte slicing would
// cut characters in half.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) <= s.chunkSize {
		return []string{text}
	}

	step := s.chunkSize - s.overlap
	chunks := make([]string, 0, (len(runes)+step-1)/step)

	for start := 0; start < len(runes); start += step {
		end := start + s.chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}

	return chunks
}

// ChunkSize reports the configured maximum chunk length in runes.
func (s *Splitter) ChunkSize() int { return s.chunkSize }

// Overlap reports the configured overlap length in runes.
func (s *Splitter) Overlap() int { return s.overlap }
