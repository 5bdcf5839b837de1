package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/salesrag/internal/domain"
)

const (
	metaFile   = "meta.json"
	chunksFile = "chunks.parquet"
)

// meta describes a persisted index directory.
type meta struct {
	Model      string    `json:"model"`
	Dimensions int       `json:"dimensions"`
	Chunks     int       `json:"chunks"`
	CreatedAt  time.Time `json:"created_at"`
}

// chunkRow is the parquet row shape for one indexed chunk.
type chunkRow struct {
	DocID  string    `parquet:"doc_id"`
	Text   string    `parquet:"text"`
	Vector []float32 `parquet:"vector"`
}

// Save writes the index as a directory: meta.json plus a parquet file with
// one row per chunk, preserving insertion order.
func (x *Index) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	rows := make([]chunkRow, len(x.chunks))
	for i, c := range x.chunks {
		rows[i] = chunkRow{DocID: c.DocID, Text: c.Text, Vector: x.vectors[i]}
	}
	if err := parquet.WriteFile(filepath.Join(dir, chunksFile), rows); err != nil {
		return fmt.Errorf("write %s: %w", chunksFile, err)
	}

	m := meta{
		Model:      x.model,
		Dimensions: x.dim,
		Chunks:     len(x.chunks),
		CreatedAt:  time.Now().UTC(),
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metaFile), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", metaFile, err)
	}
	return nil
}

// Load reads a persisted index directory written by Save.
func Load(dir string) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", metaFile, err)
	}
	var m meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", metaFile, err)
	}

	rows, err := parquet.ReadFile[chunkRow](filepath.Join(dir, chunksFile))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", chunksFile, err)
	}
	if len(rows) != m.Chunks {
		return nil, fmt.Errorf("index %s: meta says %d chunks, parquet has %d", dir, m.Chunks, len(rows))
	}

	idx := New(m.Model, m.Dimensions)
	for i, row := range rows {
		if err := idx.Add(domain.Chunk{DocID: row.DocID, Text: row.Text}, row.Vector); err != nil {
			return nil, fmt.Errorf("load chunk %d: %w", i, err)
		}
	}
	return idx, nil
}
