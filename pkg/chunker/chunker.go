package chunker

import (
	"strings"

	"github.com/xhad/sage/internal/models"
)

type ChunkerConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

// Chunker splits raw text into overlapping fixed-size windows. Windows
// are sized in runes so multi-byte input does not shift chunk boundaries.
type Chunker struct {
	config ChunkerConfig
}

func NewWithConfig(config ChunkerConfig) Chunker {
	if config.ChunkSize == 0 {
		config.ChunkSize = 1000
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 150
	}

	return Chunker{
		config: config,
	}
}

func New() Chunker {
	return NewWithConfig(ChunkerConfig{})
}

// Chunk slides a window of ChunkSize runes with ChunkOverlap overlap
// across the normalized text. Windows that are empty after trimming are
// skipped and do not consume a chunk id, so ids stay sequential from 0
// with no gaps. Same input always yields the same chunk sequence.
func (c *Chunker) Chunk(text, source string) []models.Chunk {
	clean := strings.TrimSpace(strings.ReplaceAll(text, "\r\r", "\n"))
	if clean == "" {
		return nil
	}

	step := c.config.ChunkSize - c.config.ChunkOverlap
	if step < 1 {
		step = 1
	}

	runes := []rune(clean)

	var chunks []models.Chunk
	chunkID := 0

	for start := 0; start < len(runes); start += step {
		end := start + c.config.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}

		slice := strings.TrimSpace(string(runes[start:end]))
		if slice == "" {
			continue
		}

		chunks = append(chunks, models.Chunk{
			Text:    slice,
			Source:  source,
			ChunkID: chunkID,
		})
		chunkID++
	}

	return chunks
}
