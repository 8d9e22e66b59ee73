package source

import (
	"fmt"

	"github.com/arloliu/dshade/errs"
	"github.com/arloliu/dshade/internal/catmap"
)

// columnIndexes resolves the positions of the requested columns in a
// header row.
func columnIndexes(header, cols []string) ([]int, error) {
	idx := make([]int, len(cols))
	for i, name := range cols {
		idx[i] = -1
		for j, h := range header {
			if h == name {
				idx[i] = j
				break
			}
		}
		if idx[i] < 0 {
			return nil, fmt.Errorf("column %q: %w", name, errs.ErrMissingColumn)
		}
	}

	return idx, nil
}

func newDicts(n int) []*catmap.Dict {
	dicts := make([]*catmap.Dict, n)
	for i := range dicts {
		dicts[i] = catmap.New()
	}

	return dicts
}

// chunkBuffer accumulates parsed rows for the streaming sources until a
// chunk is full.
type chunkBuffer struct {
	floatNames []string
	catNames   []string
	floats     [][]float64
	codes      [][]int32
	rows       int
	chunkSize  int
}

func newChunkBuffer(floatNames, catNames []string, chunkSize int) *chunkBuffer {
	buf := &chunkBuffer{
		floatNames: floatNames,
		catNames:   catNames,
		floats:     make([][]float64, len(floatNames)),
		codes:      make([][]int32, len(catNames)),
		chunkSize:  chunkSize,
	}
	buf.reset()

	return buf
}

func (b *chunkBuffer) reset() {
	for i := range b.floats {
		b.floats[i] = make([]float64, 0, b.chunkSize)
	}
	for i := range b.codes {
		b.codes[i] = make([]int32, 0, b.chunkSize)
	}
	b.rows = 0
}

// flush converts the buffered rows into a chunk and resets the buffer. The
// chunk owns the slices, so reset allocates fresh ones.
func (b *chunkBuffer) flush(dicts []*catmap.Dict) (*Chunk, error) {
	chunk := NewChunk(b.rows)
	for i, name := range b.floatNames {
		if err := chunk.SetFloat(name, b.floats[i]); err != nil {
			return nil, err
		}
	}
	for i, name := range b.catNames {
		err := chunk.SetCat(name, CatColumn{Codes: b.codes[i], Dict: dicts[i].Snapshot()})
		if err != nil {
			return nil, err
		}
	}
	b.reset()

	return chunk, nil
}
