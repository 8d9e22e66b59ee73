package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"math"
	"os"
	"strconv"
)

// CSVFile streams a CSV file with a header row as a chunked source.
//
// Only the requested columns are materialized: floatCols are parsed as
// float64 (unparseable or empty fields become NaN), catCols are dictionary
// encoded as they stream by. The file is re-read on every Chunks call, so
// one CSVFile can back repeated rasterizations.
type CSVFile struct {
	path      string
	floatCols []string
	catCols   []string
	chunkSize int
}

// NewCSVFile creates a source for the given file and column selection.
func NewCSVFile(path string, floatCols, catCols []string) *CSVFile {
	return &CSVFile{
		path:      path,
		floatCols: append([]string(nil), floatCols...),
		catCols:   append([]string(nil), catCols...),
		chunkSize: DefaultChunkSize,
	}
}

// SetChunkSize overrides the number of rows per emitted chunk. Values
// below 1 are ignored.
func (f *CSVFile) SetChunkSize(n int) *CSVFile {
	if n >= 1 {
		f.chunkSize = n
	}

	return f
}

// Chunks yields the file rows chunkSize at a time.
func (f *CSVFile) Chunks(ctx context.Context) iter.Seq2[*Chunk, error] {
	return func(yield func(*Chunk, error) bool) {
		file, err := os.Open(f.path)
		if err != nil {
			yield(nil, fmt.Errorf("open csv: %w", err))
			return
		}
		defer file.Close()

		reader := csv.NewReader(file)
		reader.ReuseRecord = true

		header, err := reader.Read()
		if err != nil {
			yield(nil, fmt.Errorf("read csv header: %w", err))
			return
		}

		floatIdx, err := columnIndexes(header, f.floatCols)
		if err != nil {
			yield(nil, err)
			return
		}
		catIdx, err := columnIndexes(header, f.catCols)
		if err != nil {
			yield(nil, err)
			return
		}

		dicts := newDicts(len(f.catCols))
		buf := newChunkBuffer(f.floatCols, f.catCols, f.chunkSize)
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				yield(nil, fmt.Errorf("read csv row: %w", err))
				return
			}

			for i, idx := range floatIdx {
				v, perr := strconv.ParseFloat(record[idx], 64)
				if perr != nil {
					v = math.NaN()
				}
				buf.floats[i] = append(buf.floats[i], v)
			}
			for i, idx := range catIdx {
				code, cerr := dicts[i].Add(record[idx])
				if cerr != nil {
					yield(nil, fmt.Errorf("encode csv column %q: %w", f.catCols[i], cerr))
					return
				}
				buf.codes[i] = append(buf.codes[i], code)
			}
			buf.rows++

			if buf.rows >= f.chunkSize {
				chunk, ferr := buf.flush(dicts)
				if ferr != nil {
					yield(nil, ferr)
					return
				}
				if !yield(chunk, nil) {
					return
				}
			}
		}

		if buf.rows > 0 {
			chunk, ferr := buf.flush(dicts)
			if ferr != nil {
				yield(nil, ferr)
				return
			}
			yield(chunk, nil)
		}
	}
}
