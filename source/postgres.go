package source

import (
	"context"
	"fmt"
	"iter"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect creates a pgx connection pool from a connection string and
// verifies it with a ping.
func Connect(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// PostgresQuery streams the result rows of a SQL query as a chunked source,
// so rasterization never holds more than one chunk of the result set.
//
// floatCols must name numeric result columns; NULL and non-numeric values
// become NaN. catCols must name text result columns; NULL categories are
// dropped. Timestamps convert to Unix seconds, which makes time a usable
// plot axis.
type PostgresQuery struct {
	pool      *pgxpool.Pool
	query     string
	args      []any
	floatCols []string
	catCols   []string
	chunkSize int
}

// NewPostgresQuery creates a source for the given query and column
// selection. The query runs once per Chunks call.
func NewPostgresQuery(pool *pgxpool.Pool, query string, floatCols, catCols []string, args ...any) *PostgresQuery {
	return &PostgresQuery{
		pool:      pool,
		query:     query,
		args:      args,
		floatCols: append([]string(nil), floatCols...),
		catCols:   append([]string(nil), catCols...),
		chunkSize: DefaultChunkSize,
	}
}

// SetChunkSize overrides the number of rows per emitted chunk. Values
// below 1 are ignored.
func (q *PostgresQuery) SetChunkSize(n int) *PostgresQuery {
	if n >= 1 {
		q.chunkSize = n
	}

	return q
}

// Chunks executes the query and yields its rows chunkSize at a time.
// Cancelling ctx aborts the query between rows.
func (q *PostgresQuery) Chunks(ctx context.Context) iter.Seq2[*Chunk, error] {
	return func(yield func(*Chunk, error) bool) {
		rows, err := q.pool.Query(ctx, q.query, q.args...)
		if err != nil {
			yield(nil, fmt.Errorf("query postgres: %w", err))
			return
		}
		defer rows.Close()

		fields := rows.FieldDescriptions()
		header := make([]string, len(fields))
		for i, fd := range fields {
			header[i] = fd.Name
		}

		floatIdx, err := columnIndexes(header, q.floatCols)
		if err != nil {
			yield(nil, err)
			return
		}
		catIdx, err := columnIndexes(header, q.catCols)
		if err != nil {
			yield(nil, err)
			return
		}

		dicts := newDicts(len(q.catCols))
		buf := newChunkBuffer(q.floatCols, q.catCols, q.chunkSize)

		for rows.Next() {
			values, verr := rows.Values()
			if verr != nil {
				yield(nil, fmt.Errorf("read postgres row: %w", verr))
				return
			}

			for i, idx := range floatIdx {
				buf.floats[i] = append(buf.floats[i], pgFloat(values[idx]))
			}
			for i, idx := range catIdx {
				name, ok := pgString(values[idx])
				if !ok {
					buf.codes[i] = append(buf.codes[i], -1)
					continue
				}
				code, cerr := dicts[i].Add(name)
				if cerr != nil {
					yield(nil, fmt.Errorf("encode postgres column %q: %w", q.catCols[i], cerr))
					return
				}
				buf.codes[i] = append(buf.codes[i], code)
			}
			buf.rows++

			if buf.rows >= q.chunkSize {
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
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("stream postgres rows: %w", err))
			return
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

// pgFloat converts a pgx row value to float64, NaN when NULL or not
// numeric.
func pgFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case int16:
		return float64(x)
	case time.Time:
		return float64(x.UnixNano()) / 1e9
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return math.NaN()
		}

		return f.Float64
	default:
		return math.NaN()
	}
}

// pgString converts a pgx row value to a category name.
func pgString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	default:
		return "", false
	}
}
