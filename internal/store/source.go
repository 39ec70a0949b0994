// Package store is the DuckDB persistence layer: a tick source for replay
// input and a result store for orders, trades and signal records.
package store

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/toriphy/cta-engine/internal/logger"
	"github.com/toriphy/cta-engine/internal/types"
	"github.com/toriphy/cta-engine/pkg/errors"
)

// TickSource streams ticks ordered by exchange timestamp from a CSV or
// Parquet file through an in-memory DuckDB view.
type TickSource struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewTickSource opens an in-memory database and creates the ticks view over
// the given file. Supported extensions are .csv and .parquet.
func NewTickSource(path string, logger *logger.Logger) (*TickSource, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to open database", err)
	}

	var view string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		view = fmt.Sprintf(`CREATE VIEW ticks AS SELECT * FROM read_parquet('%s')`, path)
	case ".csv":
		view = fmt.Sprintf(`CREATE VIEW ticks AS SELECT * FROM read_csv_auto('%s')`, path)
	default:
		db.Close()

		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"unsupported tick file extension: %s", filepath.Ext(path))
	}

	if _, err := db.Exec(view); err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to create ticks view", err)
	}

	logger.Debug("tick source initialized", zap.String("path", path))

	return &TickSource{db: db, logger: logger}, nil
}

// Count returns the number of ticks available.
func (s *TickSource) Count() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM ticks`).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count ticks", err)
	}

	return count, nil
}

// ReadAll returns an iterator over all ticks in ascending time order.
func (s *TickSource) ReadAll() func(yield func(types.Tick, error) bool) {
	return func(yield func(types.Tick, error) bool) {
		rows, err := s.db.Query(`
			SELECT time, symbol, price, volume, open_interest
			FROM ticks
			ORDER BY time ASC
		`)
		if err != nil {
			yield(types.Tick{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query ticks", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			var (
				timestamp             time.Time
				symbol                string
				price                 float64
				volume, openInterest  int64
			)

			if err := rows.Scan(&timestamp, &symbol, &price, &volume, &openInterest); err != nil {
				yield(types.Tick{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan tick", err))

				return
			}

			tick := types.Tick{
				Symbol:       symbol,
				Price:        price,
				Volume:       volume,
				OpenInterest: openInterest,
				Time:         timestamp,
			}

			if !yield(tick, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.Tick{}, errors.Wrap(errors.ErrCodeQueryFailed, "tick iteration failed", err))
		}
	}
}

// Close releases the underlying database.
func (s *TickSource) Close() error {
	return s.db.Close()
}
