package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/toriphy/cta-engine/internal/execution"
	"github.com/toriphy/cta-engine/internal/logger"
	"github.com/toriphy/cta-engine/internal/types"
	"github.com/toriphy/cta-engine/pkg/errors"
)

// ResultStore persists the output of one replay: every order issued, every
// fill with its realized PnL, and the signal log.
type ResultStore struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewResultStore opens an in-memory result database.
func NewResultStore(logger *logger.Logger) (*ResultStore, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to open database", err)
	}

	return &ResultStore{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the result tables.
func (s *ResultStore) Initialize() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			order_id TEXT PRIMARY KEY,
			symbol TEXT,
			side TEXT,
			price DOUBLE,
			quantity DOUBLE,
			is_stop BOOLEAN,
			status TEXT,
			oca_group TEXT,
			reason TEXT,
			message TEXT,
			submitted_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			order_id TEXT,
			symbol TEXT,
			side TEXT,
			quantity DOUBLE,
			price DOUBLE,
			net_position DOUBLE,
			reason TEXT,
			pnl DOUBLE,
			executed_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS signals (
			time TIMESTAMP,
			symbol TEXT,
			direction TEXT,
			conditions TEXT,
			close DOUBLE,
			channel_mid DOUBLE,
			channel_up DOUBLE,
			channel_low DOUBLE,
			open_ratio DOUBLE,
			weighted_open_ratio DOUBLE
		)`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to create result tables", err)
		}
	}

	return nil
}

// RecordOrder inserts a newly submitted order.
func (s *ResultStore) RecordOrder(order types.WorkingOrder) error {
	query := s.sq.
		Insert("orders").
		Columns(
			"order_id", "symbol", "side", "price", "quantity", "is_stop",
			"status", "oca_group", "reason", "message", "submitted_at",
		).
		Values(
			order.ID, order.Symbol, order.Side, order.Price, order.Quantity, order.IsStop,
			order.Status, order.OCAGroup, order.Reason.Reason, order.Reason.Message, order.SubmittedAt,
		).
		RunWith(s.db)

	if _, err := query.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert order", err)
	}

	return nil
}

// UpdateOrderStatus rewrites the stored status of an order.
func (s *ResultStore) UpdateOrderStatus(orderID string, status types.OrderStatus) error {
	query := s.sq.
		Update("orders").
		Set("status", status).
		Where(squirrel.Eq{"order_id": orderID}).
		RunWith(s.db)

	if _, err := query.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to update order status", err)
	}

	return nil
}

// RecordTrade inserts one completed fill.
func (s *ResultStore) RecordTrade(trade execution.Trade) error {
	pnl, _ := trade.RealizedPnL.Float64()

	query := s.sq.
		Insert("trades").
		Columns(
			"order_id", "symbol", "side", "quantity", "price",
			"net_position", "reason", "pnl", "executed_at",
		).
		Values(
			trade.Order.ID, trade.Order.Symbol, trade.Order.Side, trade.Fill.Quantity, trade.Fill.Price,
			trade.Fill.NetPosition, trade.Order.Reason.Reason, pnl, trade.Fill.Time,
		).
		RunWith(s.db)

	if _, err := query.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert trade", err)
	}

	return nil
}

// RecordSignals inserts signal log entries.
func (s *ResultStore) RecordSignals(events []types.SignalEvent) error {
	for _, event := range events {
		conditions := ""
		for i, condition := range event.Conditions {
			if i > 0 {
				conditions += ","
			}

			conditions += condition
		}

		query := s.sq.
			Insert("signals").
			Columns(
				"time", "symbol", "direction", "conditions", "close",
				"channel_mid", "channel_up", "channel_low", "open_ratio", "weighted_open_ratio",
			).
			Values(
				event.Time, event.Symbol, event.Direction, conditions, event.Values["close"],
				event.Values["channel_mid"], event.Values["channel_up"], event.Values["channel_low"],
				event.Values["open_ratio"], event.Values["weighted_open_ratio"],
			).
			RunWith(s.db)

		if _, err := query.Exec(); err != nil {
			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert signal", err)
		}
	}

	return nil
}

// Summary aggregates the stored results.
type Summary struct {
	Orders      int
	Trades      int
	Signals     int
	RealizedPnL float64
}

// Summarize computes counts and total realized PnL from the result tables.
func (s *ResultStore) Summarize() (Summary, error) {
	summary := Summary{}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&summary.Orders); err != nil {
		return summary, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count orders", err)
	}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM trades`).Scan(&summary.Trades); err != nil {
		return summary, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count trades", err)
	}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM signals`).Scan(&summary.Signals); err != nil {
		return summary, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count signals", err)
	}

	if err := s.db.QueryRow(`SELECT COALESCE(SUM(pnl), 0) FROM trades`).Scan(&summary.RealizedPnL); err != nil {
		return summary, errors.Wrap(errors.ErrCodeQueryFailed, "failed to sum pnl", err)
	}

	return summary, nil
}

// Write exports the result tables to Parquet files in the given directory.
func (s *ResultStore) Write(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to create output directory", err)
	}

	// Raw SQL because squirrel does not support COPY.
	for _, table := range []string{"orders", "trades", "signals"} {
		target := filepath.Join(path, table+".parquet")
		if _, err := s.db.Exec(fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET)`, table, target)); err != nil {
			return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to export %s to Parquet", table)
		}
	}

	s.logger.Info("exported replay results", zap.String("path", path))

	return nil
}

// Close releases the underlying database.
func (s *ResultStore) Close() error {
	return s.db.Close()
}
