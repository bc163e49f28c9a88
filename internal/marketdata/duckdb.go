package marketdata

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-race/internal/logger"
	"github.com/rxtech-lab/argo-race/internal/types"
	"github.com/rxtech-lab/argo-race/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBSource reads candles from a DuckDB database containing a `candles`
// table of 1-minute bars written by the ingestion layer.
type DuckDBSource struct {
	db  *sql.DB
	log *logger.Logger
	sq  squirrel.StatementBuilderType
}

// NewDuckDBSource opens the candle store at the given path. Pass ":memory:"
// for an ephemeral database (used by tests, which seed it via ExecuteSQL).
func NewDuckDBSource(path string, log *logger.Logger) (*DuckDBSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open candle store", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS candles (
			symbol TEXT,
			time TIMESTAMP,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE
		)
	`)
	if err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to prepare candles table", err)
	}

	return &DuckDBSource{
		db:  db,
		log: log,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// QueryCandles implements Source.
func (d *DuckDBSource) QueryCandles(query CandleQuery) ([]types.Candle, error) {
	minutes, err := IntervalMinutes(query.Interval)
	if err != nil {
		return nil, err
	}

	var (
		sqlQuery string
		args     []interface{}
	)

	if minutes <= 1 {
		sqlQuery, args, err = d.buildPlainQuery(query)
	} else {
		sqlQuery, args, err = d.buildBucketQuery(query, minutes)
	}

	if err != nil {
		return nil, err
	}

	candles, err := d.scanCandles(sqlQuery, args)
	if err != nil {
		return nil, err
	}

	// Aggregated queries trim to the most recent Limit buckets here rather
	// than in SQL, keeping the bucket query readable.
	if minutes > 1 && query.Limit > 0 && len(candles) > query.Limit {
		candles = candles[len(candles)-query.Limit:]
	}

	return candles, nil
}

// LatestAt implements Source.
func (d *DuckDBSource) LatestAt(symbol string, at time.Time) (optional.Option[types.Candle], error) {
	sqlQuery, args, err := d.sq.
		Select("symbol", "time", "open", "high", "low", "close", "volume").
		From("candles").
		Where(squirrel.And{
			squirrel.Eq{"symbol": symbol},
			squirrel.LtOrEq{"time": at},
		}).
		OrderBy("time DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return optional.None[types.Candle](), errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	candles, err := d.scanCandles(sqlQuery, args)
	if err != nil {
		return optional.None[types.Candle](), err
	}

	if len(candles) == 0 {
		return optional.None[types.Candle](), nil
	}

	return optional.Some(candles[0]), nil
}

// Count implements Source.
func (d *DuckDBSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	builder := d.sq.Select("COUNT(*)").From("candles")

	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"time": end.Unwrap()})
	}

	sqlQuery, args, err := builder.ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := d.db.QueryRow(sqlQuery, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count candles", err)
	}

	return count, nil
}

// ExecuteSQL runs a raw statement against the store. Used by ingestion tooling
// and tests to seed data; the simulation core only reads.
func (d *DuckDBSource) ExecuteSQL(query string, params ...interface{}) error {
	_, err := d.db.Exec(query, params...)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to execute statement", err)
	}

	return nil
}

// Close implements Source.
func (d *DuckDBSource) Close() error {
	d.log.Debug("Closing candle store")

	return d.db.Close()
}

func (d *DuckDBSource) buildPlainQuery(query CandleQuery) (string, []interface{}, error) {
	conditions := squirrel.And{squirrel.Eq{"symbol": query.Symbol}}

	if query.Start.IsSome() {
		conditions = append(conditions, squirrel.GtOrEq{"time": query.Start.Unwrap()})
	}

	if query.End.IsSome() {
		conditions = append(conditions, squirrel.LtOrEq{"time": query.End.Unwrap()})
	}

	builder := d.sq.
		Select("symbol", "time", "open", "high", "low", "close", "volume").
		From("candles").
		Where(conditions)

	if query.Limit > 0 {
		// Keep the most recent Limit rows but hand them back oldest-first.
		inner, args, err := builder.OrderBy("time DESC").Limit(uint64(query.Limit)).ToSql()
		if err != nil {
			return "", nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
		}

		return fmt.Sprintf("SELECT * FROM (%s) ORDER BY time ASC", inner), args, nil
	}

	sqlQuery, args, err := builder.OrderBy("time ASC").ToSql()
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	return sqlQuery, args, nil
}

func (d *DuckDBSource) buildBucketQuery(query CandleQuery, minutes int) (string, []interface{}, error) {
	conditions := "symbol = $1"
	args := []interface{}{query.Symbol}

	if query.Start.IsSome() {
		args = append(args, query.Start.Unwrap())
		conditions += fmt.Sprintf(" AND time >= $%d", len(args))
	}

	if query.End.IsSome() {
		args = append(args, query.End.Unwrap())
		conditions += fmt.Sprintf(" AND time <= $%d", len(args))
	}

	sqlQuery := fmt.Sprintf(`
		WITH time_buckets AS MATERIALIZED (
			SELECT
				symbol,
				time_bucket(INTERVAL '%d minutes', time) as bucket_time,
				FIRST_VALUE(open) OVER (PARTITION BY time_bucket(INTERVAL '%d minutes', time), symbol ORDER BY time) as open,
				MAX(high) OVER (PARTITION BY time_bucket(INTERVAL '%d minutes', time), symbol) as high,
				MIN(low) OVER (PARTITION BY time_bucket(INTERVAL '%d minutes', time), symbol) as low,
				LAST_VALUE(close) OVER (PARTITION BY time_bucket(INTERVAL '%d minutes', time), symbol ORDER BY time ROWS BETWEEN UNBOUNDED PRECEDING AND UNBOUNDED FOLLOWING) as close,
				SUM(volume) OVER (PARTITION BY time_bucket(INTERVAL '%d minutes', time), symbol) as volume
			FROM candles
			WHERE %s
		)
		SELECT DISTINCT
			symbol,
			bucket_time as time,
			open,
			high,
			low,
			close,
			volume
		FROM time_buckets
		ORDER BY bucket_time ASC
	`, minutes, minutes, minutes, minutes, minutes, minutes, conditions)

	return sqlQuery, args, nil
}

func (d *DuckDBSource) scanCandles(sqlQuery string, args []interface{}) ([]types.Candle, error) {
	rows, err := d.db.Query(sqlQuery, args...)
	if err != nil {
		d.log.Error("Candle query failed", zap.Error(err))

		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query candles", err)
	}
	defer rows.Close()

	var candles []types.Candle

	for rows.Next() {
		var candle types.Candle

		err := rows.Scan(&candle.Symbol, &candle.Time, &candle.Open, &candle.High, &candle.Low, &candle.Close, &candle.Volume)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan candle row", err)
		}

		candles = append(candles, candle)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating candle rows", err)
	}

	return candles, nil
}
