package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"LureScan/internal/domain/models"
	domrepo "LureScan/internal/domain/repository"
	pkgch "LureScan/pkg/clickhouse"
	applogger "LureScan/pkg/logger"
)

// CHBarStore reads and writes minute bars in ClickHouse. It backs the funnel's
// bulk window fetches, the live collector's writes, and universe discovery.
type CHBarStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHBarStore(ch *pkgch.Client) *CHBarStore {
	return &CHBarStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHBarStore) SetLogger(l *applogger.Logger) { s.l = l }

// FetchWindows returns the last barCount bars per symbol, ascending by bucket.
// Symbols with no rows are simply absent from the map.
func (s *CHBarStore) FetchWindows(ctx context.Context, symbols []string, period domrepo.Period, barCount int) (map[string]models.BarWindow, error) {
	if len(symbols) == 0 {
		return map[string]models.BarWindow{}, nil
	}
	start := time.Now()
	table, err := tableForPeriod(period)
	if err != nil {
		return nil, err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(symbols)), ",")
	q := fmt.Sprintf(`
        SELECT bucket, symbol, open, high, low, close, vol
        FROM (
            SELECT bucket, symbol, open, high, low, close, vol,
                   row_number() OVER (PARTITION BY symbol ORDER BY bucket DESC) AS rn
            FROM %s
            WHERE symbol IN (%s)
        )
        WHERE rn <= ?
        ORDER BY symbol, bucket ASC
    `, table, placeholders)

	args := make([]interface{}, 0, len(symbols)+1)
	for _, sym := range symbols {
		args = append(args, sym)
	}
	args = append(args, barCount)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse fetch_windows query error",
				applogger.String("table", table),
				applogger.Int("symbols", len(symbols)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("fetch windows: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.BarWindow, len(symbols))
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Bucket, &b.Symbol, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		out[b.Symbol] = append(out[b.Symbol], b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse fetch_windows ok",
			applogger.String("table", table),
			applogger.Int("symbols", len(symbols)),
			applogger.Int("found", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// StoreBars batch-inserts closed minute bars.
func (s *CHBarStore) StoreBars(ctx context.Context, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(bars); start += chunkSize {
		end := start + chunkSize
		if end > len(bars) {
			end = len(bars)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, b := range bars[start:end] {
			if b.Symbol == "" || b.Bucket.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args, b.Bucket, b.Symbol, b.Open, b.High, b.Low, b.Close, b.Volume)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (bucket, symbol, open, high, low, close, vol) VALUES %s",
			barsTable1m, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store bars: %w", err)
		}
	}
	return nil
}

// ListSymbols returns every symbol that printed a bar in the last trading day.
func (s *CHBarStore) ListSymbols(ctx context.Context) ([]string, error) {
	q := fmt.Sprintf("SELECT DISTINCT symbol FROM %s WHERE bucket >= now() - INTERVAL 1 DAY ORDER BY symbol", barsTable1m)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

func (s *CHBarStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHBarStore) Close() error {
	return nil // managed by pkg client
}

const barsTable1m = "lurescan.bars_1m"

func tableForPeriod(p domrepo.Period) (string, error) {
	switch p {
	case domrepo.P1m:
		return barsTable1m, nil
	case domrepo.P5m:
		// fold to 1m for now; 5m can be aggregated in-memory if needed
		return barsTable1m, nil
	default:
		return "", fmt.Errorf("unsupported period: %s", p)
	}
}
