package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"LureScan/internal/domain/models"
	pkgch "LureScan/pkg/clickhouse"
)

// CHResultStore persists ranked scan results in ClickHouse.
type CHResultStore struct {
	db    *sql.DB
	table string
}

func NewCHResultStore(ch *pkgch.Client, table string) *CHResultStore {
	if table == "" {
		table = "lurescan.scan_results"
	}
	return &CHResultStore{db: ch.DB(), table: table}
}

func (s *CHResultStore) StoreResults(ctx context.Context, results []models.ScanResult) error {
	if len(results) == 0 {
		return nil
	}
	values := make([]string, 0, len(results))
	args := make([]interface{}, 0, len(results)*10)
	for _, r := range results {
		if r.Symbol == "" {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			r.Timestamp,
			r.Symbol,
			string(r.Signal),
			r.Confidence,
			r.Reason,
			boolToUInt8(r.InsufficientData),
			r.Dimensions.Quantity.Label,
			r.Dimensions.Price.Label,
			r.Dimensions.Space.Label,
			r.Dimensions.Time.Label,
		)
	}
	if len(values) == 0 {
		return nil
	}
	q := fmt.Sprintf(
		"INSERT INTO %s (ts, symbol, signal, confidence, reason, insufficient, quantity_label, price_label, space_label, time_label) VALUES %s",
		s.table, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("store results: %w", err)
	}
	return nil
}

// LatestResults returns the most recent pass's rows, strongest first.
func (s *CHResultStore) LatestResults(ctx context.Context, limit int) ([]models.ScanResult, error) {
	if limit <= 0 {
		limit = 50
	}
	q := fmt.Sprintf(`
        SELECT ts, symbol, signal, confidence, reason, insufficient,
               quantity_label, price_label, space_label, time_label
        FROM %s
        WHERE ts = (SELECT max(ts) FROM %s)
        ORDER BY confidence DESC
        LIMIT ?
    `, s.table, s.table)

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("latest results: %w", err)
	}
	defer rows.Close()

	var out []models.ScanResult
	for rows.Next() {
		var r models.ScanResult
		var ts time.Time
		var signal string
		var insufficient uint8
		if err := rows.Scan(&ts, &r.Symbol, &signal, &r.Confidence, &r.Reason, &insufficient,
			&r.Dimensions.Quantity.Label, &r.Dimensions.Price.Label,
			&r.Dimensions.Space.Label, &r.Dimensions.Time.Label); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Timestamp = ts
		r.Signal = models.Signal(signal)
		r.InsufficientData = insufficient != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *CHResultStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHResultStore) Close() error {
	return nil // managed by pkg client
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
