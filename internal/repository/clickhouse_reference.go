package repository

import (
	"context"
	"database/sql"
	"fmt"

	"LureScan/internal/domain/models"
	pkgch "LureScan/pkg/clickhouse"
)

// CHReferenceSource loads float-share reference data from ClickHouse.
type CHReferenceSource struct {
	db    *sql.DB
	table string
}

func NewCHReferenceSource(ch *pkgch.Client, table string) *CHReferenceSource {
	if table == "" {
		table = "lurescan.reference"
	}
	return &CHReferenceSource{db: ch.DB(), table: table}
}

func (s *CHReferenceSource) LoadAll(ctx context.Context) (map[string]models.ReferenceInfo, error) {
	q := fmt.Sprintf("SELECT symbol, float_shares FROM %s FINAL", s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load reference: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.ReferenceInfo)
	for rows.Next() {
		var r models.ReferenceInfo
		if err := rows.Scan(&r.Symbol, &r.FloatShares); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		out[r.Symbol] = r
	}
	return out, rows.Err()
}
