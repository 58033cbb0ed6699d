package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/lib/pq"
	"gopkg.in/yaml.v3"
)

// fileFormat is the YAML layout of a catalog file:
//
//	tests:
//	  - key: hemoglobin
//	    display_name: Hemoglobin
//	    unit: g/dL
//	    reference: {low: 12.0, high: 15.0}
//	    physical: {low: 0, high: 25}
//	    aliases: [hb, hgb]
type fileFormat struct {
	Tests []Entry `yaml:"tests"`
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc fileFormat
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(doc.Tests) == 0 {
		return nil, fmt.Errorf("%w: no tests defined", ErrInvalidCatalog)
	}
	return New(doc.Tests)
}

const catalogQuery = `
	SELECT key, display_name, unit, unit_aliases, aliases,
	       reference_low, reference_high,
	       critical_low, critical_high,
	       physical_low, physical_high
	FROM lab_test_catalog
	ORDER BY key`

// catalogRow mirrors one lab_test_catalog row; optional ranges are nullable.
type catalogRow struct {
	Key, DisplayName, Unit      string
	UnitAliases, Aliases        []string
	ReferenceLow, ReferenceHigh float64
	CriticalLow, CriticalHigh   sql.NullFloat64
	PhysicalLow, PhysicalHigh   sql.NullFloat64
}

func (r catalogRow) entry() Entry {
	e := Entry{
		Key:         r.Key,
		DisplayName: r.DisplayName,
		Unit:        r.Unit,
		UnitAliases: r.UnitAliases,
		Aliases:     r.Aliases,
		Reference:   Range{Low: r.ReferenceLow, High: r.ReferenceHigh},
	}
	if r.CriticalLow.Valid && r.CriticalHigh.Valid {
		e.Critical = rng(r.CriticalLow.Float64, r.CriticalHigh.Float64)
	}
	if r.PhysicalLow.Valid && r.PhysicalHigh.Valid {
		e.Physical = rng(r.PhysicalLow.Float64, r.PhysicalHigh.Float64)
	}
	return e
}

// LoadPostgres reads the catalog from the lab_test_catalog table.
func LoadPostgres(ctx context.Context, db *sql.DB) (*Catalog, error) {
	rows, err := db.QueryContext(ctx, catalogQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var r catalogRow
		err := rows.Scan(
			&r.Key, &r.DisplayName, &r.Unit,
			pq.Array(&r.UnitAliases), pq.Array(&r.Aliases),
			&r.ReferenceLow, &r.ReferenceHigh,
			&r.CriticalLow, &r.CriticalHigh,
			&r.PhysicalLow, &r.PhysicalHigh,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		entries = append(entries, r.entry())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog rows: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: lab_test_catalog is empty", ErrInvalidCatalog)
	}

	return New(entries)
}
