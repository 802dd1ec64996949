package store

import (
	"fmt"

	"github.com/lgmkit/lgmkit/internal/state"
)

// WriteSummary stores one summary state under the given property. Existing
// rows for the same key are replaced. Used by solvers persisting a fit and
// by tests building result fixtures.
func (r *Result) WriteSummary(p state.Property, quantile float64, internalHyper bool, st state.State) error {
	if p != state.PropertyQuantile {
		quantile = 0
	}
	internal := 0
	if internalHyper {
		internal = 1
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin summary write: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO summaries (property, quantile, internal, label, idx, value)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare summary write: %w", err)
	}
	defer stmt.Close()

	for label, vec := range st {
		for idx, value := range vec {
			if _, err := stmt.Exec(string(p), quantile, internal, label, idx, value); err != nil {
				return fmt.Errorf("write summary %s[%d]: %w", label, idx, err)
			}
		}
	}
	return tx.Commit()
}

// WriteDraw stores one posterior draw under the given draw number.
func (r *Result) WriteDraw(draw int, st state.State) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin draw write: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO draws (draw, label, idx, value) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare draw write: %w", err)
	}
	defer stmt.Close()

	for label, vec := range st {
		for idx, value := range vec {
			if _, err := stmt.Exec(draw, label, idx, value); err != nil {
				return fmt.Errorf("write draw %d %s[%d]: %w", draw, label, idx, err)
			}
		}
	}
	return tx.Commit()
}
