package store

import (
	"fmt"
	"math/rand"

	"github.com/lgmkit/lgmkit/internal/state"
)

// Summary implements state.Result by reading one summary state from the
// summaries table. quantile only participates for the quantile property.
func (r *Result) Summary(p state.Property, quantile float64, internalHyper bool) (state.State, error) {
	if p != state.PropertyQuantile {
		quantile = 0
	}
	internal := 0
	if internalHyper {
		internal = 1
	}

	rows, err := r.db.Query(
		`SELECT label, idx, value FROM summaries
		 WHERE property = ? AND quantile = ? AND internal = ?
		 ORDER BY label, idx`,
		string(p), quantile, internal,
	)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	st := make(state.State)
	for rows.Next() {
		var label string
		var idx int
		var value float64
		if err := rows.Scan(&label, &idx, &value); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		vec := st[label]
		for len(vec) <= idx {
			vec = append(vec, 0)
		}
		vec[idx] = value
		st[label] = vec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	if len(st) == 0 {
		return nil, fmt.Errorf("no %s summary stored in result", p)
	}
	return st, nil
}

// Sample implements state.Result by resampling stored posterior draws.
//
// Seed contract: seed 0 draws indices from the process-wide random source
// (non-deterministic); any nonzero seed uses a private, single-threaded
// source so repeated calls reproduce the same sequence.
func (r *Result) Sample(n int, seed int64) ([]state.State, error) {
	if n <= 0 {
		return nil, fmt.Errorf("sample size must be positive, got %d", n)
	}
	total, err := r.NDraws()
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, fmt.Errorf("result contains no posterior draws")
	}

	pick := rand.Intn
	if seed != 0 {
		rng := rand.New(rand.NewSource(seed))
		pick = rng.Intn
	}

	out := make([]state.State, n)
	for i := 0; i < n; i++ {
		st, err := r.readDraw(pick(total))
		if err != nil {
			return nil, err
		}
		out[i] = st
	}
	return out, nil
}

// NDraws reports how many posterior draws the result holds.
// Draw numbers are assumed dense from 0.
func (r *Result) NDraws() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(DISTINCT draw) FROM draws`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count draws: %w", err)
	}
	return count, nil
}

func (r *Result) readDraw(draw int) (state.State, error) {
	rows, err := r.db.Query(
		`SELECT label, idx, value FROM draws WHERE draw = ? ORDER BY label, idx`,
		draw,
	)
	if err != nil {
		return nil, fmt.Errorf("query draw %d: %w", draw, err)
	}
	defer rows.Close()

	st := make(state.State)
	for rows.Next() {
		var label string
		var idx int
		var value float64
		if err := rows.Scan(&label, &idx, &value); err != nil {
			return nil, fmt.Errorf("scan draw row: %w", err)
		}
		vec := st[label]
		for len(vec) <= idx {
			vec = append(vec, 0)
		}
		vec[idx] = value
		st[label] = vec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate draw %d: %w", draw, err)
	}
	if len(st) == 0 {
		return nil, fmt.Errorf("draw %d not present in result", draw)
	}
	return st, nil
}
