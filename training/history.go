package training

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS agents (
	generation INTEGER NOT NULL,
	agent      INTEGER NOT NULL,
	fitness    REAL,
	weights    TEXT NOT NULL,
	PRIMARY KEY (generation, agent)
)`

// ErrNoHistory is returned by Best when nothing has been recorded.
var ErrNoHistory = errors.New("no recorded generations")

// History stores every generation of a training run in a sqlite file.
type History struct {
	db *sql.DB
}

// OpenHistory opens (creating if needed) the sqlite database at path.
// Use ":memory:" for a throwaway log.
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &History{db: db}, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

// Record writes one row per agent of generation gen.
func (h *History) Record(ctx context.Context, gen int, pop []Agent) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO agents (generation, agent, fitness, weights) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, a := range pop {
		w, err := json.Marshal(a.Weights)
		if err != nil {
			return err
		}
		var fitness sql.NullFloat64
		if !math.IsNaN(a.Fitness) {
			fitness = sql.NullFloat64{Float64: a.Fitness, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, gen, i, fitness, string(w)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Generations returns how many distinct generations are stored.
func (h *History) Generations(ctx context.Context) (int, error) {
	var n int
	err := h.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT generation) FROM agents`).Scan(&n)
	return n, err
}

// Best returns the fittest agent ever recorded and its generation.
func (h *History) Best(ctx context.Context) (int, Agent, error) {
	var (
		gen int
		a   Agent
		w   string
	)
	err := h.db.QueryRowContext(ctx, `
		SELECT generation, fitness, weights FROM agents
		WHERE fitness IS NOT NULL
		ORDER BY fitness DESC, generation ASC, agent ASC
		LIMIT 1`).Scan(&gen, &a.Fitness, &w)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, a, ErrNoHistory
	}
	if err != nil {
		return 0, a, err
	}
	if err := json.Unmarshal([]byte(w), &a.Weights); err != nil {
		return 0, a, err
	}
	return gen, a, nil
}
