package plan

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"remap/internal/compression"
	"remap/internal/errors"
	"remap/internal/logging"
	"remap/internal/paths"
)

// Journal persists plans to .remap/plans.db so preview and apply can run
// as separate processes. Payloads are stored as zstd-compressed JSON; the
// searchable columns mirror the fields the list view needs.
type Journal struct {
	conn     *sql.DB
	logger   *logging.Logger
	maxPlans int
}

// JournalEntry is one row of the plan list view.
type JournalEntry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Kind      string    `json:"kind"`
	OldPath   string    `json:"oldPath"`
	NewPath   string    `json:"newPath"`
	Edits     int       `json:"edits"`
	Moves     int       `json:"moves"`
	Applied   bool      `json:"applied"`
}

const journalSchema = `
CREATE TABLE IF NOT EXISTS plans (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	kind TEXT NOT NULL,
	old_path TEXT NOT NULL,
	new_path TEXT NOT NULL,
	edit_count INTEGER NOT NULL,
	move_count INTEGER NOT NULL,
	applied INTEGER NOT NULL DEFAULT 0,
	payload BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_plans_created_at ON plans(created_at);
`

// OpenJournal opens or creates the plan journal under repoRoot.
func OpenJournal(repoRoot string, maxPlans int, logger *logging.Logger) (*Journal, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if _, err := paths.EnsureRemapDir(repoRoot); err != nil {
		return nil, errors.NewRemapError(errors.IOFailure, "cannot create .remap directory", err)
	}

	dbPath := paths.GetJournalPath(repoRoot)
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.NewRemapError(errors.IOFailure, fmt.Sprintf("cannot open plan journal at %s", dbPath), err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, errors.NewRemapError(errors.IOFailure, "cannot configure plan journal", err)
		}
	}

	if _, err := conn.Exec(journalSchema); err != nil {
		conn.Close()
		return nil, errors.NewRemapError(errors.IOFailure, "cannot initialize plan journal schema", err)
	}

	return &Journal{conn: conn, logger: logger, maxPlans: maxPlans}, nil
}

// Close closes the journal database.
func (j *Journal) Close() error {
	if j.conn != nil {
		return j.conn.Close()
	}
	return nil
}

// Save stores a plan and prunes the journal to its retention count.
func (j *Journal) Save(p *EditPlan) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return errors.NewRemapError(errors.InternalError, "cannot serialize plan", err)
	}
	compressed := compression.Compress(payload)

	_, err = j.conn.Exec(
		`INSERT OR REPLACE INTO plans (id, created_at, kind, old_path, new_path, edit_count, move_count, applied, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		p.ID,
		p.CreatedAt.Format(time.RFC3339Nano),
		string(p.Operation.Kind),
		p.Operation.OldPath,
		p.Operation.NewPath,
		len(p.Edits),
		len(p.Moves),
		compressed,
	)
	if err != nil {
		return errors.NewRemapError(errors.IOFailure, "cannot save plan to journal", err)
	}

	j.logger.Debug("Plan saved to journal", map[string]interface{}{
		"planId":     p.ID,
		"payloadRaw": len(payload),
		"payloadZst": len(compressed),
	})

	return j.prune()
}

// Load retrieves a plan by id.
func (j *Journal) Load(id string) (*EditPlan, error) {
	var compressed []byte
	err := j.conn.QueryRow(`SELECT payload FROM plans WHERE id = ?`, id).Scan(&compressed)
	if err == sql.ErrNoRows {
		return nil, errors.NewRemapError(errors.PlanNotFound, fmt.Sprintf("no plan with id %s in journal", id), nil)
	}
	if err != nil {
		return nil, errors.NewRemapError(errors.IOFailure, "cannot read plan from journal", err)
	}
	return decodePayload(compressed)
}

// Latest retrieves the most recently created plan.
func (j *Journal) Latest() (*EditPlan, error) {
	var compressed []byte
	err := j.conn.QueryRow(`SELECT payload FROM plans ORDER BY created_at DESC, id DESC LIMIT 1`).Scan(&compressed)
	if err == sql.ErrNoRows {
		return nil, errors.NewRemapError(errors.PlanNotFound, "journal is empty", nil)
	}
	if err != nil {
		return nil, errors.NewRemapError(errors.IOFailure, "cannot read plan from journal", err)
	}
	return decodePayload(compressed)
}

// List returns journal entries, newest first.
func (j *Journal) List() ([]JournalEntry, error) {
	rows, err := j.conn.Query(
		`SELECT id, created_at, kind, old_path, new_path, edit_count, move_count, applied
		 FROM plans ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, errors.NewRemapError(errors.IOFailure, "cannot list journal", err)
	}
	defer rows.Close()

	var out []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var createdAt string
		var applied int
		if err := rows.Scan(&e.ID, &createdAt, &e.Kind, &e.OldPath, &e.NewPath, &e.Edits, &e.Moves, &applied); err != nil {
			return nil, errors.NewRemapError(errors.IOFailure, "cannot scan journal row", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		e.Applied = applied != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkApplied flags a journaled plan as applied.
func (j *Journal) MarkApplied(id string) error {
	_, err := j.conn.Exec(`UPDATE plans SET applied = 1 WHERE id = ?`, id)
	if err != nil {
		return errors.NewRemapError(errors.IOFailure, "cannot mark plan applied", err)
	}
	return nil
}

// Delete removes a plan from the journal.
func (j *Journal) Delete(id string) error {
	res, err := j.conn.Exec(`DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return errors.NewRemapError(errors.IOFailure, "cannot delete plan", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewRemapError(errors.PlanNotFound, fmt.Sprintf("no plan with id %s in journal", id), nil)
	}
	return nil
}

// prune deletes the oldest plans past the retention count.
func (j *Journal) prune() error {
	if j.maxPlans <= 0 {
		return nil
	}
	_, err := j.conn.Exec(
		`DELETE FROM plans WHERE id NOT IN (
			SELECT id FROM plans ORDER BY created_at DESC, id DESC LIMIT ?
		)`, j.maxPlans)
	if err != nil {
		return errors.NewRemapError(errors.IOFailure, "cannot prune journal", err)
	}
	return nil
}

func decodePayload(compressed []byte) (*EditPlan, error) {
	payload, err := compression.Decompress(compressed)
	if err != nil {
		return nil, errors.NewRemapError(errors.InternalError, "cannot decompress journaled plan", err)
	}
	var p EditPlan
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, errors.NewRemapError(errors.InternalError, "cannot decode journaled plan", err)
	}
	return &p, nil
}

// ReadPlanFile loads a plan from a .json or .json.zst file on disk.
func ReadPlanFile(path string) (*EditPlan, error) {
	data, err := compression.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewRemapError(errors.PlanNotFound, fmt.Sprintf("plan file not found: %s", path), err)
		}
		return nil, errors.NewRemapError(errors.IOFailure, fmt.Sprintf("cannot read plan file %s", path), err)
	}
	var p EditPlan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.NewRemapError(errors.ParseFailure, fmt.Sprintf("cannot parse plan file %s", path), err)
	}
	return &p, nil
}
