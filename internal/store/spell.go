package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/exoform/internal/spell"
)

// SpellEntry is one journaled spell record.
type SpellEntry struct {
	ID          string       `json:"id"`
	SessionID   string       `json:"sessionId"`
	Record      spell.Record `json:"record"`
	Fallback    bool         `json:"fallback"`
	HoldSeconds float64      `json:"holdSeconds"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// SpellRepository provides access to the spell journal.
type SpellRepository struct {
	db *sql.DB
}

// Spells returns the spell repository for this store.
func (s *Store) Spells() *SpellRepository {
	return &SpellRepository{db: s.db}
}

// Append journals rec under sessionID.
func (r *SpellRepository) Append(sessionID string, rec spell.Record, holdSeconds float64) (*SpellEntry, error) {
	e := &SpellEntry{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		Record:      rec,
		Fallback:    rec.IsFallback(),
		HoldSeconds: holdSeconds,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := r.db.Exec(
		`INSERT INTO spells (id, session_id, name, type, description, energy_level, color_hex, fallback, hold_seconds, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, rec.Name, rec.Type, rec.Description, rec.EnergyLevel, rec.ColorHex,
		e.Fallback, e.HoldSeconds, e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

const spellColumns = `id, session_id, name, type, description, energy_level, color_hex, fallback, hold_seconds, created_at`

// Get retrieves a journal entry by its ID.
func (r *SpellRepository) Get(id string) (*SpellEntry, error) {
	e, err := scanSpell(r.db.QueryRow(`SELECT `+spellColumns+` FROM spells WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// List returns up to limit entries, newest first. A limit of 0 or less
// returns every entry.
func (r *SpellRepository) List(limit int) ([]*SpellEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	return r.query(`SELECT `+spellColumns+` FROM spells ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
}

// ListBySession returns a session's entries, oldest first.
func (r *SpellRepository) ListBySession(sessionID string) ([]*SpellEntry, error) {
	return r.query(`SELECT `+spellColumns+` FROM spells WHERE session_id = ? ORDER BY created_at, rowid`, sessionID)
}

// Count returns the number of journaled spells.
func (r *SpellRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM spells`).Scan(&n)
	return n, err
}

func (r *SpellRepository) query(q string, args ...any) ([]*SpellEntry, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*SpellEntry
	for rows.Next() {
		e, err := scanSpell(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSpell(row scanner) (*SpellEntry, error) {
	e := &SpellEntry{}
	var fallback int
	err := row.Scan(&e.ID, &e.SessionID, &e.Record.Name, &e.Record.Type, &e.Record.Description,
		&e.Record.EnergyLevel, &e.Record.ColorHex, &fallback, &e.HoldSeconds, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Fallback = fallback != 0
	return e, nil
}
