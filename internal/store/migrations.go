package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per engine start
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			end_reason TEXT NOT NULL DEFAULT ''
		)`,

		// Spells table - every record shown during a session
		`CREATE TABLE IF NOT EXISTS spells (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			description TEXT NOT NULL,
			energy_level TEXT NOT NULL,
			color_hex TEXT NOT NULL CHECK(length(color_hex) = 7),
			fallback INTEGER NOT NULL DEFAULT 0,
			hold_seconds REAL NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_spells_session_id ON spells(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_spells_created_at ON spells(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
