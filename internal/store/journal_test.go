package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/exoform/internal/spell"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess, err := repo.Begin()
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)

	got, err := repo.Get(sess.ID)
	require.NoError(t, err)
	assert.Nil(t, got.EndedAt)

	require.NoError(t, repo.End(sess.ID, "stopped"))
	got, err = repo.Get(sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EndedAt)
	assert.Equal(t, "stopped", got.EndReason)

	// Ending twice keeps the first reason.
	require.NoError(t, repo.End(sess.ID, "again"))
	got, err = repo.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "stopped", got.EndReason)
}

func TestSessionRepository_NotFound(t *testing.T) {
	repo := newTestStore(t).Sessions()

	_, err := repo.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.End("missing", "x"), ErrNotFound)
}

func TestSessionRepository_List(t *testing.T) {
	repo := newTestStore(t).Sessions()

	for i := 0; i < 3; i++ {
		_, err := repo.Begin()
		require.NoError(t, err)
	}

	sessions, err := repo.List()
	require.NoError(t, err)
	assert.Len(t, sessions, 3)
}

func TestSpellRepository_Append(t *testing.T) {
	s := newTestStore(t)
	sess, err := s.Sessions().Begin()
	require.NoError(t, err)

	rec := spell.Record{
		Name:        "Aegis Lattice",
		Type:        "Defensive",
		Description: "A shimmering wall.",
		EnergyLevel: "8",
		ColorHex:    "#33CCFF",
	}
	entry, err := s.Spells().Append(sess.ID, rec, 3.0)
	require.NoError(t, err)
	assert.False(t, entry.Fallback)

	got, err := s.Spells().Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got.Record)
	assert.Equal(t, sess.ID, got.SessionID)
	assert.InDelta(t, 3.0, got.HoldSeconds, 1e-9)

	fb, err := s.Spells().Append(sess.ID, spell.Fallback(), 3.0)
	require.NoError(t, err)
	got, err = s.Spells().Get(fb.ID)
	require.NoError(t, err)
	assert.True(t, got.Fallback)

	n, err := s.Spells().Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSpellRepository_Get_NotFound(t *testing.T) {
	_, err := newTestStore(t).Spells().Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSpellRepository_RequiresSession(t *testing.T) {
	_, err := newTestStore(t).Spells().Append("no-such-session", spell.Fallback(), 3.0)
	assert.Error(t, err)
}

func TestSpellRepository_List(t *testing.T) {
	s := newTestStore(t)
	first, err := s.Sessions().Begin()
	require.NoError(t, err)
	second, err := s.Sessions().Begin()
	require.NoError(t, err)

	names := []string{"One", "Two", "Three"}
	for _, name := range names {
		rec := spell.Fallback()
		rec.Name = name
		_, err := s.Spells().Append(first.ID, rec, 3.0)
		require.NoError(t, err)
	}
	_, err = s.Spells().Append(second.ID, spell.Fallback(), 3.1)
	require.NoError(t, err)

	all, err := s.Spells().List(0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	limited, err := s.Spells().List(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	bySession, err := s.Spells().ListBySession(first.ID)
	require.NoError(t, err)
	require.Len(t, bySession, 3)
	for i, e := range bySession {
		assert.Equal(t, names[i], e.Record.Name)
	}
}

func TestSpellRepository_CascadeOnSessionDelete(t *testing.T) {
	s := newTestStore(t)
	sess, err := s.Sessions().Begin()
	require.NoError(t, err)
	_, err = s.Spells().Append(sess.ID, spell.Fallback(), 3.0)
	require.NoError(t, err)

	_, err = s.DB().Exec("DELETE FROM sessions WHERE id = ?", sess.ID)
	require.NoError(t, err)

	n, err := s.Spells().Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}
