// Package session maintains one in-memory history store per active user and
// keeps it reconciled with the habit log table and the snapshot cache.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/habitosecreto/habito-api/internal/database"
	"github.com/habitosecreto/habito-api/internal/history"
	"github.com/habitosecreto/habito-api/internal/models"
	"github.com/habitosecreto/habito-api/internal/snapshotcache"
)

// State is a read-only view of a user's history session, safe to hand to
// handlers while the live store keeps changing.
type State struct {
	Today     history.NormalizedDate
	Window    []history.Entry
	Streak    int
	DoneToday bool
}

type entry struct {
	mu    sync.Mutex
	store *history.Store

	// hydrated is set only after a log replay succeeds for the store's
	// current date. A store seeded by NewStore or a snapshot restore is not
	// hydrated, so a failed replay is retried on the next call instead of
	// the unreconciled store being served all day.
	hydrated bool
	// restored marks that the store state came from a cached snapshot whose
	// window ends today, making it safe to serve for reads while the log
	// table is unavailable.
	restored bool
}

// Manager owns the per-user stores. All mutation of a store happens under its
// entry lock; handlers only ever see State copies.
type Manager struct {
	logs   database.HabitLogRepositoryInterface
	cache  snapshotcache.Cache
	logger *zap.Logger

	mu      sync.Mutex
	entries map[uuid.UUID]*entry

	now func() time.Time
}

// NewManager creates a session manager. cache may be nil, in which case
// snapshots are skipped and every hydration replays the log table.
func NewManager(logs database.HabitLogRepositoryInterface, cache snapshotcache.Cache, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		logs:    logs,
		cache:   cache,
		logger:  logger,
		entries: make(map[uuid.UUID]*entry),
		now:     time.Now,
	}
}

func (m *Manager) entryFor(userID uuid.UUID) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[userID]
	if !ok {
		e = &entry{}
		m.entries[userID] = e
	}
	return e
}

// State returns the current session state for a user, hydrating and refreshing
// the store as needed. The store refreshes from the log table when first
// loaded and again whenever the calendar date has rolled since the last
// refresh, so a session left open overnight picks up the new window.
func (m *Manager) State(ctx context.Context, userID uuid.UUID) (State, error) {
	e := m.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := m.ensureFresh(ctx, e, userID); err != nil {
		// A same-day snapshot restore may answer reads while the log table
		// is down. The entry stays unhydrated so the replay is retried on
		// the next call, and Complete still refuses to run.
		if e.restored && e.store.Today().Equal(history.Normalize(m.now())) {
			m.logger.Warn("serving snapshot state, log replay failed",
				zap.String("user_id", userID.String()),
				zap.Error(err))
			return stateOf(e.store), nil
		}
		return State{}, err
	}
	return stateOf(e.store), nil
}

// Refresh forces a reload from the log table regardless of store freshness.
func (m *Manager) Refresh(ctx context.Context, userID uuid.UUID) (State, error) {
	e := m.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	now := m.now()
	if e.store == nil {
		e.store = history.NewStore(userID, now)
	}
	if err := m.refreshFromLogs(ctx, e.store, now); err != nil {
		return State{}, err
	}
	e.hydrated = true
	m.saveSnapshot(ctx, e.store)
	return stateOf(e.store), nil
}

// Complete marks today's goal done. The store is updated optimistically, the
// completion row is written to the log table, and the store change is rolled
// back if the write fails. The returned bool is false when today was already
// completed, which is not an error.
func (m *Manager) Complete(ctx context.Context, userID uuid.UUID) (State, bool, error) {
	e := m.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := m.ensureFresh(ctx, e, userID); err != nil {
		return State{}, false, err
	}

	tok, ok := e.store.MarkDone()
	if !ok {
		return stateOf(e.store), false, nil
	}

	log := &models.HabitLog{
		UserID:    userID,
		HabitID:   models.DailyGoalHabitID,
		Date:      e.store.Today().Time(),
		Completed: true,
	}
	if err := m.logs.Append(ctx, log); err != nil {
		e.store.Rollback(tok)
		return State{}, false, fmt.Errorf("failed to record completion: %w", err)
	}
	e.store.Commit(tok)

	m.saveSnapshot(ctx, e.store)
	return stateOf(e.store), true, nil
}

// Invalidate drops a user's session, forcing a full rehydration on next use.
func (m *Manager) Invalidate(userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, userID)
}

// ensureFresh hydrates the store on first use and re-refreshes it when the
// calendar date has rolled. The log table is authoritative: a snapshot
// restore only seeds the store, and the entry counts as fresh only once a
// replay has succeeded for today's date. When the replay fails the error is
// returned and the next call tries again. Caller holds the entry lock.
func (m *Manager) ensureFresh(ctx context.Context, e *entry, userID uuid.UUID) error {
	now := m.now()
	today := history.Normalize(now)

	if e.hydrated && e.store.Today().Equal(today) {
		return nil
	}

	if e.store == nil {
		e.store = history.NewStore(userID, now)
		e.restored = m.restoreSnapshot(ctx, e.store, now)
	}

	if err := m.refreshFromLogs(ctx, e.store, now); err != nil {
		return err
	}
	e.hydrated = true
	m.saveSnapshot(ctx, e.store)
	return nil
}

func (m *Manager) refreshFromLogs(ctx context.Context, store *history.Store, now time.Time) error {
	logs, err := m.logs.ListByUser(ctx, store.UserID())
	if err != nil {
		return fmt.Errorf("failed to load habit logs: %w", err)
	}
	store.Refresh(logs, now)
	return nil
}

// restoreSnapshot seeds the store from the cache. It reports true only when
// a payload was applied and the restored window still ends today, meaning the
// snapshot was saved earlier the same day and can stand in for a read.
func (m *Manager) restoreSnapshot(ctx context.Context, store *history.Store, now time.Time) bool {
	if m.cache == nil {
		return false
	}
	data, err := m.cache.Load(ctx, store.UserID())
	if err != nil {
		m.logger.Warn("snapshot load failed",
			zap.String("user_id", store.UserID().String()),
			zap.Error(err))
		return false
	}
	if len(data) == 0 {
		return false
	}
	store.RestoreSnapshot(data, now)

	window := store.Window()
	return window[len(window)-1].Date.Equal(history.Normalize(now))
}

func (m *Manager) saveSnapshot(ctx context.Context, store *history.Store) {
	if m.cache == nil {
		return
	}
	data, err := store.Snapshot().Marshal()
	if err != nil {
		m.logger.Warn("snapshot marshal failed",
			zap.String("user_id", store.UserID().String()),
			zap.Error(err))
		return
	}
	if err := m.cache.Save(ctx, store.UserID(), data); err != nil {
		m.logger.Warn("snapshot save failed",
			zap.String("user_id", store.UserID().String()),
			zap.Error(err))
	}
}

func stateOf(s *history.Store) State {
	return State{
		Today:     s.Today(),
		Window:    s.Window(),
		Streak:    s.Streak(),
		DoneToday: s.DoneToday(),
	}
}
