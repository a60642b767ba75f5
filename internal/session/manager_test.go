package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/habitosecreto/habito-api/internal/history"
	"github.com/habitosecreto/habito-api/internal/models"
)

var testNow = time.Date(2024, time.March, 20, 15, 4, 5, 0, time.UTC)

type mockLogRepo struct {
	mu        sync.Mutex
	rows      []history.LogRow
	appended  []*models.HabitLog
	listErr   error
	appendErr error
	listCalls int
}

func (m *mockLogRepo) Append(_ context.Context, log *models.HabitLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.appended = append(m.appended, log)
	m.rows = append(m.rows, history.LogRow{
		UserID:    log.UserID,
		Date:      history.Normalize(log.Date),
		Completed: log.Completed,
	})
	return nil
}

func (m *mockLogRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]history.LogRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]history.LogRow, 0, len(m.rows))
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

type memCache struct {
	mu   sync.Mutex
	data map[uuid.UUID][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[uuid.UUID][]byte)}
}

func (c *memCache) Load(_ context.Context, userID uuid.UUID) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[userID], nil
}

func (c *memCache) Save(_ context.Context, userID uuid.UUID, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[userID] = data
	return nil
}

func (c *memCache) Delete(_ context.Context, userID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, userID)
	return nil
}

func newTestManager(repo *mockLogRepo, cache *memCache) *Manager {
	m := NewManager(repo, nil, nil)
	if cache != nil {
		m.cache = cache
	}
	m.now = func() time.Time { return testNow }
	return m
}

func TestState_HydratesFromLogs(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	today := history.Normalize(testNow)
	repo := &mockLogRepo{rows: []history.LogRow{
		{UserID: userID, Date: today.AddDays(-1), Completed: true},
		{UserID: userID, Date: today.AddDays(-2), Completed: true},
	}}
	m := newTestManager(repo, nil)

	state, err := m.State(context.Background(), userID)
	if err != nil {
		t.Fatalf("State() error: %v", err)
	}

	if state.Streak != 2 {
		t.Errorf("Streak = %d, want 2", state.Streak)
	}
	if state.DoneToday {
		t.Error("DoneToday = true, want false")
	}
	if len(state.Window) != history.WindowSize {
		t.Fatalf("window length = %d, want %d", len(state.Window), history.WindowSize)
	}
	if !state.Window[history.WindowSize-1].Date.Equal(today) {
		t.Errorf("last window entry = %v, want today %v", state.Window[history.WindowSize-1].Date, today)
	}
	if !state.Window[history.WindowSize-2].Completed {
		t.Error("yesterday should be completed in the window")
	}
}

func TestState_ReusesStoreSameDay(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := &mockLogRepo{}
	m := newTestManager(repo, nil)

	if _, err := m.State(context.Background(), userID); err != nil {
		t.Fatalf("State() error: %v", err)
	}
	if _, err := m.State(context.Background(), userID); err != nil {
		t.Fatalf("State() error: %v", err)
	}

	if repo.listCalls != 1 {
		t.Errorf("expected a single log fetch for same-day reuse, got %d", repo.listCalls)
	}
}

func TestState_RefreshesWhenDateRolls(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := &mockLogRepo{}
	m := newTestManager(repo, nil)

	first, err := m.State(context.Background(), userID)
	if err != nil {
		t.Fatalf("State() error: %v", err)
	}

	m.now = func() time.Time { return testNow.Add(24 * time.Hour) }
	second, err := m.State(context.Background(), userID)
	if err != nil {
		t.Fatalf("State() error: %v", err)
	}

	if second.Today.Equal(first.Today) {
		t.Error("expected window to roll to the new date")
	}
	if repo.listCalls != 2 {
		t.Errorf("expected a second log fetch after the date rolled, got %d", repo.listCalls)
	}
}

func TestComplete_AppendsAndCommits(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := &mockLogRepo{}
	cache := newMemCache()
	m := newTestManager(repo, cache)

	state, completed, err := m.Complete(context.Background(), userID)
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if !completed {
		t.Fatal("expected completion to apply")
	}
	if !state.DoneToday {
		t.Error("DoneToday = false after completion")
	}
	if state.Streak != 1 {
		t.Errorf("Streak = %d, want 1", state.Streak)
	}

	if len(repo.appended) != 1 {
		t.Fatalf("expected 1 appended log, got %d", len(repo.appended))
	}
	log := repo.appended[0]
	if log.HabitID != models.DailyGoalHabitID {
		t.Errorf("HabitID = %q, want %q", log.HabitID, models.DailyGoalHabitID)
	}
	if !history.Normalize(log.Date).Equal(history.Normalize(testNow)) {
		t.Errorf("log date = %v, want today", log.Date)
	}
	if !log.Completed {
		t.Error("appended log not marked completed")
	}

	if len(cache.data[userID]) == 0 {
		t.Error("expected snapshot saved after completion")
	}
}

func TestComplete_AlreadyDoneIsNoop(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := &mockLogRepo{}
	m := newTestManager(repo, nil)

	if _, completed, err := m.Complete(context.Background(), userID); err != nil || !completed {
		t.Fatalf("first Complete() = (%v, %v)", completed, err)
	}

	state, completed, err := m.Complete(context.Background(), userID)
	if err != nil {
		t.Fatalf("second Complete() error: %v", err)
	}
	if completed {
		t.Error("expected second completion to be rejected")
	}
	if state.Streak != 1 {
		t.Errorf("Streak = %d, want 1 after duplicate completion", state.Streak)
	}
	if len(repo.appended) != 1 {
		t.Errorf("expected no second log row, got %d rows", len(repo.appended))
	}
}

func TestComplete_RollsBackOnAppendError(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := &mockLogRepo{appendErr: errors.New("connection refused")}
	m := newTestManager(repo, nil)

	if _, _, err := m.Complete(context.Background(), userID); err == nil {
		t.Fatal("expected error from failed append")
	}

	// The optimistic mark must have been reverted.
	repo.appendErr = nil
	state, err := m.State(context.Background(), userID)
	if err != nil {
		t.Fatalf("State() error: %v", err)
	}
	if state.DoneToday {
		t.Error("DoneToday should be false after rollback")
	}
	if state.Streak != 0 {
		t.Errorf("Streak = %d, want 0 after rollback", state.Streak)
	}

	// And a later retry still works.
	_, completed, err := m.Complete(context.Background(), userID)
	if err != nil {
		t.Fatalf("retry Complete() error: %v", err)
	}
	if !completed {
		t.Error("expected retry completion to apply")
	}
}

func TestState_RetriesAfterFailedHydration(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	today := history.Normalize(testNow)
	repo := &mockLogRepo{
		rows:    []history.LogRow{{UserID: userID, Date: today, Completed: true}},
		listErr: errors.New("connection refused"),
	}
	m := newTestManager(repo, nil)

	if _, err := m.State(context.Background(), userID); err == nil {
		t.Fatal("expected error while the log table is down")
	}

	// The failed replay must not leave a store that passes for fresh.
	repo.mu.Lock()
	repo.listErr = nil
	repo.mu.Unlock()

	state, err := m.State(context.Background(), userID)
	if err != nil {
		t.Fatalf("State() after recovery: %v", err)
	}
	if repo.listCalls != 2 {
		t.Errorf("expected a replay retry, got %d list calls", repo.listCalls)
	}
	if !state.DoneToday {
		t.Error("DoneToday = false, want true from the replayed row")
	}
	if state.Streak != 1 {
		t.Errorf("Streak = %d, want 1", state.Streak)
	}
}

func TestComplete_RefusesUnreconciledStore(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	today := history.Normalize(testNow)
	repo := &mockLogRepo{
		rows:    []history.LogRow{{UserID: userID, Date: today, Completed: true}},
		listErr: errors.New("connection refused"),
	}
	m := newTestManager(repo, nil)

	// Surface the outage to the user first, so the store exists but is not
	// reconciled with the log table.
	if _, err := m.State(context.Background(), userID); err == nil {
		t.Fatal("expected error while the log table is down")
	}

	if _, _, err := m.Complete(context.Background(), userID); err == nil {
		t.Fatal("expected Complete to refuse an unreconciled store")
	}
	if len(repo.appended) != 0 {
		t.Fatalf("expected no log row from a refused completion, got %d", len(repo.appended))
	}

	// After recovery the replay reveals today is already done, so the
	// duplicate guard holds and no second row is written.
	repo.mu.Lock()
	repo.listErr = nil
	repo.mu.Unlock()

	state, completed, err := m.Complete(context.Background(), userID)
	if err != nil {
		t.Fatalf("Complete() after recovery: %v", err)
	}
	if completed {
		t.Error("expected completion to be rejected for an already-done day")
	}
	if state.Streak != 1 {
		t.Errorf("Streak = %d, want 1 with no duplicate row", state.Streak)
	}
	if len(repo.appended) != 0 {
		t.Errorf("expected no appended rows, got %d", len(repo.appended))
	}
}

func snapshotBytes(t *testing.T, userID uuid.UUID, rows []history.LogRow, savedAt time.Time) []byte {
	t.Helper()
	store := history.NewStore(userID, savedAt)
	store.Refresh(rows, savedAt)
	data, err := store.Snapshot().Marshal()
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	return data
}

func TestState_ServesSameDaySnapshotWhenReplayFails(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	today := history.Normalize(testNow)
	rows := []history.LogRow{{UserID: userID, Date: today, Completed: true}}

	cache := newMemCache()
	cache.data[userID] = snapshotBytes(t, userID, rows, testNow)

	repo := &mockLogRepo{rows: rows, listErr: errors.New("connection refused")}
	m := newTestManager(repo, cache)

	state, err := m.State(context.Background(), userID)
	if err != nil {
		t.Fatalf("State() with same-day snapshot: %v", err)
	}
	if !state.DoneToday || state.Streak != 1 {
		t.Errorf("snapshot state = (done=%v, streak=%d), want (true, 1)", state.DoneToday, state.Streak)
	}

	// The fallback is read-only: completion still requires a reconciled store.
	if _, _, err := m.Complete(context.Background(), userID); err == nil {
		t.Fatal("expected Complete to refuse the snapshot-only store")
	}
	if len(repo.appended) != 0 {
		t.Errorf("expected no appended rows, got %d", len(repo.appended))
	}

	// Once the table recovers, the replay takes over again.
	repo.mu.Lock()
	repo.listErr = nil
	repo.mu.Unlock()
	if _, err := m.State(context.Background(), userID); err != nil {
		t.Fatalf("State() after recovery: %v", err)
	}
	if repo.listCalls != 3 {
		t.Errorf("expected a replay attempt per call, got %d", repo.listCalls)
	}
}

func TestState_IgnoresStaleSnapshotWhenReplayFails(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	yesterday := testNow.Add(-24 * time.Hour)
	rows := []history.LogRow{{UserID: userID, Date: history.Normalize(yesterday), Completed: true}}

	cache := newMemCache()
	cache.data[userID] = snapshotBytes(t, userID, rows, yesterday)

	repo := &mockLogRepo{rows: rows, listErr: errors.New("connection refused")}
	m := newTestManager(repo, cache)

	// A snapshot saved on a previous day must not answer for today.
	if _, err := m.State(context.Background(), userID); err == nil {
		t.Fatal("expected error, stale snapshot must not be served")
	}
}

func TestInvalidate_ForcesRehydration(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := &mockLogRepo{}
	m := newTestManager(repo, nil)

	if _, err := m.State(context.Background(), userID); err != nil {
		t.Fatalf("State() error: %v", err)
	}
	m.Invalidate(userID)
	if _, err := m.State(context.Background(), userID); err != nil {
		t.Fatalf("State() error: %v", err)
	}

	if repo.listCalls != 2 {
		t.Errorf("expected rehydration after invalidate, got %d list calls", repo.listCalls)
	}
}
