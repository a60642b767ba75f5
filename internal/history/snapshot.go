package history

import (
	"encoding/json"
	"time"
)

// Snapshot is the serializable session state cached in the snapshot store.
// It is a display fast path only; a Refresh from the log table always
// overwrites whatever a snapshot restored.
type Snapshot struct {
	Window    []Entry   `json:"window"`
	Streak    int       `json:"streak"`
	DoneToday bool      `json:"done_today"`
	SavedAt   time.Time `json:"saved_at"`
}

// Snapshot captures the store's current state.
func (s *Store) Snapshot() *Snapshot {
	return &Snapshot{
		Window:    s.Window(),
		Streak:    s.streak,
		DoneToday: s.doneToday,
		SavedAt:   time.Now().UTC(),
	}
}

// Marshal encodes the snapshot for the cache.
func (s *Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// rawSnapshot defers per-field decoding so one malformed field cannot sink
// the whole restore.
type rawSnapshot struct {
	Window    json.RawMessage `json:"window"`
	Streak    json.RawMessage `json:"streak"`
	DoneToday json.RawMessage `json:"done_today"`
}

// RestoreSnapshot hydrates the store from a cached snapshot. Each field is
// decoded independently; absent or malformed fields keep the safe defaults
// an empty Refresh would produce (empty window, zero streak, goal open).
// Restoring never fails: a fully corrupt payload just leaves the store in
// its empty state for the given reference time.
func (s *Store) RestoreSnapshot(data []byte, now time.Time) {
	today := Normalize(now)
	s.rebuildWindow(today, nil)
	s.streak = 0
	s.doneToday = false

	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return
	}

	if len(raw.Window) > 0 {
		var window []Entry
		if err := json.Unmarshal(raw.Window, &window); err == nil && len(window) == WindowSize {
			copy(s.window[:], window)
		}
	}

	if len(raw.Streak) > 0 {
		var streak int
		if err := json.Unmarshal(raw.Streak, &streak); err == nil && streak >= 0 {
			s.streak = streak
		}
	}

	if len(raw.DoneToday) > 0 {
		var done bool
		if err := json.Unmarshal(raw.DoneToday, &done); err == nil {
			s.doneToday = done
		}
	}
}
