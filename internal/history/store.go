package history

import (
	"time"

	"github.com/google/uuid"
)

// WindowSize is the number of trailing days tracked, ending today.
const WindowSize = 30

// Entry is one day inside the trailing window. Day is the 1-based position
// in the window, not the calendar day of month.
type Entry struct {
	Day       int            `json:"day"`
	Date      NormalizedDate `json:"date"`
	Completed bool           `json:"completed"`
}

// LogRow is a completion record as fetched from the habit log table.
// Multiple rows may exist for one date; any completed row marks the date
// completed.
type LogRow struct {
	UserID    uuid.UUID
	Date      NormalizedDate
	Completed bool
}

// Token identifies a single optimistic mark so it can later be committed or
// rolled back. A token is spent by the first Commit or Rollback; subsequent
// calls with the same token are no-ops.
type Token struct {
	spent         bool
	entryIdx      int
	prevCompleted bool
	prevStreak    int
	prevDone      bool
}

// Store owns the canonical trailing window, streak counter and daily goal
// flag for one user's session. It performs no I/O: fetching log rows and
// writing the completion row are the caller's responsibility, which is why
// MarkDone hands back a Token for the caller to settle once the remote
// write resolves.
type Store struct {
	userID    uuid.UUID
	today     NormalizedDate
	window    [WindowSize]Entry
	streak    int
	doneToday bool
}

// NewStore creates a history store for the given user and builds an empty
// window ending at now's calendar date.
func NewStore(userID uuid.UUID, now time.Time) *Store {
	s := &Store{userID: userID}
	s.rebuildWindow(Normalize(now), nil)
	return s
}

// Refresh rebuilds the window, daily goal flag and streak counter from the
// complete set of log rows for the user. The reference date is computed once
// from now, so every window slot and the done-today check agree even when
// the call spans a midnight boundary. Refresh is idempotent.
func (s *Store) Refresh(logs []LogRow, now time.Time) {
	today := Normalize(now)

	completed := make(map[NormalizedDate]bool, len(logs))
	for _, row := range logs {
		if row.Completed {
			completed[row.Date] = true
		}
	}

	s.rebuildWindow(today, completed)
	s.doneToday = completed[today]
	s.streak = CountCompleted(logs)
}

func (s *Store) rebuildWindow(today NormalizedDate, completed map[NormalizedDate]bool) {
	s.today = today
	for i := 0; i < WindowSize; i++ {
		date := today.AddDays(-(WindowSize - 1 - i))
		s.window[i] = Entry{
			Day:       i + 1,
			Date:      date,
			Completed: completed[date],
		}
	}
}

// MarkDone applies the optimistic same-day completion: daily goal set, the
// window entry for today marked completed, streak incremented. It returns
// false without mutating anything when today is already done or no user
// identity is bound to the store. The returned token must be settled with
// Commit or Rollback once the remote write resolves.
func (s *Store) MarkDone() (*Token, bool) {
	if s.doneToday || s.userID == uuid.Nil {
		return nil, false
	}

	tok := &Token{
		entryIdx:   -1,
		prevStreak: s.streak,
		prevDone:   s.doneToday,
	}

	for i := range s.window {
		if s.window[i].Date.Equal(s.today) {
			tok.entryIdx = i
			tok.prevCompleted = s.window[i].Completed
			s.window[i].Completed = true
			break
		}
	}

	s.doneToday = true
	s.streak++
	return tok, true
}

// Commit finalizes an optimistic mark. The optimistic values are already
// correct, so this only spends the token.
func (s *Store) Commit(tok *Token) {
	if tok == nil || tok.spent {
		return
	}
	tok.spent = true
}

// Rollback reverses exactly the mutation recorded by the matching MarkDone.
// Spent tokens are ignored, so a duplicate rollback cannot double-decrement.
func (s *Store) Rollback(tok *Token) {
	if tok == nil || tok.spent {
		return
	}
	tok.spent = true

	s.doneToday = tok.prevDone
	s.streak = tok.prevStreak
	if tok.entryIdx >= 0 && tok.entryIdx < WindowSize {
		s.window[tok.entryIdx].Completed = tok.prevCompleted
	}
}

// UserID returns the user the store belongs to.
func (s *Store) UserID() uuid.UUID {
	return s.userID
}

// Today returns the reference date captured by the last Refresh.
func (s *Store) Today() NormalizedDate {
	return s.today
}

// Window returns a copy of the 30-day trailing window.
func (s *Store) Window() []Entry {
	out := make([]Entry, WindowSize)
	copy(out, s.window[:])
	return out
}

// Streak returns the lifetime completed-day count.
func (s *Store) Streak() int {
	return s.streak
}

// DoneToday reports whether today's goal is already completed.
func (s *Store) DoneToday() bool {
	return s.doneToday
}
