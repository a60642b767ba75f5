package history

import "time"

// CellStatus classifies one rendered calendar day.
type CellStatus string

const (
	// StatusCompleted marks a date with a completed record.
	StatusCompleted CellStatus = "completed"
	// StatusTodayPending marks today when the daily goal is still open.
	StatusTodayPending CellStatus = "today_pending"
	// StatusLost marks a past date with no completed record.
	StatusLost CellStatus = "lost"
	// StatusFuture marks a date after today.
	StatusFuture CellStatus = "future"
	// StatusPending is the residual fallback. The four rules above are
	// exhaustive over past/present/future, so it should be unreachable,
	// but classification must never error out.
	StatusPending CellStatus = "pending"
)

// Cell is one renderable slot of a month grid. Day 0 marks a leading
// placeholder before the 1st of the month; placeholders carry no status.
type Cell struct {
	Day    int        `json:"day"`
	Status CellStatus `json:"status,omitempty"`
}

// DaysInMonth returns the number of days in the given month, using calendar
// arithmetic (day zero of the following month) so leap years fall out of
// time.Date rather than a table.
func DaysInMonth(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekdayOffset returns the weekday index of day 1 of the month, with
// Sunday as 0. It equals the number of leading placeholders in the grid.
func FirstWeekdayOffset(month time.Month, year int) int {
	return int(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday())
}

// BuildGrid returns the flat slot sequence for a month: FirstWeekdayOffset
// zeros followed by day numbers 1..DaysInMonth. Trailing padding to a full
// week is a presentation concern and is not added here. The result depends
// only on the arguments.
func BuildGrid(month time.Month, year int) []int {
	offset := FirstWeekdayOffset(month, year)
	days := DaysInMonth(month, year)

	grid := make([]int, 0, offset+days)
	for i := 0; i < offset; i++ {
		grid = append(grid, 0)
	}
	for d := 1; d <= days; d++ {
		grid = append(grid, d)
	}
	return grid
}

// Classify resolves the status of one calendar day against the completion
// window and a caller-supplied today. Rules apply in priority order, first
// match wins:
//
//  1. a completed record exists for the date
//  2. the date is today
//  3. the date is in the past
//  4. the date is in the future
//  5. residual fallback
//
// Lookup is by normalized (year, month, day) equality only.
func Classify(day int, month time.Month, year int, window []Entry, today NormalizedDate) CellStatus {
	date := Date(year, month, day)

	for _, e := range window {
		if e.Completed && e.Date.Equal(date) {
			return StatusCompleted
		}
	}

	switch {
	case date.Equal(today):
		return StatusTodayPending
	case date.Before(today):
		return StatusLost
	case date.After(today):
		return StatusFuture
	}
	return StatusPending
}

// ProjectMonth builds the classified cell sequence for a displayed month.
// Placeholder slots come through as Day 0 with no status.
func ProjectMonth(month time.Month, year int, window []Entry, today NormalizedDate) []Cell {
	grid := BuildGrid(month, year)
	cells := make([]Cell, len(grid))
	for i, day := range grid {
		if day == 0 {
			cells[i] = Cell{}
			continue
		}
		cells[i] = Cell{Day: day, Status: Classify(day, month, year, window, today)}
	}
	return cells
}
