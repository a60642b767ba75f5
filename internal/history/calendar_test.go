package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestDaysInMonth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		month time.Month
		year  int
		want  int
	}{
		{time.January, 2024, 31},
		{time.February, 2024, 29}, // leap year
		{time.February, 2023, 28},
		{time.February, 2000, 29}, // divisible by 400
		{time.February, 1900, 28}, // divisible by 100 but not 400
		{time.April, 2024, 30},
		{time.December, 2024, 31},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s-%d", tt.month, tt.year), func(t *testing.T) {
			t.Parallel()
			if got := DaysInMonth(tt.month, tt.year); got != tt.want {
				t.Errorf("DaysInMonth(%s, %d) = %d, want %d", tt.month, tt.year, got, tt.want)
			}
		})
	}
}

func TestBuildGrid_Length(t *testing.T) {
	t.Parallel()

	tests := []struct {
		month time.Month
		year  int
	}{
		{time.March, 2024},
		{time.February, 2024},
		{time.February, 2023},
		{time.September, 2024}, // starts on a Sunday, offset 0
		{time.June, 2024},      // starts on a Saturday, offset 6
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s-%d", tt.month, tt.year), func(t *testing.T) {
			t.Parallel()

			grid := BuildGrid(tt.month, tt.year)
			offset := FirstWeekdayOffset(tt.month, tt.year)
			days := DaysInMonth(tt.month, tt.year)

			if len(grid) != offset+days {
				t.Errorf("grid length = %d, want offset %d + days %d", len(grid), offset, days)
			}
			for i := 0; i < offset; i++ {
				if grid[i] != 0 {
					t.Errorf("slot %d: expected placeholder, got %d", i, grid[i])
				}
			}
			for i := 0; i < days; i++ {
				if grid[offset+i] != i+1 {
					t.Errorf("slot %d: expected day %d, got %d", offset+i, i+1, grid[offset+i])
				}
			}
		})
	}
}

func TestBuildGrid_Pure(t *testing.T) {
	t.Parallel()

	a := BuildGrid(time.March, 2024)
	b := BuildGrid(time.March, 2024)
	if len(a) != len(b) {
		t.Fatalf("repeated calls differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("slot %d differs between identical calls: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	today := Date(2024, time.March, 20)

	window := []Entry{
		{Day: 1, Date: Date(2024, time.March, 10), Completed: true},
		{Day: 2, Date: Date(2024, time.March, 19), Completed: false},
		{Day: 3, Date: today, Completed: false},
	}

	tests := []struct {
		name  string
		day   int
		month time.Month
		year  int
		want  CellStatus
	}{
		{name: "completed past day", day: 10, month: time.March, year: 2024, want: StatusCompleted},
		{name: "uncompleted record in the past", day: 19, month: time.March, year: 2024, want: StatusLost},
		{name: "past day with no record", day: 15, month: time.March, year: 2024, want: StatusLost},
		{name: "today pending", day: 20, month: time.March, year: 2024, want: StatusTodayPending},
		{name: "future day", day: 25, month: time.March, year: 2024, want: StatusFuture},
		{name: "previous month is lost", day: 28, month: time.February, year: 2024, want: StatusLost},
		{name: "next month is future", day: 1, month: time.April, year: 2024, want: StatusFuture},
		{name: "previous year is lost", day: 20, month: time.March, year: 2023, want: StatusLost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tt.day, tt.month, tt.year, window, today); got != tt.want {
				t.Errorf("Classify(%d, %s, %d) = %s, want %s", tt.day, tt.month, tt.year, got, tt.want)
			}
		})
	}
}

func TestClassify_CompletedWinsOverToday(t *testing.T) {
	t.Parallel()

	today := Date(2024, time.March, 20)
	window := []Entry{{Day: 30, Date: today, Completed: true}}

	if got := Classify(20, time.March, 2024, window, today); got != StatusCompleted {
		t.Errorf("completed record for today must classify completed, got %s", got)
	}
}

func TestClassify_ExactlyOneStatus(t *testing.T) {
	t.Parallel()

	// Every day of a month spanning past, today and future must classify
	// to exactly one of the defined statuses.
	today := Date(2024, time.March, 20)
	s := NewStore(uuid.New(), today.Time())
	s.Refresh([]LogRow{{UserID: s.UserID(), Date: Date(2024, time.March, 12), Completed: true}}, today.Time())

	valid := map[CellStatus]bool{
		StatusCompleted:    true,
		StatusTodayPending: true,
		StatusLost:         true,
		StatusFuture:       true,
		StatusPending:      true,
	}

	for day := 1; day <= DaysInMonth(time.March, 2024); day++ {
		got := Classify(day, time.March, 2024, s.Window(), today)
		if !valid[got] {
			t.Errorf("day %d: undefined status %q", day, got)
		}
	}
}

func TestProjectMonth(t *testing.T) {
	t.Parallel()

	today := Date(2024, time.March, 20)
	window := []Entry{{Day: 1, Date: Date(2024, time.March, 12), Completed: true}}

	cells := ProjectMonth(time.March, 2024, window, today)
	offset := FirstWeekdayOffset(time.March, 2024)

	if len(cells) != offset+31 {
		t.Fatalf("cell count = %d, want %d", len(cells), offset+31)
	}
	for i := 0; i < offset; i++ {
		if cells[i].Day != 0 || cells[i].Status != "" {
			t.Errorf("slot %d: placeholder carries data: %+v", i, cells[i])
		}
	}
	if got := cells[offset+11].Status; got != StatusCompleted {
		t.Errorf("March 12 status = %s, want %s", got, StatusCompleted)
	}
	if got := cells[offset+19].Status; got != StatusTodayPending {
		t.Errorf("March 20 status = %s, want %s", got, StatusTodayPending)
	}
}
