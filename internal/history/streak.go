package history

// CountCompleted returns the number of completed log rows across the user's
// entire log history, not just the visible window.
//
// This is a cumulative lifetime counter, not a consecutive-day run length,
// even though the product copy calls it a "streak". The counting behavior is
// load-bearing for the 30-day reveal threshold, so it must not be changed to
// a consecutive-run calculation without a product decision.
func CountCompleted(logs []LogRow) int {
	n := 0
	for _, row := range logs {
		if row.Completed {
			n++
		}
	}
	return n
}
