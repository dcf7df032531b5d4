package ratelimit

import "time"

// Policy is the request budget applied to every client.
type Policy struct {
	// Limit is the maximum number of admitted requests per window.
	Limit int

	// Window is the length of one counting window.
	Window time.Duration
}

// Window is the counting state of one client.
// The zero Window means the client has not been seen.
type Window struct {
	// Start is when the current window opened.
	Start time.Time

	// Count is the number of requests admitted since Start.
	Count int
}

// IsZero reports whether the window was never opened.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.Count == 0
}

// Elapsed returns now - Start.
func (w Window) Elapsed(now time.Time) time.Duration {
	return now.Sub(w.Start)
}

// Expired reports whether the window has run its full duration at now.
// Non-positive elapsed time never expires a window.
func (w Window) Expired(now time.Time, d time.Duration) bool {
	elapsed := w.Elapsed(now)
	if elapsed <= 0 {
		return false
	}
	return elapsed >= d
}

// Remaining returns the time left until the window closes, clamped to [0, d].
func (w Window) Remaining(now time.Time, d time.Duration) time.Duration {
	elapsed := w.Elapsed(now)
	if elapsed < 0 {
		elapsed = 0
	}
	left := d - elapsed
	if left < 0 {
		return 0
	}
	return left
}

// ResetAt returns the instant the window closes.
func (w Window) ResetAt(d time.Duration) time.Time {
	return w.Start.Add(d)
}

// Advance applies one request to the window at now under p.
// It returns the window after the request and whether the request was
// admitted. A rejected request leaves the window unchanged.
func (w Window) Advance(now time.Time, p Policy) (Window, bool) {
	if w.IsZero() || w.Expired(now, p.Window) {
		return Window{Start: now, Count: 1}, true
	}
	if w.Count < p.Limit {
		w.Count++
		return w, true
	}
	return w, false
}
