// Package ratelimit implements per-client fixed-window request admission.
//
// # Overview
//
// Every client identity owns one Window: the instant the window opened and
// the number of requests admitted inside it. A check against a Policy
// (limit per window duration) either admits the request, possibly opening a
// fresh window, or rejects it with the time left until the window closes:
//
//	limiter := ratelimit.NewFixedWindow(store, ratelimit.Config{
//	    Limit:  60,
//	    Window: time.Minute,
//	})
//	decision, err := limiter.Check(ctx, "203.0.113.7")
//	if err != nil {
//	    // store failure
//	}
//	if !decision.Allowed {
//	    // reject, retry after decision.RetryAfter
//	}
//
// # Window Semantics
//
// A window expires once now - Start >= Window. An elapsed time that is zero
// or negative, as seen after a backwards clock step, never expires a window,
// so clock skew cannot reset or decrement a client's count.
//
// # Stores
//
// The read-check-increment of a window is performed by a Store as one
// indivisible step. The storage package provides a sharded in-memory store
// and a Redis store for deployments with several gateway replicas.
//
// # Time
//
// All timestamps come from a Clock. Production code uses SystemClock; tests
// drive a ManualClock to cross window boundaries without sleeping.
package ratelimit
