// Package recorder writes usage records asynchronously.
//
// The dispatcher hands each finished request to Recorder.Record, which only
// enqueues. A single worker drains the queue into a usage.Store with a
// per-write timeout. When the queue is full the record is dropped and a
// warning is logged, so a slow store can never stall request handling.
package recorder
