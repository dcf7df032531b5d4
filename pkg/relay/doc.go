// Package relay copies a streamed upstream completion to a downstream sink.
//
// A Relay runs a producer goroutine that reads chunks from a Source into a
// bounded channel while the calling goroutine writes them to a Sink. When
// the channel is full the producer blocks, so a slow client slows the
// upstream read instead of growing memory.
//
// # Guarantees
//
//   - Chunks reach the sink in source order, without duplicates, with
//     indexes re-stamped from 0.
//   - A cleanly completed stream ends with the final chunk and exactly one
//     Sink.End call.
//   - A stream that fails after N chunks delivers those N chunks followed
//     by exactly one Sink.Fail call. End is never called after Fail.
//   - When the context is canceled or the sink returns an error, the
//     producer is stopped and the source is closed. The sink receives no
//     further calls.
//
// # Usage
//
//	r := relay.New(stream, relay.Options{BufferSize: 8})
//	summary, err := r.Run(ctx, sink)
package relay
