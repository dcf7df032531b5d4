// Package tokens estimates token counts for completion requests.
//
// The gateway reports the upstream's own usage whenever it is available.
// Streams from upstreams that do not send a usage trailer end without a
// count, and the dispatcher then estimates prompt and completion tokens
// with an Estimator.
//
// Two estimators exist:
//
//   - SimpleEstimator divides the byte length by a characters-per-token
//     ratio configured per model prefix (tokens.models), 4.0 by default.
//   - TiktokenEstimator encodes with the model's BPE vocabulary via
//     tiktoken-go and falls back to the simple estimator when no
//     vocabulary can be loaded.
//
// # Usage
//
//	estimator := tokens.New(&cfg.Tokens)
//	n, err := estimator.EstimateText("Hello, world!", "gpt-4")
package tokens
