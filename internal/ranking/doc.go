// Package ranking turns noisy catalog hits into music-only candidates.
//
// # Scoring
//
// [Score] is a pure additive heuristic over title, duration and channel. Block-list terms (reactions,
// trailers, covers, slowed/reverb edits and so on) cost 50 each, quality terms add 10, song-length
// durations add 10 and auto-generated or label channels add 5. The numbers only matter relative to the
// search threshold (-10 by default), which drops anything with a single block-list hit unless it has
// several positive signals too.
//
// # Deduplication
//
// [Dedupe] collapses re-uploads of the same track: durations within a small window (10s) and titles that
// agree after [NormalizeTitle]. It is order-preserving and first-occurrence-wins, so callers sort first.
package ranking
