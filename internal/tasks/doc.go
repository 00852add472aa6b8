// Package tasks implements the request-level pipelines built on the ranking, cache and provider packages.
//
// # Pipelines
//
//  1. [SearchPipeline.Search] : free-text query to ranked, unique candidates
//     - Fetches max(window, limit × oversample) raw hits
//     - Scores, drops hits below the threshold, stable-sorts by score
//     - Removes near-duplicates and truncates to limit
//
//  2. [QueueGenerator.Generate] : seed track to an "up next" sequence
//     - Queries "{artist} {title} official radio" and walks hits in provider order
//     - Skips history, repeated ids and artists at the per-queue cap
//     - [QueueGenerator.GenerateForUser] reads history and blocked tracks from the profile store
//
//  3. [StreamResolver.Resolve] : catalog id to a playable stream via the resolution cache
//     - Annotates results with cached and the whole call's latency
//
//  4. [HomeBuilder.Build] : "jump back in", "made for you" and "trending" shelves
//
// # Prefetching
//
// [Prefetcher] warms the resolution cache for the head of a queue with a rate-limited worker pool.
// [Prefetcher.Warm] reports through a [ProgressUpdate] channel; sends never block.
package tasks
