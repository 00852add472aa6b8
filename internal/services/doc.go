// Package services defines the content provider interfaces and implements them for several catalog backends.
//
// # Provider Interface
//
// A [Provider] is a [Searcher] (raw, unscored hits for a free-text query) plus a [StreamSource]
// (catalog id to direct audio URL). Backends may implement either half; [Compose] pairs them and
// [NewProvider] builds the pair selected in configuration.
//
// # Backends
//
//   - [YtdlpService]: shells out to yt-dlp via go-ytdlp. Searches with ytsearchN: and resolves bestaudio.
//   - [YTMusicService]: YouTube Music song search (search only).
//   - [YTSearchService]: YouTube web result scraping (search only).
//   - [ProxyService]: an HTTP catalog proxy exposing /api/search and /api/stream/{id}.
//
// # Guard
//
// [Guard] wraps any provider with a per-call timeout, a token bucket shared by all callers and
// call-duration metrics. Deadlines surface as [shared.ErrTimeout].
//
// # Error Handling
//
// Backends translate their failures into the shared error kinds:
//   - [shared.ErrNotFound] : the id is unknown, private, removed or has no audio format
//   - [shared.ErrTimeout] : the call exceeded its deadline
//   - [shared.ErrProviderUnavailable] : anything else (network, exit status, bad payload)
//
// [NormalizeVideoID] accepts opaque ids as well as youtu.be, /watch?v=, /embed/, /v/ and /shorts/ URLs.
// The yt-dlp backend additionally requires [ValidateVideoID] before an id reaches its command line.
package services
