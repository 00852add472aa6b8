// Package models defines the plain records that flow through nextup.
//
// Provider-facing records:
//   - [RawCandidate] : an unscored search hit, fields possibly empty
//   - [StreamInfo] : a resolved stream, also the payload stored in the resolution cache
//
// Pipeline output:
//   - [Candidate] : a validated hit with its heuristic score
//   - [StreamResult] : [StreamInfo] plus whether it came from cache and how long resolution took
//
// Profile records persisted by the repositories package:
//   - [HistoryEntry] : one play, used for queue exclusion and the "jump back in" shelf
//   - [Onboarding] : first-launch preferences, used for the "made for you" shelf
//
// Records carry no behavior beyond validation and small conversions; scoring and ranking live in package ranking.
package models
