// Package service executes campaign commands against the event journal. It
// replays the stream, asks the aggregate to decide, and appends accepted
// events under an expected-version check, retrying on concurrency conflicts.
package service
