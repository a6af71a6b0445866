package campaign

import "time"

// State is the replayed state of a campaign aggregate. The zero value is the
// pre-creation state; Fold mutates a copy and returns it, so prior states are
// never aliased.
type State struct {
	// Created reports whether a campaign.created event has been folded.
	Created bool

	Name        string
	Subject     string
	Body        string
	SenderName  string
	SenderEmail string
	ReplyTo     string
	SegmentID   string
	TemplateID  string
	Metadata    map[string]string

	Status Status

	// Lifecycle timestamps. SentAt is set exactly once, on the first
	// sending_started event, and survives pause/resume cycles.
	ScheduledAt *time.Time
	SentAt      *time.Time
	CompletedAt *time.Time

	// FailureReason records why the campaign entered StatusFailed.
	FailureReason string

	// Version counts folded events. After replaying N events it equals N,
	// which matches the version assigned to the last persisted event.
	Version uint64
}

// MetadataCopy returns a defensive copy of the campaign metadata so callers
// cannot mutate replayed state through the returned map.
func (s State) MetadataCopy() map[string]string {
	if len(s.Metadata) == 0 {
		return nil
	}
	out := make(map[string]string, len(s.Metadata))
	for k, v := range s.Metadata {
		out[k] = v
	}
	return out
}
