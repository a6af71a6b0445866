package campaign

import "strings"

// Status describes the campaign lifecycle label used by domain decisions.
type Status string

const (
	StatusUnspecified Status = ""
	StatusDraft       Status = "draft"
	StatusScheduled   Status = "scheduled"
	StatusSending     Status = "sending"
	StatusPaused      Status = "paused"
	StatusCompleted   Status = "completed"
	StatusCanceled    Status = "canceled"
	StatusFailed      Status = "failed"
)

// NormalizeStatusLabel canonicalizes a user-supplied status label.
func NormalizeStatusLabel(value string) (Status, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", false
	}
	switch strings.ToUpper(trimmed) {
	case "DRAFT", "CAMPAIGN_STATUS_DRAFT":
		return StatusDraft, true
	case "SCHEDULED", "CAMPAIGN_STATUS_SCHEDULED":
		return StatusScheduled, true
	case "SENDING", "CAMPAIGN_STATUS_SENDING":
		return StatusSending, true
	case "PAUSED", "CAMPAIGN_STATUS_PAUSED":
		return StatusPaused, true
	case "COMPLETED", "CAMPAIGN_STATUS_COMPLETED":
		return StatusCompleted, true
	case "CANCELED", "CAMPAIGN_STATUS_CANCELED":
		return StatusCanceled, true
	case "FAILED", "CAMPAIGN_STATUS_FAILED":
		return StatusFailed, true
	default:
		return "", false
	}
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCanceled, StatusFailed:
		return true
	default:
		return false
	}
}

// IsStatusTransitionAllowed enforces valid campaign lifecycle transitions.
func IsStatusTransitionAllowed(from, to Status) bool {
	switch from {
	case StatusDraft:
		return to == StatusScheduled || to == StatusSending || to == StatusCanceled || to == StatusFailed
	case StatusScheduled:
		return to == StatusScheduled || to == StatusSending || to == StatusCanceled || to == StatusFailed
	case StatusSending:
		return to == StatusPaused || to == StatusCompleted || to == StatusCanceled || to == StatusFailed
	case StatusPaused:
		return to == StatusSending || to == StatusCanceled || to == StatusFailed
	default:
		return false
	}
}
