package domain

import "time"

// TimelineEntryType captures what happened in a timeline entry.
type TimelineEntryType string

const (
	TimelineCreated        TimelineEntryType = "created"
	TimelineComment        TimelineEntryType = "comment"
	TimelineFirstResponse  TimelineEntryType = "first_response"
	TimelineStatusChange   TimelineEntryType = "status_change"
	TimelineAssignment     TimelineEntryType = "assignment"
	TimelinePriorityChange TimelineEntryType = "priority_change"
)

// TimelineEntry is an immutable audit trail entry.
type TimelineEntry struct {
	Type    TimelineEntryType `json:"type"`
	Message string            `json:"message"`
	By      string            `json:"by"`
	At      time.Time         `json:"at"`
}
