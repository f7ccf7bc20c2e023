package models

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JournalEvent is published when an entry or account changes.
type JournalEvent struct {
	Event     string      `json:"event"`
	UserID    string      `json:"userId"`
	JournalID string      `json:"journalId,omitempty"`
	Type      JournalType `json:"type,omitempty"`
	At        int64       `json:"at"`
}

// Event names carried by JournalEvent.
const (
	EventJournalCreated = "journal.created"
	EventJournalUpdated = "journal.updated"
	EventJournalDeleted = "journal.deleted"
	EventUserDeleted    = "user.deleted"
)
