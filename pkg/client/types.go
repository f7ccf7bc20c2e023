package client

import "time"

// User mirrors the account returned by the API.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Journal mirrors a journal entry returned by the API.
type Journal struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	TypeName  string    `json:"typeName"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Stats holds journal counts.
type Stats struct {
	Total  int64            `json:"total"`
	ByType map[string]int64 `json:"byType"`
}

// NewJournal is the payload for CreateJournal.
type NewJournal struct {
	Title   string   `json:"title,omitempty"`
	Content string   `json:"content"`
	Type    string   `json:"type"`
	Tags    []string `json:"tags,omitempty"`
}

// JournalChanges is the payload for UpdateJournal. Nil fields are left
// untouched.
type JournalChanges struct {
	Title   *string   `json:"title,omitempty"`
	Content *string   `json:"content,omitempty"`
	Type    *string   `json:"type,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
}

// ListOptions narrows ListJournals. Empty fields are not sent.
type ListOptions struct {
	Search string
	Type   string
	Sort   string
}

// RegisterInput is the payload for Register.
type RegisterInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Name            string `json:"name,omitempty"`
}
