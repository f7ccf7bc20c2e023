package models

import (
	"strings"
	"time"
)

// JournalType is the kind of a journal entry. The canonical form is lowercase.
type JournalType string

const (
	JournalDaily     JournalType = "daily"
	JournalGratitude JournalType = "gratitude"
	JournalDream     JournalType = "dream"
	JournalBullet    JournalType = "bullet"
)

// JournalTypes lists every valid type in display order.
var JournalTypes = []JournalType{JournalDaily, JournalGratitude, JournalDream, JournalBullet}

var journalTypeNames = map[JournalType]string{
	JournalDaily:     "Jurnal Harian",
	JournalGratitude: "Jurnal Syukur",
	JournalDream:     "Jurnal Mimpi",
	JournalBullet:    "Jurnal Bullet",
}

// ParseJournalType normalises s and reports whether it names a known type.
func ParseJournalType(s string) (JournalType, bool) {
	t := JournalType(strings.ToLower(strings.TrimSpace(s)))
	_, ok := journalTypeNames[t]
	return t, ok
}

// Name returns the human readable label of the type.
func (t JournalType) Name() string {
	return journalTypeNames[t]
}

// Journal represents a single journal entry owned by one user.
type Journal struct {
	ID        string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string      `json:"userId" gorm:"type:varchar(36);index;not null"`
	Title     string      `json:"title" gorm:"type:varchar(255)"`
	Content   string      `json:"content" gorm:"type:text;not null"`
	Type      JournalType `json:"type" gorm:"type:varchar(16);index;not null"`
	TypeName  string      `json:"typeName" gorm:"-"`
	Tags      []string    `json:"tags" gorm:"serializer:json;type:text"`
	CreatedAt time.Time   `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time   `json:"updatedAt"`

	User *User `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// WithTypeName fills the derived TypeName label and normalises nil tags.
func (j *Journal) WithTypeName() *Journal {
	j.TypeName = j.Type.Name()
	if j.Tags == nil {
		j.Tags = []string{}
	}
	return j
}

// CreateJournalRequest is the body of POST /journal.
type CreateJournalRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content" validate:"notblank"`
	Type    string   `json:"type" validate:"journaltype"`
	Tags    []string `json:"tags"`
}

// UpdateJournalRequest is the body of PUT /journal/:id. Only non-nil fields
// are applied.
type UpdateJournalRequest struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Type    *string   `json:"type"`
	Tags    *[]string `json:"tags"`
}

// JournalFilter narrows and orders a user's journal list.
type JournalFilter struct {
	Search string
	Type   string
	Sort   string
}

// Supported values of JournalFilter.Sort.
const (
	SortDateDesc  = "date-desc"
	SortDateAsc   = "date-asc"
	SortTitleAsc  = "title-asc"
	SortTitleDesc = "title-desc"
)

// JournalStats summarises a user's entries.
type JournalStats struct {
	Total  int64                 `json:"total"`
	ByType map[JournalType]int64 `json:"byType"`
}
