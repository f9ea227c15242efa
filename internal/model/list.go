package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// List is a user-owned checklist. A list produced by a copy keeps the id of
// its source in CopiedFrom; at most one copy per (author, source) pair exists.
type List struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name            string     `gorm:"size:24;not null"`
	AuthorID        uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_lists_author_source,priority:1"`
	HTML            string     `gorm:"column:html;type:text;not null"`
	BackgroundColor string     `gorm:"not null"`
	IsPrivate       bool       `gorm:"not null"`
	NotificationsOn bool       `gorm:"not null"`
	IsFinished      bool       `gorm:"not null"`
	CopiedFrom      *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_lists_author_source,priority:2"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (l *List) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// IsCopy reports whether the list was produced by copying another list.
func (l *List) IsCopy() bool {
	return l.CopiedFrom != nil && *l.CopiedFrom != uuid.Nil
}

// ListPatch carries the fields of a partial update; nil fields are left untouched.
type ListPatch struct {
	Name            *string
	HTML            *string
	BackgroundColor *string
	NotificationsOn *bool
	IsPrivate       *bool
	UpdatedAt       *time.Time
}

// Columns converts the patch to the column map used by gorm Updates.
// When UpdatedAt is nil gorm stamps updated_at itself.
func (p ListPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.HTML != nil {
		cols["html"] = *p.HTML
	}
	if p.BackgroundColor != nil {
		cols["background_color"] = *p.BackgroundColor
	}
	if p.NotificationsOn != nil {
		cols["notifications_on"] = *p.NotificationsOn
	}
	if p.IsPrivate != nil {
		cols["is_private"] = *p.IsPrivate
	}
	if p.UpdatedAt != nil {
		cols["updated_at"] = *p.UpdatedAt
	}
	return cols
}
