package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post is a forum post. The author is not a local row; AuthorID references a
// user held by the hosted identity provider and is resolved at read time.
type Post struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	AuthorID  string    `gorm:"size:64;index;not null" json:"author_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Tag       string    `gorm:"size:32;not null" json:"tag"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tags lists the accepted post tags.
var Tags = []string{"News", "Miscellaneous", "Discussion", "Question", "Announcement", "Feedback"}

// ValidTag reports whether tag is one of the accepted values.
func ValidTag(tag string) bool {
	for _, t := range Tags {
		if tag == t {
			return true
		}
	}
	return false
}

// BeforeCreate assigns the record id and timestamps when not provided.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	return nil
}

// BeforeUpdate refreshes the UpdatedAt timestamp.
func (p *Post) BeforeUpdate(tx *gorm.DB) error {
	p.UpdatedAt = time.Now()
	return nil
}
