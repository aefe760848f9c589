package models

import "time"

// TitleMaxLength bounds Post.Title.
const TitleMaxLength = 100

// Post is a text entry owned by exactly one User.
type Post struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Title      string    `json:"title" gorm:"type:varchar(100);not null"`
	DatePosted time.Time `json:"date_posted" gorm:"not null;index"`
	Content    string    `json:"content" gorm:"type:text"`
	UserID     uint      `json:"user_id" gorm:"not null;index"`
	Author     *User     `json:"author,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (Post) TableName() string {
	return "post"
}
