package model

import "gorm.io/gorm"

// NotificationTemplate is the subject/body pair sent when content is
// published under CategoryID. Bodies are raw HTML carrying {{var}} tokens.
type NotificationTemplate struct {
	gorm.Model
	CategoryID uint   `json:"category_id" gorm:"not null;index"`
	Name       string `json:"name" gorm:"not null"`
	Subject    string `json:"subject" gorm:"size:500;not null"`
	Body       string `json:"body" gorm:"type:text;not null"`
	IsActive   bool   `json:"is_active" gorm:"default:true;index"`
}
