package model

import (
	"time"

	"gorm.io/gorm"
)

// Group is an admin-curated collection of leads, used as a shortcut when
// resolving notification audiences.
type Group struct {
	gorm.Model
	Name        string `json:"name" gorm:"uniqueIndex;not null"`
	Description string `json:"description" gorm:"type:text"`

	// Relations
	Leads []Lead `json:"-" gorm:"many2many:lead_groups"`
}

// LeadGroup is the leads <-> groups join row.
type LeadGroup struct {
	LeadID    uint      `json:"lead_id" gorm:"primaryKey;autoIncrement:false"`
	GroupID   uint      `json:"group_id" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `json:"created_at"`
}

func (LeadGroup) TableName() string {
	return "lead_groups"
}

// GroupCategory binds a group to a content category: every lead in the group
// receives that category's notifications.
type GroupCategory struct {
	GroupID    uint      `json:"group_id" gorm:"primaryKey;autoIncrement:false"`
	CategoryID uint      `json:"category_id" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt  time.Time `json:"created_at"`
}

func (GroupCategory) TableName() string {
	return "group_categories"
}
