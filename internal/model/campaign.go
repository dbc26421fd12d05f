package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Campaign Status
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusSending   CampaignStatus = "sending"
	CampaignStatusSent      CampaignStatus = "sent"
	CampaignStatusFailed    CampaignStatus = "failed"
)

// Campaign Target Type
type TargetType string

const (
	TargetAll        TargetType = "all"
	TargetGroups     TargetType = "groups"
	TargetCategories TargetType = "categories"
	TargetCustom     TargetType = "custom"
)

type Campaign struct {
	gorm.Model
	Name    string         `json:"name" gorm:"not null"`
	Subject string         `json:"subject" gorm:"size:500;not null"`
	Body    string         `json:"body" gorm:"type:text;not null"`
	Status  CampaignStatus `json:"status" gorm:"size:20;default:'draft';index"`

	TargetType TargetType                `json:"target_type" gorm:"size:50;default:'all'"`
	TargetIDs  datatypes.JSONSlice[uint] `json:"target_ids"`

	ScheduledAt *time.Time `json:"scheduled_at" gorm:"index"`
	SentAt      *time.Time `json:"sent_at"`

	TotalRecipients int `json:"total_recipients" gorm:"default:0"`
	TotalSent       int `json:"total_sent" gorm:"default:0"`
	TotalFailed     int `json:"total_failed" gorm:"default:0"`
}

// IsLocked reports whether the campaign has passed the point of no edits.
func (c *Campaign) IsLocked() bool {
	switch c.Status {
	case CampaignStatusSending, CampaignStatusSent, CampaignStatusFailed:
		return true
	}
	return false
}

// Campaign Log Status
type LogStatus string

const (
	LogStatusPending LogStatus = "pending"
	LogStatusSent    LogStatus = "sent"
	LogStatusFailed  LogStatus = "failed"
	LogStatusOpened  LogStatus = "opened"
	LogStatusClicked LogStatus = "clicked"
)

// CampaignLog records one delivery attempt per (campaign, lead) pair.
// Open/click tracking handlers update the row in place, never add rows.
type CampaignLog struct {
	gorm.Model
	CampaignID   uint       `json:"campaign_id" gorm:"not null;index"`
	LeadID       uint       `json:"lead_id" gorm:"not null;index"`
	Status       LogStatus  `json:"status" gorm:"size:20;default:'pending';index"`
	ErrorMessage string     `json:"error_message" gorm:"type:text"`
	SentAt       *time.Time `json:"sent_at"`
	OpenedAt     *time.Time `json:"opened_at"`
	ClickedAt    *time.Time `json:"clicked_at"`

	Campaign Campaign `json:"-" gorm:"foreignKey:CampaignID"`
	Lead     Lead     `json:"-" gorm:"foreignKey:LeadID"`
}

// Terminal reports whether the attempt already reached a delivery outcome.
// Opened/clicked imply sent.
func (l *CampaignLog) Terminal() bool {
	return l.Status != LogStatusPending
}
