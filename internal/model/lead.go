package model

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Lead Status
type LeadStatus string

const (
	LeadStatusActive       LeadStatus = "active"
	LeadStatusPending      LeadStatus = "pending"
	LeadStatusUnsubscribed LeadStatus = "unsubscribed"
	LeadStatusBounced      LeadStatus = "bounced"
)

// Lead Source
const (
	LeadSourceForm   = "form"
	LeadSourceImport = "import"
	LeadSourceManual = "manual"
)

type Lead struct {
	gorm.Model
	Email     string     `json:"email" gorm:"uniqueIndex;not null"`
	FirstName string     `json:"first_name" gorm:"size:100"`
	LastName  string     `json:"last_name" gorm:"size:100"`
	Phone     string     `json:"phone" gorm:"size:50"`
	Status    LeadStatus `json:"status" gorm:"size:20;default:'active';index"`
	Source    string     `json:"source" gorm:"size:100;index"`
	IPAddress string     `json:"ip_address" gorm:"size:100;index"`
	UserAgent string     `json:"user_agent" gorm:"type:text"`

	Tags         datatypes.JSONSlice[string]           `json:"tags"`
	CustomFields datatypes.JSONType[map[string]string] `json:"custom_fields"`

	// Double opt-in bookkeeping
	ConfirmationToken string     `json:"-" gorm:"size:64;index"`
	ConfirmedAt       *time.Time `json:"confirmed_at"`
	UnsubscribedAt    *time.Time `json:"unsubscribed_at"`
}

// LeadCategory binds a lead to an externally owned content category.
// The pair is the primary key so the same binding can never exist twice.
type LeadCategory struct {
	LeadID     uint      `json:"lead_id" gorm:"primaryKey;autoIncrement:false"`
	CategoryID uint      `json:"category_id" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt  time.Time `json:"created_at"`
}

func (LeadCategory) TableName() string {
	return "lead_categories"
}

// BeforeCreate normalizes the email so uniqueness is case-insensitive.
func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	l.Email = strings.ToLower(strings.TrimSpace(l.Email))
	return nil
}

func (l *Lead) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// NewCustomFields wraps a plain map in the JSON column type.
func NewCustomFields(fields map[string]string) datatypes.JSONType[map[string]string] {
	return datatypes.NewJSONType(fields)
}
