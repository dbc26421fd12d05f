package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Form Style
const (
	FormStyleDark  = "dark"
	FormStyleLight = "light"
)

// Form is a signup form definition rendered by the host site. Field
// definitions are stored as a JSON array of {name, type, label, required,
// placeholder} objects.
type Form struct {
	gorm.Model
	Name           string         `json:"name" gorm:"not null"`
	Title          string         `json:"title" gorm:"size:500"`
	Subtitle       string         `json:"subtitle" gorm:"type:text"`
	Fields         datatypes.JSON `json:"fields"`
	Style          string         `json:"style" gorm:"size:50;default:'dark'"`
	DoubleOptin    bool           `json:"double_optin" gorm:"default:false"`
	RedirectURL    string         `json:"redirect_url" gorm:"size:500"`
	SuccessMessage string         `json:"success_message" gorm:"type:text"`
	IsActive       bool           `json:"is_active" gorm:"default:true;index"`
}
