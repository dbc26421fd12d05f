package repository

import (
	"leadcollector_backend/internal/model"

	"gorm.io/gorm"
)

type FormRepositoryInterface interface {
	GetActive(id uint) (*model.Form, error)

	// EnsureDefault seeds a baseline signup form when none exists yet.
	EnsureDefault() error
}

type FormRepository struct {
	db *gorm.DB
}

func NewFormRepository(db *gorm.DB) *FormRepository {
	return &FormRepository{db: db}
}

func (r *FormRepository) GetActive(id uint) (*model.Form, error) {
	var form model.Form
	err := r.db.Where("id = ? AND is_active = ?", id, true).First(&form).Error
	if err != nil {
		return nil, err
	}
	return &form, nil
}

func (r *FormRepository) EnsureDefault() error {
	var count int64
	if err := r.db.Model(&model.Form{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	form := model.Form{
		Name:           "Default signup",
		Title:          "Subscribe to our updates",
		Fields:         []byte(`[{"name":"email","type":"email","label":"Email","required":true,"placeholder":"you@example.com"},{"name":"first_name","type":"text","label":"First name","required":false,"placeholder":""}]`),
		Style:          model.FormStyleDark,
		SuccessMessage: "Thank you for subscribing",
		IsActive:       true,
	}
	return r.db.Create(&form).Error
}
