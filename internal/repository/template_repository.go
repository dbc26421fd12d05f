package repository

import (
	"errors"

	"leadcollector_backend/internal/model"

	"gorm.io/gorm"
)

type TemplateRepositoryInterface interface {
	Save(template *model.NotificationTemplate) error
	Delete(id uint) error
	GetByID(id uint) (*model.NotificationTemplate, error)
	List() ([]model.NotificationTemplate, error)

	// ActiveForCategory returns the authoritative template for a category:
	// the most recently created active row, or nil when none is active.
	ActiveForCategory(categoryID uint) (*model.NotificationTemplate, error)
}

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) Save(template *model.NotificationTemplate) error {
	return r.db.Save(template).Error
}

func (r *TemplateRepository) Delete(id uint) error {
	return r.db.Unscoped().Delete(&model.NotificationTemplate{}, id).Error
}

func (r *TemplateRepository) GetByID(id uint) (*model.NotificationTemplate, error) {
	var template model.NotificationTemplate
	if err := r.db.First(&template, id).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *TemplateRepository) List() ([]model.NotificationTemplate, error) {
	var templates []model.NotificationTemplate
	err := r.db.Order("category_id ASC, created_at DESC").Find(&templates).Error
	return templates, err
}

func (r *TemplateRepository) ActiveForCategory(categoryID uint) (*model.NotificationTemplate, error) {
	var template model.NotificationTemplate
	err := r.db.
		Where("category_id = ? AND is_active = ?", categoryID, true).
		Order("id DESC").
		First(&template).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &template, nil
}
