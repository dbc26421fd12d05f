package repository

import (
	"time"

	"leadcollector_backend/internal/model"

	"gorm.io/gorm"
)

// LeadFilter narrows lead listings; zero values mean "no filter".
type LeadFilter struct {
	Status     model.LeadStatus
	GroupID    uint
	CategoryID uint
	Search     string
	Limit      int
	Offset     int
}

type LeadRepositoryInterface interface {
	Create(lead *model.Lead) error
	Update(lead *model.Lead) error
	Delete(id uint) error
	GetByID(id uint) (*model.Lead, error)
	GetByEmail(email string) (*model.Lead, error)
	GetByConfirmationToken(token string) (*model.Lead, error)
	List(filter LeadFilter) ([]model.Lead, error)
	Count(filter LeadFilter) (int64, error)
	CountCreatedAfter(since time.Time) (int64, error)
	CountByIPSince(ip string, since time.Time) (int64, error)

	// Audience reads used by the recipient resolver.
	ListByStatus(status model.LeadStatus) ([]model.Lead, error)
	ListInGroup(groupID uint, status model.LeadStatus) ([]model.Lead, error)
	ListDirectlyInCategory(categoryID uint, status model.LeadStatus) ([]model.Lead, error)

	// Category / group membership.
	CategoryIDs(leadID uint) ([]uint, error)
	ReplaceCategories(leadID uint, categoryIDs []uint) error
	AddCategory(leadID, categoryID uint) error
	GroupIDs(leadID uint) ([]uint, error)
	ReplaceGroups(leadID uint, groupIDs []uint) error

	// Maintenance.
	DeleteOlderThan(cutoff time.Time, statuses []model.LeadStatus) (int64, error)
}

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(lead *model.Lead) error {
	return r.db.Create(lead).Error
}

func (r *LeadRepository) Update(lead *model.Lead) error {
	return r.db.Save(lead).Error
}

func (r *LeadRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lead_id = ?", id).Delete(&model.LeadGroup{}).Error; err != nil {
			return err
		}
		if err := tx.Where("lead_id = ?", id).Delete(&model.LeadCategory{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.Lead{}, id).Error
	})
}

func (r *LeadRepository) GetByID(id uint) (*model.Lead, error) {
	var lead model.Lead
	if err := r.db.First(&lead, id).Error; err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *LeadRepository) GetByEmail(email string) (*model.Lead, error) {
	var lead model.Lead
	if err := r.db.Where("email = LOWER(?)", email).First(&lead).Error; err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *LeadRepository) GetByConfirmationToken(token string) (*model.Lead, error) {
	var lead model.Lead
	if err := r.db.Where("confirmation_token = ? AND confirmation_token != ''", token).
		First(&lead).Error; err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *LeadRepository) filtered(filter LeadFilter) *gorm.DB {
	query := r.db.Model(&model.Lead{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("(email LIKE ? OR first_name LIKE ? OR last_name LIKE ?)", search, search, search)
	}
	if filter.GroupID != 0 {
		query = query.Where("id IN (SELECT lead_id FROM lead_groups WHERE group_id = ?)", filter.GroupID)
	}
	if filter.CategoryID != 0 {
		query = query.Where("id IN (SELECT lead_id FROM lead_categories WHERE category_id = ?)", filter.CategoryID)
	}

	return query
}

func (r *LeadRepository) List(filter LeadFilter) ([]model.Lead, error) {
	query := r.filtered(filter).Order("created_at DESC")

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var leads []model.Lead
	err := query.Find(&leads).Error
	return leads, err
}

func (r *LeadRepository) Count(filter LeadFilter) (int64, error) {
	var count int64
	err := r.filtered(filter).Count(&count).Error
	return count, err
}

func (r *LeadRepository) CountCreatedAfter(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.Lead{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

func (r *LeadRepository) CountByIPSince(ip string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.Lead{}).
		Where("ip_address = ? AND created_at > ?", ip, since).
		Count(&count).Error
	return count, err
}

func (r *LeadRepository) ListByStatus(status model.LeadStatus) ([]model.Lead, error) {
	var leads []model.Lead
	err := r.db.Where("status = ?", status).Order("created_at DESC").Find(&leads).Error
	return leads, err
}

func (r *LeadRepository) ListInGroup(groupID uint, status model.LeadStatus) ([]model.Lead, error) {
	query := r.db.
		Joins("JOIN lead_groups ON lead_groups.lead_id = leads.id").
		Where("lead_groups.group_id = ?", groupID)

	if status != "" {
		query = query.Where("leads.status = ?", status)
	}

	var leads []model.Lead
	err := query.Order("leads.created_at DESC").Find(&leads).Error
	return leads, err
}

func (r *LeadRepository) ListDirectlyInCategory(categoryID uint, status model.LeadStatus) ([]model.Lead, error) {
	query := r.db.
		Joins("JOIN lead_categories ON lead_categories.lead_id = leads.id").
		Where("lead_categories.category_id = ?", categoryID)

	if status != "" {
		query = query.Where("leads.status = ?", status)
	}

	var leads []model.Lead
	err := query.Order("leads.created_at DESC").Find(&leads).Error
	return leads, err
}

func (r *LeadRepository) CategoryIDs(leadID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.LeadCategory{}).
		Where("lead_id = ?", leadID).
		Order("category_id ASC").
		Pluck("category_id", &ids).Error
	return ids, err
}

func (r *LeadRepository) ReplaceCategories(leadID uint, categoryIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lead_id = ?", leadID).Delete(&model.LeadCategory{}).Error; err != nil {
			return err
		}
		for _, categoryID := range categoryIDs {
			row := model.LeadCategory{LeadID: leadID, CategoryID: categoryID}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *LeadRepository) AddCategory(leadID, categoryID uint) error {
	var count int64
	r.db.Model(&model.LeadCategory{}).
		Where("lead_id = ? AND category_id = ?", leadID, categoryID).
		Count(&count)
	if count > 0 {
		return nil
	}

	row := model.LeadCategory{LeadID: leadID, CategoryID: categoryID}
	return r.db.Create(&row).Error
}

func (r *LeadRepository) GroupIDs(leadID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.LeadGroup{}).
		Where("lead_id = ?", leadID).
		Order("group_id ASC").
		Pluck("group_id", &ids).Error
	return ids, err
}

func (r *LeadRepository) ReplaceGroups(leadID uint, groupIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lead_id = ?", leadID).Delete(&model.LeadGroup{}).Error; err != nil {
			return err
		}
		for _, groupID := range groupIDs {
			row := model.LeadGroup{LeadID: leadID, GroupID: groupID}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *LeadRepository) DeleteOlderThan(cutoff time.Time, statuses []model.LeadStatus) (int64, error) {
	result := r.db.Unscoped().
		Where("status IN ? AND created_at < ?", statuses, cutoff).
		Delete(&model.Lead{})
	return result.RowsAffected, result.Error
}
