package repository

import (
	"leadcollector_backend/internal/model"

	"gorm.io/gorm"
)

type GroupRepositoryInterface interface {
	Create(group *model.Group) error
	Update(group *model.Group) error
	Delete(id uint) error
	GetByID(id uint) (*model.Group, error)
	GetByName(name string) (*model.Group, error)
	List(search string) ([]model.Group, error)

	CategoryIDs(groupID uint) ([]uint, error)
	ReplaceCategories(groupID uint, categoryIDs []uint) error
	AssignCategory(groupID, categoryID uint) error
	RemoveCategory(groupID, categoryID uint) error
	GroupIDsForCategory(categoryID uint) ([]uint, error)

	AddLead(groupID, leadID uint) error
	RemoveLead(groupID, leadID uint) error
	CountLeads(groupID uint, status model.LeadStatus) (int64, error)
}

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) Create(group *model.Group) error {
	return r.db.Create(group).Error
}

func (r *GroupRepository) Update(group *model.Group) error {
	return r.db.Save(group).Error
}

// Delete removes the group and all of its lead/category relations.
func (r *GroupRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&model.LeadGroup{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", id).Delete(&model.GroupCategory{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.Group{}, id).Error
	})
}

func (r *GroupRepository) GetByID(id uint) (*model.Group, error) {
	var group model.Group
	if err := r.db.First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepository) GetByName(name string) (*model.Group, error) {
	var group model.Group
	if err := r.db.Where("name = ?", name).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepository) List(search string) ([]model.Group, error) {
	query := r.db.Order("name ASC")

	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	var groups []model.Group
	err := query.Find(&groups).Error
	return groups, err
}

func (r *GroupRepository) CategoryIDs(groupID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.GroupCategory{}).
		Where("group_id = ?", groupID).
		Order("category_id ASC").
		Pluck("category_id", &ids).Error
	return ids, err
}

func (r *GroupRepository) ReplaceCategories(groupID uint, categoryIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", groupID).Delete(&model.GroupCategory{}).Error; err != nil {
			return err
		}
		for _, categoryID := range categoryIDs {
			row := model.GroupCategory{GroupID: groupID, CategoryID: categoryID}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GroupRepository) AssignCategory(groupID, categoryID uint) error {
	var count int64
	r.db.Model(&model.GroupCategory{}).
		Where("group_id = ? AND category_id = ?", groupID, categoryID).
		Count(&count)
	if count > 0 {
		return nil
	}

	row := model.GroupCategory{GroupID: groupID, CategoryID: categoryID}
	return r.db.Create(&row).Error
}

func (r *GroupRepository) RemoveCategory(groupID, categoryID uint) error {
	return r.db.
		Where("group_id = ? AND category_id = ?", groupID, categoryID).
		Delete(&model.GroupCategory{}).Error
}

func (r *GroupRepository) GroupIDsForCategory(categoryID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.GroupCategory{}).
		Where("category_id = ?", categoryID).
		Distinct().
		Pluck("group_id", &ids).Error
	return ids, err
}

func (r *GroupRepository) AddLead(groupID, leadID uint) error {
	var count int64
	r.db.Model(&model.LeadGroup{}).
		Where("group_id = ? AND lead_id = ?", groupID, leadID).
		Count(&count)
	if count > 0 {
		return nil
	}

	row := model.LeadGroup{LeadID: leadID, GroupID: groupID}
	return r.db.Create(&row).Error
}

func (r *GroupRepository) RemoveLead(groupID, leadID uint) error {
	return r.db.
		Where("group_id = ? AND lead_id = ?", groupID, leadID).
		Delete(&model.LeadGroup{}).Error
}

func (r *GroupRepository) CountLeads(groupID uint, status model.LeadStatus) (int64, error) {
	query := r.db.Model(&model.Lead{}).
		Joins("JOIN lead_groups ON lead_groups.lead_id = leads.id").
		Where("lead_groups.group_id = ?", groupID)

	if status != "" {
		query = query.Where("leads.status = ?", status)
	}

	var count int64
	err := query.Count(&count).Error
	return count, err
}
