// internal/service/group.go
package service

import (
	"errors"

	"leadcollector_backend/internal/model"
	"leadcollector_backend/internal/repository"

	"gorm.io/gorm"
)

type GroupInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CategoryIDs []uint `json:"category_ids"`
}

type GroupStats struct {
	GroupID       uint  `json:"group_id"`
	TotalLeads    int64 `json:"total_leads"`
	ActiveLeads   int64 `json:"active_leads"`
	PendingLeads  int64 `json:"pending_leads"`
	CategoryCount int   `json:"category_count"`
}

// GroupService manages named lead collections and their category bindings.
type GroupService struct {
	groups repository.GroupRepositoryInterface
}

func NewGroupService(groups repository.GroupRepositoryInterface) *GroupService {
	return &GroupService{groups: groups}
}

func (s *GroupService) Create(input GroupInput) (*model.Group, error) {
	if input.Name == "" {
		return nil, validationf("group name is required")
	}

	existing, err := s.groups.GetByName(input.Name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, validationf("a group named %q already exists", input.Name)
	}

	group := model.Group{
		Name:        input.Name,
		Description: input.Description,
	}
	if err := s.groups.Create(&group); err != nil {
		return nil, err
	}

	if len(input.CategoryIDs) > 0 {
		if err := s.groups.ReplaceCategories(group.ID, input.CategoryIDs); err != nil {
			return nil, err
		}
	}
	return &group, nil
}

func (s *GroupService) Get(id uint) (*model.Group, error) {
	group, err := s.groups.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "group", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (s *GroupService) List(search string) ([]model.Group, error) {
	return s.groups.List(search)
}

func (s *GroupService) Update(id uint, input GroupInput) (*model.Group, error) {
	group, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if input.Name != "" && input.Name != group.Name {
		existing, err := s.groups.GetByName(input.Name)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, validationf("a group named %q already exists", input.Name)
		}
		group.Name = input.Name
	}
	group.Description = input.Description

	if err := s.groups.Update(group); err != nil {
		return nil, err
	}

	if input.CategoryIDs != nil {
		if err := s.groups.ReplaceCategories(group.ID, input.CategoryIDs); err != nil {
			return nil, err
		}
	}
	return group, nil
}

func (s *GroupService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.groups.Delete(id)
}

func (s *GroupService) Categories(groupID uint) ([]uint, error) {
	if _, err := s.Get(groupID); err != nil {
		return nil, err
	}
	return s.groups.CategoryIDs(groupID)
}

func (s *GroupService) AssignCategory(groupID, categoryID uint) error {
	if _, err := s.Get(groupID); err != nil {
		return err
	}
	return s.groups.AssignCategory(groupID, categoryID)
}

func (s *GroupService) RemoveCategory(groupID, categoryID uint) error {
	if _, err := s.Get(groupID); err != nil {
		return err
	}
	return s.groups.RemoveCategory(groupID, categoryID)
}

func (s *GroupService) AddLead(groupID, leadID uint) error {
	if _, err := s.Get(groupID); err != nil {
		return err
	}
	return s.groups.AddLead(groupID, leadID)
}

func (s *GroupService) RemoveLead(groupID, leadID uint) error {
	if _, err := s.Get(groupID); err != nil {
		return err
	}
	return s.groups.RemoveLead(groupID, leadID)
}

func (s *GroupService) Stats(groupID uint) (*GroupStats, error) {
	if _, err := s.Get(groupID); err != nil {
		return nil, err
	}

	total, err := s.groups.CountLeads(groupID, "")
	if err != nil {
		return nil, err
	}
	active, err := s.groups.CountLeads(groupID, model.LeadStatusActive)
	if err != nil {
		return nil, err
	}
	pending, err := s.groups.CountLeads(groupID, model.LeadStatusPending)
	if err != nil {
		return nil, err
	}
	categoryIDs, err := s.groups.CategoryIDs(groupID)
	if err != nil {
		return nil, err
	}

	return &GroupStats{
		GroupID:       groupID,
		TotalLeads:    total,
		ActiveLeads:   active,
		PendingLeads:  pending,
		CategoryCount: len(categoryIDs),
	}, nil
}
