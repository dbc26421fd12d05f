// internal/service/resolver.go
package service

import (
	"errors"

	"leadcollector_backend/internal/model"
	"leadcollector_backend/internal/repository"

	"gorm.io/gorm"
)

// Resolver computes the deduplicated audience for a category, a group or a
// campaign targeting descriptor. Every call reads the relational state
// fresh; nothing is cached, so one send sees one consistent snapshot.
type Resolver struct {
	Leads  repository.LeadRepositoryInterface
	Groups repository.GroupRepositoryInterface
}

func NewResolver(leads repository.LeadRepositoryInterface, groups repository.GroupRepositoryInterface) *Resolver {
	return &Resolver{Leads: leads, Groups: groups}
}

// ResolveForCategory returns every active lead subscribed to the category,
// directly or through a group bound to it. The union is deduplicated by
// lead ID since the two sources can overlap.
func (r *Resolver) ResolveForCategory(categoryID uint) ([]model.Lead, error) {
	direct, err := r.Leads.ListDirectlyInCategory(categoryID, model.LeadStatusActive)
	if err != nil {
		return nil, err
	}

	groupIDs, err := r.Groups.GroupIDsForCategory(categoryID)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]bool, len(direct))
	recipients := make([]model.Lead, 0, len(direct))

	for _, lead := range direct {
		if !seen[lead.ID] {
			seen[lead.ID] = true
			recipients = append(recipients, lead)
		}
	}

	for _, groupID := range groupIDs {
		members, err := r.Leads.ListInGroup(groupID, model.LeadStatusActive)
		if err != nil {
			return nil, err
		}
		for _, lead := range members {
			if !seen[lead.ID] {
				seen[lead.ID] = true
				recipients = append(recipients, lead)
			}
		}
	}

	return recipients, nil
}

// ResolveForGroup returns the group's members filtered by status; an empty
// status means all members.
func (r *Resolver) ResolveForGroup(groupID uint, status model.LeadStatus) ([]model.Lead, error) {
	return r.Leads.ListInGroup(groupID, status)
}

// ResolveForCampaign expands a targeting descriptor into the recipient
// list. The result is deduplicated by email address rather than lead ID: a
// campaign must never mail the same address twice even if two lead rows
// carry it.
func (r *Resolver) ResolveForCampaign(targetType model.TargetType, targetIDs []uint) ([]model.Lead, error) {
	var pool []model.Lead

	switch targetType {
	case model.TargetAll:
		leads, err := r.Leads.ListByStatus(model.LeadStatusActive)
		if err != nil {
			return nil, err
		}
		pool = leads

	case model.TargetGroups:
		for _, groupID := range targetIDs {
			members, err := r.Leads.ListInGroup(groupID, model.LeadStatusActive)
			if err != nil {
				return nil, err
			}
			pool = append(pool, members...)
		}

	case model.TargetCategories:
		for _, categoryID := range targetIDs {
			subscribers, err := r.ResolveForCategory(categoryID)
			if err != nil {
				return nil, err
			}
			pool = append(pool, subscribers...)
		}

	case model.TargetCustom:
		// Unresolvable or inactive ids are skipped silently.
		for _, leadID := range targetIDs {
			lead, err := r.Leads.GetByID(leadID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if lead != nil && lead.Status == model.LeadStatusActive {
				pool = append(pool, *lead)
			}
		}

	default:
		return nil, validationf("unknown target type: %s", targetType)
	}

	seen := make(map[string]bool, len(pool))
	recipients := make([]model.Lead, 0, len(pool))

	for _, lead := range pool {
		if !seen[lead.Email] {
			seen[lead.Email] = true
			recipients = append(recipients, lead)
		}
	}

	return recipients, nil
}
