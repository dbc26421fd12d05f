package service

import (
	"sort"
	"strings"
	"time"

	"leadcollector_backend/internal/model"
	"leadcollector_backend/internal/repository"

	"gorm.io/gorm"
)

// memLeadRepo is an in-memory LeadRepositoryInterface for service tests.
type memLeadRepo struct {
	leads      map[uint]*model.Lead
	categories map[uint][]uint // leadID -> categoryIDs
	groups     map[uint][]uint // leadID -> groupIDs
	nextID     uint
}

func newMemLeadRepo() *memLeadRepo {
	return &memLeadRepo{
		leads:      make(map[uint]*model.Lead),
		categories: make(map[uint][]uint),
		groups:     make(map[uint][]uint),
		nextID:     1,
	}
}

func (r *memLeadRepo) add(lead model.Lead) *model.Lead {
	if lead.ID == 0 {
		lead.ID = r.nextID
	}
	if lead.ID >= r.nextID {
		r.nextID = lead.ID + 1
	}
	lead.Email = strings.ToLower(strings.TrimSpace(lead.Email))
	stored := lead
	r.leads[stored.ID] = &stored
	return r.leads[stored.ID]
}

func (r *memLeadRepo) Create(lead *model.Lead) error {
	created := r.add(*lead)
	*lead = *created
	return nil
}

func (r *memLeadRepo) Update(lead *model.Lead) error {
	stored := *lead
	r.leads[lead.ID] = &stored
	return nil
}

func (r *memLeadRepo) Delete(id uint) error {
	delete(r.leads, id)
	delete(r.categories, id)
	delete(r.groups, id)
	return nil
}

func (r *memLeadRepo) GetByID(id uint) (*model.Lead, error) {
	lead, ok := r.leads[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *lead
	return &copied, nil
}

func (r *memLeadRepo) GetByEmail(email string) (*model.Lead, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, lead := range r.leads {
		if lead.Email == email {
			copied := *lead
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memLeadRepo) GetByConfirmationToken(token string) (*model.Lead, error) {
	for _, lead := range r.leads {
		if lead.ConfirmationToken != "" && lead.ConfirmationToken == token {
			copied := *lead
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memLeadRepo) matches(lead *model.Lead, filter repository.LeadFilter) bool {
	if filter.Status != "" && lead.Status != filter.Status {
		return false
	}
	if filter.GroupID != 0 && !containsID(r.groups[lead.ID], filter.GroupID) {
		return false
	}
	if filter.CategoryID != 0 && !containsID(r.categories[lead.ID], filter.CategoryID) {
		return false
	}
	if filter.Search != "" && !strings.Contains(lead.Email, strings.ToLower(filter.Search)) {
		return false
	}
	return true
}

func (r *memLeadRepo) List(filter repository.LeadFilter) ([]model.Lead, error) {
	var out []model.Lead
	for _, id := range r.sortedIDs() {
		if r.matches(r.leads[id], filter) {
			out = append(out, *r.leads[id])
		}
	}
	return out, nil
}

func (r *memLeadRepo) Count(filter repository.LeadFilter) (int64, error) {
	leads, _ := r.List(filter)
	return int64(len(leads)), nil
}

func (r *memLeadRepo) CountCreatedAfter(since time.Time) (int64, error) {
	var count int64
	for _, lead := range r.leads {
		if lead.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (r *memLeadRepo) CountByIPSince(ip string, since time.Time) (int64, error) {
	var count int64
	for _, lead := range r.leads {
		if lead.IPAddress == ip && lead.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (r *memLeadRepo) ListByStatus(status model.LeadStatus) ([]model.Lead, error) {
	return r.List(repository.LeadFilter{Status: status})
}

func (r *memLeadRepo) ListInGroup(groupID uint, status model.LeadStatus) ([]model.Lead, error) {
	var out []model.Lead
	for _, id := range r.sortedIDs() {
		lead := r.leads[id]
		if !containsID(r.groups[id], groupID) {
			continue
		}
		if status != "" && lead.Status != status {
			continue
		}
		out = append(out, *lead)
	}
	return out, nil
}

func (r *memLeadRepo) ListDirectlyInCategory(categoryID uint, status model.LeadStatus) ([]model.Lead, error) {
	var out []model.Lead
	for _, id := range r.sortedIDs() {
		lead := r.leads[id]
		if !containsID(r.categories[id], categoryID) {
			continue
		}
		if status != "" && lead.Status != status {
			continue
		}
		out = append(out, *lead)
	}
	return out, nil
}

func (r *memLeadRepo) CategoryIDs(leadID uint) ([]uint, error) {
	return append([]uint(nil), r.categories[leadID]...), nil
}

func (r *memLeadRepo) ReplaceCategories(leadID uint, categoryIDs []uint) error {
	r.categories[leadID] = append([]uint(nil), categoryIDs...)
	return nil
}

func (r *memLeadRepo) AddCategory(leadID, categoryID uint) error {
	if !containsID(r.categories[leadID], categoryID) {
		r.categories[leadID] = append(r.categories[leadID], categoryID)
	}
	return nil
}

func (r *memLeadRepo) GroupIDs(leadID uint) ([]uint, error) {
	return append([]uint(nil), r.groups[leadID]...), nil
}

func (r *memLeadRepo) ReplaceGroups(leadID uint, groupIDs []uint) error {
	r.groups[leadID] = append([]uint(nil), groupIDs...)
	return nil
}

func (r *memLeadRepo) DeleteOlderThan(cutoff time.Time, statuses []model.LeadStatus) (int64, error) {
	var deleted int64
	for id, lead := range r.leads {
		statusMatch := false
		for _, status := range statuses {
			if lead.Status == status {
				statusMatch = true
			}
		}
		if statusMatch && lead.CreatedAt.Before(cutoff) {
			delete(r.leads, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memLeadRepo) sortedIDs() []uint {
	ids := make([]uint, 0, len(r.leads))
	for id := range r.leads {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// memGroupRepo is an in-memory GroupRepositoryInterface.
type memGroupRepo struct {
	groups          map[uint]*model.Group
	groupCategories map[uint][]uint // groupID -> categoryIDs
	leads           *memLeadRepo
	nextID          uint
}

func newMemGroupRepo(leads *memLeadRepo) *memGroupRepo {
	return &memGroupRepo{
		groups:          make(map[uint]*model.Group),
		groupCategories: make(map[uint][]uint),
		leads:           leads,
		nextID:          1,
	}
}

func (r *memGroupRepo) Create(group *model.Group) error {
	if group.ID == 0 {
		group.ID = r.nextID
		r.nextID++
	}
	stored := *group
	r.groups[group.ID] = &stored
	return nil
}

func (r *memGroupRepo) Update(group *model.Group) error {
	stored := *group
	r.groups[group.ID] = &stored
	return nil
}

func (r *memGroupRepo) Delete(id uint) error {
	delete(r.groups, id)
	delete(r.groupCategories, id)
	return nil
}

func (r *memGroupRepo) GetByID(id uint) (*model.Group, error) {
	group, ok := r.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *group
	return &copied, nil
}

func (r *memGroupRepo) GetByName(name string) (*model.Group, error) {
	for _, group := range r.groups {
		if group.Name == name {
			copied := *group
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memGroupRepo) List(search string) ([]model.Group, error) {
	var out []model.Group
	for _, group := range r.groups {
		if search == "" || strings.Contains(group.Name, search) {
			out = append(out, *group)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memGroupRepo) CategoryIDs(groupID uint) ([]uint, error) {
	return append([]uint(nil), r.groupCategories[groupID]...), nil
}

func (r *memGroupRepo) ReplaceCategories(groupID uint, categoryIDs []uint) error {
	r.groupCategories[groupID] = append([]uint(nil), categoryIDs...)
	return nil
}

func (r *memGroupRepo) AssignCategory(groupID, categoryID uint) error {
	if !containsID(r.groupCategories[groupID], categoryID) {
		r.groupCategories[groupID] = append(r.groupCategories[groupID], categoryID)
	}
	return nil
}

func (r *memGroupRepo) RemoveCategory(groupID, categoryID uint) error {
	kept := r.groupCategories[groupID][:0]
	for _, id := range r.groupCategories[groupID] {
		if id != categoryID {
			kept = append(kept, id)
		}
	}
	r.groupCategories[groupID] = kept
	return nil
}

func (r *memGroupRepo) GroupIDsForCategory(categoryID uint) ([]uint, error) {
	var ids []uint
	for groupID, categoryIDs := range r.groupCategories {
		if containsID(categoryIDs, categoryID) {
			ids = append(ids, groupID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *memGroupRepo) AddLead(groupID, leadID uint) error {
	return r.leads.addToGroup(leadID, groupID)
}

func (r *memGroupRepo) RemoveLead(groupID, leadID uint) error {
	kept := r.leads.groups[leadID][:0]
	for _, id := range r.leads.groups[leadID] {
		if id != groupID {
			kept = append(kept, id)
		}
	}
	r.leads.groups[leadID] = kept
	return nil
}

func (r *memGroupRepo) CountLeads(groupID uint, status model.LeadStatus) (int64, error) {
	members, _ := r.leads.ListInGroup(groupID, status)
	return int64(len(members)), nil
}

func (r *memLeadRepo) addToGroup(leadID, groupID uint) error {
	if !containsID(r.groups[leadID], groupID) {
		r.groups[leadID] = append(r.groups[leadID], groupID)
	}
	return nil
}

// memCampaignRepo is an in-memory CampaignRepositoryInterface.
type memCampaignRepo struct {
	campaigns map[uint]*model.Campaign
	logs      map[uint]*model.CampaignLog
	nextID    uint
	nextLogID uint
}

func newMemCampaignRepo() *memCampaignRepo {
	return &memCampaignRepo{
		campaigns: make(map[uint]*model.Campaign),
		logs:      make(map[uint]*model.CampaignLog),
		nextID:    1,
		nextLogID: 1,
	}
}

func (r *memCampaignRepo) Create(campaign *model.Campaign) error {
	if campaign.ID == 0 {
		campaign.ID = r.nextID
		r.nextID++
	}
	stored := *campaign
	r.campaigns[campaign.ID] = &stored
	return nil
}

func (r *memCampaignRepo) Update(campaign *model.Campaign) error {
	stored := *campaign
	r.campaigns[campaign.ID] = &stored
	return nil
}

func (r *memCampaignRepo) Delete(id uint) error {
	delete(r.campaigns, id)
	for logID, logRow := range r.logs {
		if logRow.CampaignID == id {
			delete(r.logs, logID)
		}
	}
	return nil
}

func (r *memCampaignRepo) GetByID(id uint) (*model.Campaign, error) {
	campaign, ok := r.campaigns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *campaign
	return &copied, nil
}

func (r *memCampaignRepo) List(filter repository.CampaignFilter) ([]model.Campaign, error) {
	var out []model.Campaign
	for _, campaign := range r.campaigns {
		if filter.Status != "" && campaign.Status != filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(campaign.Name, filter.Search) {
			continue
		}
		out = append(out, *campaign)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memCampaignRepo) MarkSending(id uint) (bool, error) {
	campaign, ok := r.campaigns[id]
	if !ok {
		return false, nil
	}
	if campaign.Status != model.CampaignStatusDraft && campaign.Status != model.CampaignStatusScheduled {
		return false, nil
	}
	campaign.Status = model.CampaignStatusSending
	return true, nil
}

func (r *memCampaignRepo) SetStatus(id uint, status model.CampaignStatus) error {
	if campaign, ok := r.campaigns[id]; ok {
		campaign.Status = status
	}
	return nil
}

func (r *memCampaignRepo) Finalize(id uint, sentAt time.Time, totalSent, totalFailed int) error {
	campaign, ok := r.campaigns[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	campaign.Status = model.CampaignStatusSent
	campaign.SentAt = &sentAt
	campaign.TotalSent = totalSent
	campaign.TotalFailed = totalFailed
	return nil
}

func (r *memCampaignRepo) ListDue(now time.Time) ([]model.Campaign, error) {
	var out []model.Campaign
	for _, campaign := range r.campaigns {
		if campaign.Status == model.CampaignStatusScheduled &&
			campaign.ScheduledAt != nil && !campaign.ScheduledAt.After(now) {
			out = append(out, *campaign)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(*out[j].ScheduledAt) })
	return out, nil
}

func (r *memCampaignRepo) ListStuck(olderThan time.Time) ([]model.Campaign, error) {
	var out []model.Campaign
	for _, campaign := range r.campaigns {
		if campaign.Status == model.CampaignStatusSending && campaign.UpdatedAt.Before(olderThan) {
			out = append(out, *campaign)
		}
	}
	return out, nil
}

func (r *memCampaignRepo) CreateLog(campaignID, leadID uint) (*model.CampaignLog, error) {
	logRow := &model.CampaignLog{
		CampaignID: campaignID,
		LeadID:     leadID,
		Status:     model.LogStatusPending,
	}
	logRow.ID = r.nextLogID
	r.nextLogID++
	r.logs[logRow.ID] = logRow
	copied := *logRow
	return &copied, nil
}

func (r *memCampaignRepo) EnsureLog(campaignID, leadID uint) (*model.CampaignLog, error) {
	for _, logRow := range r.logs {
		if logRow.CampaignID == campaignID && logRow.LeadID == leadID {
			copied := *logRow
			return &copied, nil
		}
	}
	return r.CreateLog(campaignID, leadID)
}

func (r *memCampaignRepo) GetLog(logID uint) (*model.CampaignLog, error) {
	logRow, ok := r.logs[logID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *logRow
	return &copied, nil
}

func (r *memCampaignRepo) MarkLogSent(logID uint) error {
	now := time.Now()
	r.logs[logID].Status = model.LogStatusSent
	r.logs[logID].SentAt = &now
	return nil
}

func (r *memCampaignRepo) MarkLogFailed(logID uint, errorMessage string) error {
	r.logs[logID].Status = model.LogStatusFailed
	r.logs[logID].ErrorMessage = errorMessage
	return nil
}

func (r *memCampaignRepo) MarkLogOpened(logID uint) error {
	logRow := r.logs[logID]
	if logRow.OpenedAt != nil {
		return nil
	}
	now := time.Now()
	logRow.Status = model.LogStatusOpened
	logRow.OpenedAt = &now
	return nil
}

func (r *memCampaignRepo) MarkLogClicked(logID uint) error {
	logRow := r.logs[logID]
	if logRow.ClickedAt != nil {
		return nil
	}
	now := time.Now()
	logRow.Status = model.LogStatusClicked
	logRow.ClickedAt = &now
	return nil
}

func (r *memCampaignRepo) TerminalLeadIDs(campaignID uint) ([]uint, error) {
	var ids []uint
	for _, logRow := range r.logs {
		if logRow.CampaignID == campaignID && logRow.Status != model.LogStatusPending {
			ids = append(ids, logRow.LeadID)
		}
	}
	return ids, nil
}

func (r *memCampaignRepo) CountLogs(campaignID uint, statuses []model.LogStatus) (int64, error) {
	var count int64
	for _, logRow := range r.logs {
		if logRow.CampaignID != campaignID {
			continue
		}
		for _, status := range statuses {
			if logRow.Status == status {
				count++
				break
			}
		}
	}
	return count, nil
}

func (r *memCampaignRepo) CountOpened(campaignID uint) (int64, error) {
	var count int64
	for _, logRow := range r.logs {
		if logRow.CampaignID == campaignID && logRow.OpenedAt != nil {
			count++
		}
	}
	return count, nil
}

func (r *memCampaignRepo) CountClicked(campaignID uint) (int64, error) {
	var count int64
	for _, logRow := range r.logs {
		if logRow.CampaignID == campaignID && logRow.ClickedAt != nil {
			count++
		}
	}
	return count, nil
}

// memTemplateRepo is an in-memory TemplateRepositoryInterface.
type memTemplateRepo struct {
	templates map[uint]*model.NotificationTemplate
	nextID    uint
}

func newMemTemplateRepo() *memTemplateRepo {
	return &memTemplateRepo{
		templates: make(map[uint]*model.NotificationTemplate),
		nextID:    1,
	}
}

func (r *memTemplateRepo) Save(template *model.NotificationTemplate) error {
	if template.ID == 0 {
		template.ID = r.nextID
		r.nextID++
	}
	stored := *template
	r.templates[template.ID] = &stored
	return nil
}

func (r *memTemplateRepo) Delete(id uint) error {
	delete(r.templates, id)
	return nil
}

func (r *memTemplateRepo) GetByID(id uint) (*model.NotificationTemplate, error) {
	template, ok := r.templates[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *template
	return &copied, nil
}

func (r *memTemplateRepo) List() ([]model.NotificationTemplate, error) {
	var out []model.NotificationTemplate
	for _, template := range r.templates {
		out = append(out, *template)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memTemplateRepo) ActiveForCategory(categoryID uint) (*model.NotificationTemplate, error) {
	var latest *model.NotificationTemplate
	for _, template := range r.templates {
		if template.CategoryID != categoryID || !template.IsActive {
			continue
		}
		if latest == nil || template.ID > latest.ID {
			latest = template
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

// memFormRepo is an in-memory FormRepositoryInterface.
type memFormRepo struct {
	forms map[uint]*model.Form
}

func newMemFormRepo() *memFormRepo {
	return &memFormRepo{forms: make(map[uint]*model.Form)}
}

func (r *memFormRepo) GetActive(id uint) (*model.Form, error) {
	form, ok := r.forms[id]
	if !ok || !form.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *form
	return &copied, nil
}

func (r *memFormRepo) EnsureDefault() error { return nil }

// recordingMailer captures outbound mail; addresses in failFor bounce.
type recordingMailer struct {
	sent    []sentMail
	failFor map[string]bool
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{failFor: make(map[string]bool)}
}

func (m *recordingMailer) Send(to, subject, htmlBody string) bool {
	if m.failFor[to] {
		return false
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return true
}

func (m *recordingMailer) sentTo(to string) bool {
	for _, mail := range m.sent {
		if mail.To == to {
			return true
		}
	}
	return false
}

func containsID(ids []uint, want uint) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}
