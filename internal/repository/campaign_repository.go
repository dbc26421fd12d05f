package repository

import (
	"errors"
	"time"

	"leadcollector_backend/internal/model"

	"gorm.io/gorm"
)

type CampaignFilter struct {
	Status model.CampaignStatus
	Search string
}

type CampaignRepositoryInterface interface {
	Create(campaign *model.Campaign) error
	Update(campaign *model.Campaign) error
	Delete(id uint) error
	GetByID(id uint) (*model.Campaign, error)
	List(filter CampaignFilter) ([]model.Campaign, error)

	// MarkSending flips {draft,scheduled} -> sending with a conditional
	// update; false means the campaign was not in a sendable state.
	MarkSending(id uint) (bool, error)
	SetStatus(id uint, status model.CampaignStatus) error
	Finalize(id uint, sentAt time.Time, totalSent, totalFailed int) error
	ListDue(now time.Time) ([]model.Campaign, error)
	ListStuck(olderThan time.Time) ([]model.Campaign, error)

	// Delivery log ledger: one row per (campaign, lead) send attempt.
	CreateLog(campaignID, leadID uint) (*model.CampaignLog, error)
	// EnsureLog returns the pair's existing row (a resumed send reuses the
	// pending row left by an interrupted run) or creates a pending one.
	EnsureLog(campaignID, leadID uint) (*model.CampaignLog, error)
	GetLog(logID uint) (*model.CampaignLog, error)
	MarkLogSent(logID uint) error
	MarkLogFailed(logID uint, errorMessage string) error
	MarkLogOpened(logID uint) error
	MarkLogClicked(logID uint) error
	TerminalLeadIDs(campaignID uint) ([]uint, error)
	CountLogs(campaignID uint, statuses []model.LogStatus) (int64, error)
	CountOpened(campaignID uint) (int64, error)
	CountClicked(campaignID uint) (int64, error)
}

type CampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) Create(campaign *model.Campaign) error {
	return r.db.Create(campaign).Error
}

func (r *CampaignRepository) Update(campaign *model.Campaign) error {
	return r.db.Save(campaign).Error
}

// Delete removes the campaign and cascades its delivery logs.
func (r *CampaignRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("campaign_id = ?", id).Delete(&model.CampaignLog{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.Campaign{}, id).Error
	})
}

func (r *CampaignRepository) GetByID(id uint) (*model.Campaign, error) {
	var campaign model.Campaign
	if err := r.db.First(&campaign, id).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *CampaignRepository) List(filter CampaignFilter) ([]model.Campaign, error) {
	query := r.db.Order("created_at DESC")

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		query = query.Where("name LIKE ?", "%"+filter.Search+"%")
	}

	var campaigns []model.Campaign
	err := query.Find(&campaigns).Error
	return campaigns, err
}

func (r *CampaignRepository) MarkSending(id uint) (bool, error) {
	result := r.db.Model(&model.Campaign{}).
		Where("id = ? AND status IN ?", id, []model.CampaignStatus{
			model.CampaignStatusDraft,
			model.CampaignStatusScheduled,
		}).
		Update("status", model.CampaignStatusSending)

	return result.RowsAffected > 0, result.Error
}

func (r *CampaignRepository) SetStatus(id uint, status model.CampaignStatus) error {
	return r.db.Model(&model.Campaign{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *CampaignRepository) Finalize(id uint, sentAt time.Time, totalSent, totalFailed int) error {
	return r.db.Model(&model.Campaign{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       model.CampaignStatusSent,
			"sent_at":      sentAt,
			"total_sent":   totalSent,
			"total_failed": totalFailed,
		}).Error
}

func (r *CampaignRepository) ListDue(now time.Time) ([]model.Campaign, error) {
	var campaigns []model.Campaign
	err := r.db.
		Where("status = ? AND scheduled_at <= ?", model.CampaignStatusScheduled, now).
		Order("scheduled_at ASC").
		Find(&campaigns).Error
	return campaigns, err
}

func (r *CampaignRepository) ListStuck(olderThan time.Time) ([]model.Campaign, error) {
	var campaigns []model.Campaign
	err := r.db.
		Where("status = ? AND updated_at < ?", model.CampaignStatusSending, olderThan).
		Order("updated_at ASC").
		Find(&campaigns).Error
	return campaigns, err
}

func (r *CampaignRepository) CreateLog(campaignID, leadID uint) (*model.CampaignLog, error) {
	logRow := model.CampaignLog{
		CampaignID: campaignID,
		LeadID:     leadID,
		Status:     model.LogStatusPending,
	}
	if err := r.db.Create(&logRow).Error; err != nil {
		return nil, err
	}
	return &logRow, nil
}

func (r *CampaignRepository) EnsureLog(campaignID, leadID uint) (*model.CampaignLog, error) {
	var logRow model.CampaignLog
	err := r.db.
		Where("campaign_id = ? AND lead_id = ?", campaignID, leadID).
		First(&logRow).Error
	if err == nil {
		return &logRow, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return r.CreateLog(campaignID, leadID)
}

func (r *CampaignRepository) GetLog(logID uint) (*model.CampaignLog, error) {
	var logRow model.CampaignLog
	if err := r.db.First(&logRow, logID).Error; err != nil {
		return nil, err
	}
	return &logRow, nil
}

func (r *CampaignRepository) MarkLogSent(logID uint) error {
	return r.db.Model(&model.CampaignLog{}).
		Where("id = ?", logID).
		Updates(map[string]interface{}{
			"status":  model.LogStatusSent,
			"sent_at": time.Now(),
		}).Error
}

func (r *CampaignRepository) MarkLogFailed(logID uint, errorMessage string) error {
	return r.db.Model(&model.CampaignLog{}).
		Where("id = ?", logID).
		Updates(map[string]interface{}{
			"status":        model.LogStatusFailed,
			"error_message": errorMessage,
		}).Error
}

// MarkLogOpened stamps opened_at once; repeat pixel hits are no-ops.
func (r *CampaignRepository) MarkLogOpened(logID uint) error {
	return r.db.Model(&model.CampaignLog{}).
		Where("id = ? AND opened_at IS NULL", logID).
		Updates(map[string]interface{}{
			"status":    model.LogStatusOpened,
			"opened_at": time.Now(),
		}).Error
}

// MarkLogClicked stamps clicked_at once; repeat clicks are no-ops.
func (r *CampaignRepository) MarkLogClicked(logID uint) error {
	return r.db.Model(&model.CampaignLog{}).
		Where("id = ? AND clicked_at IS NULL", logID).
		Updates(map[string]interface{}{
			"status":     model.LogStatusClicked,
			"clicked_at": time.Now(),
		}).Error
}

// TerminalLeadIDs returns leads whose attempt for this campaign already
// reached an outcome, so a resumed send can skip them.
func (r *CampaignRepository) TerminalLeadIDs(campaignID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.CampaignLog{}).
		Where("campaign_id = ? AND status != ?", campaignID, model.LogStatusPending).
		Pluck("lead_id", &ids).Error
	return ids, err
}

func (r *CampaignRepository) CountLogs(campaignID uint, statuses []model.LogStatus) (int64, error) {
	var count int64
	err := r.db.Model(&model.CampaignLog{}).
		Where("campaign_id = ? AND status IN ?", campaignID, statuses).
		Count(&count).Error
	return count, err
}

func (r *CampaignRepository) CountOpened(campaignID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.CampaignLog{}).
		Where("campaign_id = ? AND opened_at IS NOT NULL", campaignID).
		Count(&count).Error
	return count, err
}

func (r *CampaignRepository) CountClicked(campaignID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.CampaignLog{}).
		Where("campaign_id = ? AND clicked_at IS NOT NULL", campaignID).
		Count(&count).Error
	return count, err
}
