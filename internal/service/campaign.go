// internal/service/campaign.go
package service

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"leadcollector_backend/internal/model"
	"leadcollector_backend/internal/repository"
	"leadcollector_backend/pkg/config"
	"leadcollector_backend/pkg/email"

	"gorm.io/gorm"
)

type CreateCampaignInput struct {
	Name        string           `json:"name"`
	Subject     string           `json:"subject"`
	Body        string           `json:"body"`
	TargetType  model.TargetType `json:"target_type"`
	TargetIDs   []uint           `json:"target_ids"`
	ScheduledAt *time.Time       `json:"scheduled_at"`
}

// UpdateCampaignInput carries partial edits; nil fields are left untouched.
type UpdateCampaignInput struct {
	Name        *string           `json:"name"`
	Subject     *string           `json:"subject"`
	Body        *string           `json:"body"`
	TargetType  *model.TargetType `json:"target_type"`
	TargetIDs   *[]uint           `json:"target_ids"`
	ScheduledAt *time.Time        `json:"scheduled_at"`
}

type CampaignStats struct {
	CampaignID      uint                 `json:"campaign_id"`
	Status          model.CampaignStatus `json:"status"`
	TotalRecipients int                  `json:"total_recipients"`
	TotalSent       int                  `json:"total_sent"`
	TotalFailed     int                  `json:"total_failed"`
	TotalOpened     int                  `json:"total_opened"`
	TotalClicked    int                  `json:"total_clicked"`
	OpenRate        float64              `json:"open_rate"`
	ClickRate       float64              `json:"click_rate"`
}

// CampaignService owns the campaign lifecycle: draft, schedule, send,
// finalize, and the watchdog path that resumes interrupted sends.
type CampaignService struct {
	campaigns repository.CampaignRepositoryInterface
	resolver  *Resolver
	renderer  Renderer
	mailer    email.Mailer
	app       config.AppConfig
	unsubURL  func(lead model.Lead) string
}

func NewCampaignService(
	campaigns repository.CampaignRepositoryInterface,
	resolver *Resolver,
	mailer email.Mailer,
	app config.AppConfig,
	unsubURL func(lead model.Lead) string,
) *CampaignService {
	return &CampaignService{
		campaigns: campaigns,
		resolver:  resolver,
		mailer:    mailer,
		app:       app,
		unsubURL:  unsubURL,
	}
}

func (s *CampaignService) Create(input CreateCampaignInput) (*model.Campaign, error) {
	if input.Name == "" || input.Subject == "" || input.Body == "" {
		return nil, validationf("name, subject and body are required")
	}

	targetType := input.TargetType
	if targetType == "" {
		targetType = model.TargetAll
	}

	recipients, err := s.resolver.ResolveForCampaign(targetType, input.TargetIDs)
	if err != nil {
		return nil, err
	}

	campaign := model.Campaign{
		Name:            input.Name,
		Subject:         input.Subject,
		Body:            input.Body,
		Status:          model.CampaignStatusDraft,
		TargetType:      targetType,
		TargetIDs:       input.TargetIDs,
		ScheduledAt:     input.ScheduledAt,
		TotalRecipients: len(recipients),
	}
	if input.ScheduledAt != nil {
		campaign.Status = model.CampaignStatusScheduled
	}

	if err := s.campaigns.Create(&campaign); err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (s *CampaignService) Get(id uint) (*model.Campaign, error) {
	campaign, err := s.campaigns.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "campaign", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return campaign, nil
}

func (s *CampaignService) List(filter repository.CampaignFilter) ([]model.Campaign, error) {
	return s.campaigns.List(filter)
}

// Update applies partial edits to a campaign that has not entered the send
// pipeline. Target changes recompute the recipient snapshot.
func (s *CampaignService) Update(id uint, input UpdateCampaignInput) (*model.Campaign, error) {
	campaign, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if campaign.IsLocked() {
		return nil, &StateConflictError{CampaignID: campaign.ID, Status: campaign.Status}
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, validationf("name cannot be empty")
		}
		campaign.Name = *input.Name
	}
	if input.Subject != nil {
		if *input.Subject == "" {
			return nil, validationf("subject cannot be empty")
		}
		campaign.Subject = *input.Subject
	}
	if input.Body != nil {
		if *input.Body == "" {
			return nil, validationf("body cannot be empty")
		}
		campaign.Body = *input.Body
	}

	retarget := false
	if input.TargetType != nil {
		campaign.TargetType = *input.TargetType
		retarget = true
	}
	if input.TargetIDs != nil {
		campaign.TargetIDs = *input.TargetIDs
		retarget = true
	}
	if input.ScheduledAt != nil {
		campaign.ScheduledAt = input.ScheduledAt
		campaign.Status = model.CampaignStatusScheduled
	}

	if retarget {
		recipients, err := s.resolver.ResolveForCampaign(campaign.TargetType, campaign.TargetIDs)
		if err != nil {
			return nil, err
		}
		campaign.TotalRecipients = len(recipients)
	}

	if err := s.campaigns.Update(campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

func (s *CampaignService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.campaigns.Delete(id)
}

// Schedule sets a future send time on a draft or already scheduled campaign.
func (s *CampaignService) Schedule(id uint, at time.Time) (*model.Campaign, error) {
	campaign, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if campaign.IsLocked() {
		return nil, &StateConflictError{CampaignID: campaign.ID, Status: campaign.Status}
	}

	campaign.ScheduledAt = &at
	campaign.Status = model.CampaignStatusScheduled
	if err := s.campaigns.Update(campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

// Send runs the full delivery loop for a campaign. The conditional status
// flip to "sending" is the mutual exclusion: a second concurrent Send (or a
// sweep racing a manual send) loses the update and backs off.
func (s *CampaignService) Send(id uint) (*model.Campaign, error) {
	campaign, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	claimed, err := s.campaigns.MarkSending(id)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, &StateConflictError{CampaignID: campaign.ID, Status: campaign.Status}
	}

	recipients, err := s.resolver.ResolveForCampaign(campaign.TargetType, campaign.TargetIDs)
	if err != nil {
		s.campaigns.SetStatus(id, model.CampaignStatusFailed)
		return nil, err
	}
	if len(recipients) == 0 {
		if err := s.campaigns.SetStatus(id, model.CampaignStatusFailed); err != nil {
			return nil, err
		}
		return nil, &NoRecipientsError{CampaignID: id}
	}

	sent, failed := s.deliver(campaign, recipients, nil)

	if err := s.campaigns.Finalize(id, time.Now(), sent, failed); err != nil {
		return nil, err
	}
	return s.Get(id)
}

// deliver sends to each recipient in order, one log row per attempt. Leads
// in skip already have a terminal log row from an interrupted run.
func (s *CampaignService) deliver(campaign *model.Campaign, recipients []model.Lead, skip map[uint]bool) (sent, failed int) {
	for _, lead := range recipients {
		if skip[lead.ID] {
			continue
		}

		logRow, err := s.campaigns.EnsureLog(campaign.ID, lead.ID)
		if err != nil {
			log.Printf("campaign %d: log for lead %d: %v", campaign.ID, lead.ID, err)
			failed++
			continue
		}

		variables := s.recipientVariables(lead)
		subject := s.renderer.Render(campaign.Subject, variables)
		body := s.renderer.Render(campaign.Body, variables)

		if s.mailer.Send(lead.Email, subject, body) {
			if err := s.campaigns.MarkLogSent(logRow.ID); err != nil {
				log.Printf("campaign %d: mark sent log %d: %v", campaign.ID, logRow.ID, err)
			}
			sent++
		} else {
			if err := s.campaigns.MarkLogFailed(logRow.ID, "delivery failed"); err != nil {
				log.Printf("campaign %d: mark failed log %d: %v", campaign.ID, logRow.ID, err)
			}
			failed++
		}

		if s.app.SendPacing > 0 {
			time.Sleep(s.app.SendPacing)
		}
	}
	return sent, failed
}

func (s *CampaignService) recipientVariables(lead model.Lead) map[string]string {
	variables := map[string]string{
		"lead_email":      lead.Email,
		"lead_first_name": lead.FirstName,
		"lead_last_name":  lead.LastName,
		"site_name":       s.app.SiteName,
		"site_url":        s.app.SiteURL,
	}
	if s.unsubURL != nil {
		variables["unsubscribe_url"] = s.unsubURL(lead)
	}
	return variables
}

// ProcessScheduled sends every campaign whose scheduled time has passed.
// Errors are logged per campaign so one bad campaign never blocks the rest.
func (s *CampaignService) ProcessScheduled(now time.Time) {
	due, err := s.campaigns.ListDue(now)
	if err != nil {
		log.Printf("campaign sweep: list due: %v", err)
		return
	}

	for _, campaign := range due {
		if _, err := s.Send(campaign.ID); err != nil {
			log.Printf("campaign sweep: send %d: %v", campaign.ID, err)
		}
	}
}

// RecoverStuck resumes campaigns abandoned mid-send, for example after a
// crash. Recipients with a terminal log row keep their outcome; only the
// remainder is attempted. Counters are rebuilt from the log ledger so the
// finalized totals cover both runs.
func (s *CampaignService) RecoverStuck(now time.Time) {
	stuck, err := s.campaigns.ListStuck(now.Add(-s.app.StuckTimeout))
	if err != nil {
		log.Printf("campaign watchdog: list stuck: %v", err)
		return
	}

	for _, campaign := range stuck {
		if err := s.resume(campaign); err != nil {
			log.Printf("campaign watchdog: resume %d: %v", campaign.ID, err)
		}
	}
}

func (s *CampaignService) resume(campaign model.Campaign) error {
	recipients, err := s.resolver.ResolveForCampaign(campaign.TargetType, campaign.TargetIDs)
	if err != nil {
		return err
	}

	doneIDs, err := s.campaigns.TerminalLeadIDs(campaign.ID)
	if err != nil {
		return err
	}
	skip := make(map[uint]bool, len(doneIDs))
	for _, id := range doneIDs {
		skip[id] = true
	}

	s.deliver(&campaign, recipients, skip)

	sentCount, err := s.campaigns.CountLogs(campaign.ID, []model.LogStatus{
		model.LogStatusSent, model.LogStatusOpened, model.LogStatusClicked,
	})
	if err != nil {
		return err
	}
	failedCount, err := s.campaigns.CountLogs(campaign.ID, []model.LogStatus{model.LogStatusFailed})
	if err != nil {
		return err
	}

	return s.campaigns.Finalize(campaign.ID, time.Now(), int(sentCount), int(failedCount))
}

// Stats reports delivery and engagement counters. Rates are percentages of
// total sent, rounded to two decimals, and zero when nothing was sent.
func (s *CampaignService) Stats(id uint) (*CampaignStats, error) {
	campaign, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	opened, err := s.campaigns.CountOpened(id)
	if err != nil {
		return nil, err
	}
	clicked, err := s.campaigns.CountClicked(id)
	if err != nil {
		return nil, err
	}

	stats := CampaignStats{
		CampaignID:      campaign.ID,
		Status:          campaign.Status,
		TotalRecipients: campaign.TotalRecipients,
		TotalSent:       campaign.TotalSent,
		TotalFailed:     campaign.TotalFailed,
		TotalOpened:     int(opened),
		TotalClicked:    int(clicked),
	}
	if campaign.TotalSent > 0 {
		stats.OpenRate = roundRate(float64(opened) / float64(campaign.TotalSent) * 100)
		stats.ClickRate = roundRate(float64(clicked) / float64(campaign.TotalSent) * 100)
	}
	return &stats, nil
}

func roundRate(value float64) float64 {
	return math.Round(value*100) / 100
}

// TrackOpen records the first pixel hit for a delivery log row.
func (s *CampaignService) TrackOpen(logID uint) error {
	if _, err := s.campaigns.GetLog(logID); err != nil {
		return fmt.Errorf("log %d: %w", logID, err)
	}
	return s.campaigns.MarkLogOpened(logID)
}

// TrackClick records the first link click for a delivery log row.
func (s *CampaignService) TrackClick(logID uint) error {
	if _, err := s.campaigns.GetLog(logID); err != nil {
		return fmt.Errorf("log %d: %w", logID, err)
	}
	return s.campaigns.MarkLogClicked(logID)
}
