// internal/service/leads.go
package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"leadcollector_backend/internal/model"
	"leadcollector_backend/internal/repository"
	"leadcollector_backend/pkg/config"
	"leadcollector_backend/pkg/email"
	"leadcollector_backend/pkg/utils/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// disposableDomains are throwaway providers rejected at intake.
var disposableDomains = map[string]bool{
	"mailinator.com":    true,
	"guerrillamail.com": true,
	"10minutemail.com":  true,
	"tempmail.com":      true,
	"throwaway.email":   true,
	"yopmail.com":       true,
	"trashmail.com":     true,
	"sharklasers.com":   true,
	"getnada.com":       true,
	"dispostable.com":   true,
}

type SubmitLeadInput struct {
	FormID       uint              `json:"form_id"`
	Email        string            `json:"email"`
	FirstName    string            `json:"first_name"`
	LastName     string            `json:"last_name"`
	Phone        string            `json:"phone"`
	Tags         []string          `json:"tags"`
	CustomFields map[string]string `json:"custom_fields"`
	CategoryIDs  []uint            `json:"category_ids"`
	GroupIDs     []uint            `json:"group_ids"`

	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type UpdateLeadInput struct {
	FirstName    *string            `json:"first_name"`
	LastName     *string            `json:"last_name"`
	Phone        *string            `json:"phone"`
	Status       *model.LeadStatus  `json:"status"`
	Tags         *[]string          `json:"tags"`
	CustomFields *map[string]string `json:"custom_fields"`
}

type LeadStats struct {
	Total        int64 `json:"total"`
	Active       int64 `json:"active"`
	Pending      int64 `json:"pending"`
	Unsubscribed int64 `json:"unsubscribed"`
	Bounced      int64 `json:"bounced"`
	Today        int64 `json:"today"`
	ThisWeek     int64 `json:"this_week"`
	ThisMonth    int64 `json:"this_month"`
}

// LeadService owns lead intake and lifecycle: public form submission with
// rate limiting and optional double opt-in, confirm/unsubscribe links, and
// the admin-side CRUD, stats and CSV export.
type LeadService struct {
	leads  repository.LeadRepositoryInterface
	forms  repository.FormRepositoryInterface
	mailer email.Mailer
	store  *storage.ExportStore
	app    config.AppConfig
	mail   config.MailConfig
}

func NewLeadService(
	leads repository.LeadRepositoryInterface,
	forms repository.FormRepositoryInterface,
	mailer email.Mailer,
	store *storage.ExportStore,
	app config.AppConfig,
	mailCfg config.MailConfig,
) *LeadService {
	return &LeadService{
		leads:  leads,
		forms:  forms,
		mailer: mailer,
		store:  store,
		app:    app,
		mail:   mailCfg,
	}
}

// Submit handles a public form submission. With double opt-in the lead is
// stored pending and mailed a confirmation link; otherwise it is active
// immediately.
func (s *LeadService) Submit(input SubmitLeadInput) (*model.Lead, error) {
	address := strings.ToLower(strings.TrimSpace(input.Email))
	if err := s.validateEmail(address); err != nil {
		return nil, err
	}

	if s.app.RateLimitPerHour > 0 && input.IPAddress != "" {
		count, err := s.leads.CountByIPSince(input.IPAddress, time.Now().Add(-time.Hour))
		if err != nil {
			return nil, err
		}
		if count >= int64(s.app.RateLimitPerHour) {
			return nil, validationf("too many submissions, please try again later")
		}
	}

	existing, err := s.leads.GetByEmail(address)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, validationf("email is already subscribed")
	}

	lead := model.Lead{
		Email:        address,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Phone:        strings.TrimSpace(input.Phone),
		Status:       model.LeadStatusActive,
		Source:       model.LeadSourceForm,
		IPAddress:    input.IPAddress,
		UserAgent:    input.UserAgent,
		Tags:         input.Tags,
		CustomFields: model.NewCustomFields(input.CustomFields),
	}

	optin := s.app.DoubleOptin
	if input.FormID != 0 && s.forms != nil {
		// An active form overrides the global opt-in setting for its own
		// submissions.
		form, err := s.forms.GetActive(input.FormID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationf("form %d not found or inactive", input.FormID)
		}
		if err != nil {
			return nil, err
		}
		optin = form.DoubleOptin
	}

	if optin {
		lead.Status = model.LeadStatusPending
		lead.ConfirmationToken = strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	if err := s.leads.Create(&lead); err != nil {
		return nil, err
	}

	categoryIDs := input.CategoryIDs
	if len(categoryIDs) == 0 {
		categoryIDs = s.app.DefaultCategories
	}
	for _, categoryID := range categoryIDs {
		if err := s.leads.AddCategory(lead.ID, categoryID); err != nil {
			log.Printf("lead %d: assign category %d: %v", lead.ID, categoryID, err)
		}
	}
	if len(input.GroupIDs) > 0 {
		if err := s.leads.ReplaceGroups(lead.ID, input.GroupIDs); err != nil {
			log.Printf("lead %d: assign groups: %v", lead.ID, err)
		}
	}

	if optin {
		s.sendConfirmation(lead)
	}
	s.notifyAdmin(lead)

	return &lead, nil
}

func (s *LeadService) validateEmail(address string) error {
	if address == "" {
		return validationf("email is required")
	}

	parsed, err := mail.ParseAddress(address)
	if err != nil || parsed.Address != address {
		return validationf("invalid email address")
	}

	at := strings.LastIndex(address, "@")
	domain := address[at+1:]
	if disposableDomains[domain] {
		return validationf("disposable email addresses are not accepted")
	}

	if s.app.EmailDNSCheck {
		records, err := net.LookupMX(domain)
		if err != nil || len(records) == 0 {
			return validationf("email domain does not accept mail")
		}
	}
	return nil
}

func (s *LeadService) sendConfirmation(lead model.Lead) {
	confirmURL := fmt.Sprintf("%s/confirm/%s", s.app.SiteURL, lead.ConfirmationToken)

	variables := map[string]string{
		"lead_email":      lead.Email,
		"lead_first_name": lead.FirstName,
		"confirm_url":     confirmURL,
		"site_name":       s.app.SiteName,
		"site_url":        s.app.SiteURL,
	}

	renderer := Renderer{}
	subject := renderer.Render("Confirm your subscription to {{site_name}}", variables)
	body := renderer.Render(
		`<p>Hi {{lead_first_name}},</p>
<p>Please confirm your subscription to {{site_name}} by clicking the link below:</p>
<p><a href="{{confirm_url}}">Confirm subscription</a></p>
<p>If you did not subscribe, you can ignore this email.</p>`,
		variables,
	)

	if !s.mailer.Send(lead.Email, subject, body) {
		log.Printf("lead %d: confirmation email failed", lead.ID)
	}
}

func (s *LeadService) notifyAdmin(lead model.Lead) {
	if s.mail.AdminEmail == "" {
		return
	}

	subject := fmt.Sprintf("New lead: %s", lead.Email)
	body := fmt.Sprintf(
		"<p>A new lead subscribed on %s.</p><p>Email: %s<br>Name: %s<br>Status: %s</p>",
		s.app.SiteName, lead.Email, lead.FullName(), lead.Status,
	)

	if !s.mailer.Send(s.mail.AdminEmail, subject, body) {
		log.Printf("lead %d: admin notification failed", lead.ID)
	}
}

// Confirm activates a pending lead by its opt-in token. The token is
// cleared so a link can only be used once.
func (s *LeadService) Confirm(token string) (*model.Lead, error) {
	if token == "" {
		return nil, validationf("confirmation token is required")
	}

	lead, err := s.leads.GetByConfirmationToken(token)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, validationf("invalid or expired confirmation link")
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	lead.Status = model.LeadStatusActive
	lead.ConfirmationToken = ""
	lead.ConfirmedAt = &now

	if err := s.leads.Update(lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// UnsubscribeToken derives the stable HMAC token embedded in unsubscribe
// links for a lead.
func (s *LeadService) UnsubscribeToken(leadID uint) string {
	mac := hmac.New(sha256.New, []byte(s.app.TokenSecret))
	mac.Write([]byte(strconv.FormatUint(uint64(leadID), 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// UnsubscribeURL builds the public opt-out link for a lead.
func (s *LeadService) UnsubscribeURL(lead model.Lead) string {
	return fmt.Sprintf("%s/unsubscribe/%d/%s", s.app.SiteURL, lead.ID, s.UnsubscribeToken(lead.ID))
}

// Unsubscribe opts a lead out after verifying the link token. Repeated
// calls are idempotent.
func (s *LeadService) Unsubscribe(leadID uint, token string) error {
	expected := s.UnsubscribeToken(leadID)
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return validationf("invalid unsubscribe link")
	}

	lead, err := s.leads.GetByID(leadID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Resource: "lead", ID: leadID}
	}
	if err != nil {
		return err
	}

	if lead.Status == model.LeadStatusUnsubscribed {
		return nil
	}

	now := time.Now()
	lead.Status = model.LeadStatusUnsubscribed
	lead.UnsubscribedAt = &now
	return s.leads.Update(lead)
}

func (s *LeadService) Get(id uint) (*model.Lead, error) {
	lead, err := s.leads.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "lead", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func (s *LeadService) List(filter repository.LeadFilter) ([]model.Lead, int64, error) {
	leads, err := s.leads.List(filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.leads.Count(repository.LeadFilter{
		Status:     filter.Status,
		GroupID:    filter.GroupID,
		CategoryID: filter.CategoryID,
		Search:     filter.Search,
	})
	if err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}

// CreateManual inserts a lead from the admin side, bypassing rate limiting
// and opt-in.
func (s *LeadService) CreateManual(input SubmitLeadInput) (*model.Lead, error) {
	address := strings.ToLower(strings.TrimSpace(input.Email))
	if err := s.validateEmail(address); err != nil {
		return nil, err
	}

	existing, err := s.leads.GetByEmail(address)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, validationf("email is already subscribed")
	}

	lead := model.Lead{
		Email:        address,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Phone:        strings.TrimSpace(input.Phone),
		Status:       model.LeadStatusActive,
		Source:       model.LeadSourceManual,
		Tags:         input.Tags,
		CustomFields: model.NewCustomFields(input.CustomFields),
	}

	if err := s.leads.Create(&lead); err != nil {
		return nil, err
	}

	if len(input.CategoryIDs) > 0 {
		if err := s.leads.ReplaceCategories(lead.ID, input.CategoryIDs); err != nil {
			return nil, err
		}
	}
	if len(input.GroupIDs) > 0 {
		if err := s.leads.ReplaceGroups(lead.ID, input.GroupIDs); err != nil {
			return nil, err
		}
	}
	return &lead, nil
}

func (s *LeadService) Update(id uint, input UpdateLeadInput) (*model.Lead, error) {
	lead, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		lead.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		lead.LastName = *input.LastName
	}
	if input.Phone != nil {
		lead.Phone = *input.Phone
	}
	if input.Status != nil {
		switch *input.Status {
		case model.LeadStatusActive, model.LeadStatusPending,
			model.LeadStatusUnsubscribed, model.LeadStatusBounced:
		default:
			return nil, validationf("unknown lead status: %s", *input.Status)
		}
		lead.Status = *input.Status
	}
	if input.Tags != nil {
		lead.Tags = *input.Tags
	}
	if input.CustomFields != nil {
		lead.CustomFields = model.NewCustomFields(*input.CustomFields)
	}

	if err := s.leads.Update(lead); err != nil {
		return nil, err
	}
	return lead, nil
}

func (s *LeadService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.leads.Delete(id)
}

func (s *LeadService) UpdateCategories(leadID uint, categoryIDs []uint) error {
	if _, err := s.Get(leadID); err != nil {
		return err
	}
	return s.leads.ReplaceCategories(leadID, categoryIDs)
}

func (s *LeadService) UpdateGroups(leadID uint, groupIDs []uint) error {
	if _, err := s.Get(leadID); err != nil {
		return err
	}
	return s.leads.ReplaceGroups(leadID, groupIDs)
}

func (s *LeadService) Categories(leadID uint) ([]uint, error) {
	if _, err := s.Get(leadID); err != nil {
		return nil, err
	}
	return s.leads.CategoryIDs(leadID)
}

func (s *LeadService) Stats() (*LeadStats, error) {
	stats := LeadStats{}

	var err error
	if stats.Total, err = s.leads.Count(repository.LeadFilter{}); err != nil {
		return nil, err
	}

	byStatus := []struct {
		status model.LeadStatus
		target *int64
	}{
		{model.LeadStatusActive, &stats.Active},
		{model.LeadStatusPending, &stats.Pending},
		{model.LeadStatusUnsubscribed, &stats.Unsubscribed},
		{model.LeadStatusBounced, &stats.Bounced},
	}
	for _, entry := range byStatus {
		count, err := s.leads.Count(repository.LeadFilter{Status: entry.status})
		if err != nil {
			return nil, err
		}
		*entry.target = count
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if stats.Today, err = s.leads.CountCreatedAfter(today); err != nil {
		return nil, err
	}
	if stats.ThisWeek, err = s.leads.CountCreatedAfter(now.AddDate(0, 0, -7)); err != nil {
		return nil, err
	}
	if stats.ThisMonth, err = s.leads.CountCreatedAfter(now.AddDate(0, -1, 0)); err != nil {
		return nil, err
	}

	return &stats, nil
}

// ExportCSV writes the filtered leads as CSV and uploads the file to the
// export bucket, returning the object URL.
func (s *LeadService) ExportCSV(ctx context.Context, filter repository.LeadFilter) (string, error) {
	if s.store == nil {
		return "", validationf("export storage is not configured")
	}

	filter.Limit = 0
	leads, err := s.leads.List(filter)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"id", "email", "first_name", "last_name", "phone", "status", "source", "created_at"}
	if err := writer.Write(header); err != nil {
		return "", err
	}
	for _, lead := range leads {
		row := []string{
			strconv.FormatUint(uint64(lead.ID), 10),
			lead.Email,
			lead.FirstName,
			lead.LastName,
			lead.Phone,
			string(lead.Status),
			lead.Source,
			lead.CreatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return s.store.UploadCSV(ctx, "leads", buf.Bytes())
}

// PurgeInactive deletes unsubscribed and bounced leads older than the
// configured retention window. A zero retention disables purging.
func (s *LeadService) PurgeInactive(now time.Time) (int64, error) {
	if s.app.PurgeAfterDays <= 0 {
		return 0, nil
	}

	cutoff := now.AddDate(0, 0, -s.app.PurgeAfterDays)
	return s.leads.DeleteOlderThan(cutoff, []model.LeadStatus{
		model.LeadStatusUnsubscribed,
		model.LeadStatusBounced,
	})
}
