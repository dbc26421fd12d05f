package service

import (
	"errors"
	"testing"
	"time"

	"leadcollector_backend/internal/model"
	"leadcollector_backend/pkg/config"
)

func newTestCampaignService() (*CampaignService, *memCampaignRepo, *memLeadRepo, *recordingMailer) {
	leads := newMemLeadRepo()
	groups := newMemGroupRepo(leads)
	campaigns := newMemCampaignRepo()
	mailer := newRecordingMailer()

	app := config.AppConfig{
		SiteName:     "Example",
		SiteURL:      "https://example.com",
		StuckTimeout: time.Hour,
	}

	svc := NewCampaignService(campaigns, NewResolver(leads, groups), mailer, app, func(lead model.Lead) string {
		return "https://example.com/unsubscribe/" + lead.Email
	})
	return svc, campaigns, leads, mailer
}

func seedActiveLeads(leads *memLeadRepo, emails ...string) {
	for _, email := range emails {
		leads.add(model.Lead{Email: email, Status: model.LeadStatusActive})
	}
}

func TestCreateCampaignRequiresContent(t *testing.T) {
	svc, _, _, _ := newTestCampaignService()

	_, err := svc.Create(CreateCampaignInput{Name: "Spring", Subject: "", Body: "<p>x</p>"})

	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("got %v, want ValidationError", err)
	}
}

func TestCreateCampaignSnapshotsRecipientCount(t *testing.T) {
	svc, _, leads, _ := newTestCampaignService()
	seedActiveLeads(leads, "a@example.com", "b@example.com")
	leads.add(model.Lead{Email: "c@example.com", Status: model.LeadStatusPending})

	campaign, err := svc.Create(CreateCampaignInput{
		Name: "Spring", Subject: "Hello", Body: "<p>hi</p>",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if campaign.Status != model.CampaignStatusDraft {
		t.Errorf("status = %s, want draft", campaign.Status)
	}
	if campaign.TotalRecipients != 2 {
		t.Errorf("total_recipients = %d, want 2", campaign.TotalRecipients)
	}
}

func TestUpdateRejectsLockedCampaign(t *testing.T) {
	svc, campaigns, _, _ := newTestCampaignService()

	for _, status := range []model.CampaignStatus{
		model.CampaignStatusSending,
		model.CampaignStatusSent,
		model.CampaignStatusFailed,
	} {
		campaign := &model.Campaign{Name: "Locked", Subject: "s", Body: "b", Status: status}
		campaigns.Create(campaign)

		name := "New name"
		_, err := svc.Update(campaign.ID, UpdateCampaignInput{Name: &name})

		var conflict *StateConflictError
		if !errors.As(err, &conflict) {
			t.Errorf("status %s: got %v, want StateConflictError", status, err)
		}
	}
}

func TestSendDeliversAndFinalizes(t *testing.T) {
	svc, campaigns, leads, mailer := newTestCampaignService()
	seedActiveLeads(leads, "a@example.com", "b@example.com", "c@example.com")

	campaign, err := svc.Create(CreateCampaignInput{
		Name: "Launch", Subject: "Hi {{lead_first_name}}", Body: "<p>{{unsubscribe_url}}</p>",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sent, err := svc.Send(campaign.ID)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if sent.Status != model.CampaignStatusSent {
		t.Errorf("status = %s, want sent", sent.Status)
	}
	if sent.TotalSent != 3 || sent.TotalFailed != 0 {
		t.Errorf("totals = %d/%d, want 3/0", sent.TotalSent, sent.TotalFailed)
	}
	if sent.SentAt == nil {
		t.Error("sent_at not set")
	}
	if len(campaigns.logs) != 3 {
		t.Errorf("got %d log rows, want 3", len(campaigns.logs))
	}
	if len(mailer.sent) != 3 {
		t.Errorf("got %d emails, want 3", len(mailer.sent))
	}

	// Unsubscribe link is rendered per recipient.
	for _, mail := range mailer.sent {
		want := "https://example.com/unsubscribe/" + mail.To
		if mail.Body != "<p>"+want+"</p>" {
			t.Errorf("body for %s = %q, missing personal unsubscribe link", mail.To, mail.Body)
		}
	}
}

func TestSendWithZeroRecipientsFails(t *testing.T) {
	svc, _, _, mailer := newTestCampaignService()

	campaign, err := svc.Create(CreateCampaignInput{
		Name: "Empty", Subject: "s", Body: "b",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = svc.Send(campaign.ID)

	var noRecipients *NoRecipientsError
	if !errors.As(err, &noRecipients) {
		t.Fatalf("got %v, want NoRecipientsError", err)
	}

	stored, _ := svc.Get(campaign.ID)
	if stored.Status != model.CampaignStatusFailed {
		t.Errorf("status = %s, want failed", stored.Status)
	}
	if len(mailer.sent) != 0 {
		t.Errorf("sent %d emails, want 0", len(mailer.sent))
	}
}

func TestSendWithPartialFailuresStillEndsSent(t *testing.T) {
	svc, _, leads, mailer := newTestCampaignService()
	seedActiveLeads(leads, "good@example.com", "bad@example.com")
	mailer.failFor["bad@example.com"] = true

	campaign, _ := svc.Create(CreateCampaignInput{Name: "Mixed", Subject: "s", Body: "b"})

	sent, err := svc.Send(campaign.ID)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if sent.Status != model.CampaignStatusSent {
		t.Errorf("status = %s, want sent despite failures", sent.Status)
	}
	if sent.TotalSent != 1 || sent.TotalFailed != 1 {
		t.Errorf("totals = %d/%d, want 1/1", sent.TotalSent, sent.TotalFailed)
	}
}

func TestSendTwiceIsRejected(t *testing.T) {
	svc, _, leads, _ := newTestCampaignService()
	seedActiveLeads(leads, "a@example.com")

	campaign, _ := svc.Create(CreateCampaignInput{Name: "Once", Subject: "s", Body: "b"})

	if _, err := svc.Send(campaign.ID); err != nil {
		t.Fatalf("first Send: %v", err)
	}

	_, err := svc.Send(campaign.ID)
	var conflict *StateConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v, want StateConflictError on re-send", err)
	}
}

func TestProcessScheduledSendsDueCampaignsOnly(t *testing.T) {
	svc, campaigns, leads, mailer := newTestCampaignService()
	seedActiveLeads(leads, "a@example.com")

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	due := &model.Campaign{Name: "Due", Subject: "s", Body: "b", TargetType: model.TargetAll,
		Status: model.CampaignStatusScheduled, ScheduledAt: &past}
	notDue := &model.Campaign{Name: "Later", Subject: "s", Body: "b", TargetType: model.TargetAll,
		Status: model.CampaignStatusScheduled, ScheduledAt: &future}
	campaigns.Create(due)
	campaigns.Create(notDue)

	svc.ProcessScheduled(time.Now())

	stored, _ := svc.Get(due.ID)
	if stored.Status != model.CampaignStatusSent {
		t.Errorf("due campaign status = %s, want sent", stored.Status)
	}
	storedLater, _ := svc.Get(notDue.ID)
	if storedLater.Status != model.CampaignStatusScheduled {
		t.Errorf("future campaign status = %s, want scheduled", storedLater.Status)
	}
	if len(mailer.sent) != 1 {
		t.Errorf("sent %d emails, want 1", len(mailer.sent))
	}
}

func TestRecoverStuckSkipsAlreadyDelivered(t *testing.T) {
	svc, campaigns, leads, mailer := newTestCampaignService()

	done := leads.add(model.Lead{Email: "done@example.com", Status: model.LeadStatusActive})
	leads.add(model.Lead{Email: "remaining@example.com", Status: model.LeadStatusActive})

	stuck := &model.Campaign{Name: "Crashed", Subject: "s", Body: "b", TargetType: model.TargetAll,
		Status: model.CampaignStatusSending}
	stuck.UpdatedAt = time.Now().Add(-2 * time.Hour)
	campaigns.Create(stuck)

	// The first recipient already got the email before the crash.
	logRow, _ := campaigns.CreateLog(stuck.ID, done.ID)
	campaigns.MarkLogSent(logRow.ID)

	svc.RecoverStuck(time.Now())

	stored, _ := svc.Get(stuck.ID)
	if stored.Status != model.CampaignStatusSent {
		t.Fatalf("status = %s, want sent after recovery", stored.Status)
	}
	if stored.TotalSent != 2 {
		t.Errorf("total_sent = %d, want 2 counting the pre-crash delivery", stored.TotalSent)
	}
	if mailer.sentTo("done@example.com") {
		t.Error("already delivered recipient was mailed again")
	}
	if !mailer.sentTo("remaining@example.com") {
		t.Error("remaining recipient was not mailed")
	}
}

func TestRecoverStuckReusesPendingLogRow(t *testing.T) {
	svc, campaigns, leads, mailer := newTestCampaignService()

	interrupted := leads.add(model.Lead{Email: "interrupted@example.com", Status: model.LeadStatusActive})

	stuck := &model.Campaign{Name: "Crashed", Subject: "s", Body: "b", TargetType: model.TargetAll,
		Status: model.CampaignStatusSending}
	stuck.UpdatedAt = time.Now().Add(-2 * time.Hour)
	campaigns.Create(stuck)

	// The crash happened after the row was created but before delivery.
	pending, _ := campaigns.CreateLog(stuck.ID, interrupted.ID)

	svc.RecoverStuck(time.Now())

	var rows []*model.CampaignLog
	for _, logRow := range campaigns.logs {
		if logRow.CampaignID == stuck.ID && logRow.LeadID == interrupted.ID {
			rows = append(rows, logRow)
		}
	}
	if len(rows) != 1 {
		t.Fatalf("got %d log rows for the pair, want exactly 1", len(rows))
	}
	if rows[0].ID != pending.ID {
		t.Errorf("a new row %d was created instead of reusing row %d", rows[0].ID, pending.ID)
	}
	if rows[0].Status != model.LogStatusSent {
		t.Errorf("row status = %s, want sent after resumed delivery", rows[0].Status)
	}
	if !mailer.sentTo("interrupted@example.com") {
		t.Error("undelivered recipient was not mailed on resume")
	}

	stored, _ := svc.Get(stuck.ID)
	if stored.TotalSent != 1 {
		t.Errorf("total_sent = %d, want 1", stored.TotalSent)
	}
}

func TestStatsRatesRoundedAndZeroSafe(t *testing.T) {
	svc, campaigns, _, _ := newTestCampaignService()

	campaign := &model.Campaign{Name: "Report", Subject: "s", Body: "b",
		Status: model.CampaignStatusSent, TotalSent: 3}
	campaigns.Create(campaign)

	logRow, _ := campaigns.CreateLog(campaign.ID, 1)
	campaigns.MarkLogSent(logRow.ID)
	campaigns.MarkLogOpened(logRow.ID)

	stats, err := svc.Stats(campaign.ID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	// 1/3 of 100 = 33.333..., rounded to two decimals.
	if stats.OpenRate != 33.33 {
		t.Errorf("open rate = %v, want 33.33", stats.OpenRate)
	}
	if stats.ClickRate != 0 {
		t.Errorf("click rate = %v, want 0", stats.ClickRate)
	}

	empty := &model.Campaign{Name: "Empty", Subject: "s", Body: "b",
		Status: model.CampaignStatusFailed, TotalSent: 0}
	campaigns.Create(empty)

	emptyStats, err := svc.Stats(empty.ID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if emptyStats.OpenRate != 0 || emptyStats.ClickRate != 0 {
		t.Errorf("rates = %v/%v, want 0/0 when nothing was sent", emptyStats.OpenRate, emptyStats.ClickRate)
	}
}

func TestTrackOpenFirstHitWins(t *testing.T) {
	svc, campaigns, _, _ := newTestCampaignService()

	campaign := &model.Campaign{Name: "Track", Subject: "s", Body: "b",
		Status: model.CampaignStatusSent}
	campaigns.Create(campaign)
	logRow, _ := campaigns.CreateLog(campaign.ID, 1)
	campaigns.MarkLogSent(logRow.ID)

	if err := svc.TrackOpen(logRow.ID); err != nil {
		t.Fatalf("TrackOpen: %v", err)
	}
	first, _ := campaigns.GetLog(logRow.ID)

	if err := svc.TrackOpen(logRow.ID); err != nil {
		t.Fatalf("second TrackOpen: %v", err)
	}
	second, _ := campaigns.GetLog(logRow.ID)

	if first.OpenedAt == nil || !first.OpenedAt.Equal(*second.OpenedAt) {
		t.Error("opened_at changed on repeat hit")
	}
}
