// pkg/cron/campaign_jobs.go
package cron

import (
	"log"
	"time"

	"leadcollector_backend/internal/service"

	"github.com/robfig/cron/v3"
)

// StartCampaignJobs schedules the campaign sweep and the stuck-send
// watchdog. The returned cron keeps running until Stop is called.
func StartCampaignJobs(campaigns *service.CampaignService) *cron.Cron {
	c := cron.New()

	// Scheduled campaigns are swept every minute.
	_, err := c.AddFunc("@every 1m", func() {
		campaigns.ProcessScheduled(time.Now())
	})
	if err != nil {
		log.Printf("Could not register campaign sweep: %v", err)
	}

	// Stuck "sending" campaigns are resumed hourly.
	_, err = c.AddFunc("0 * * * *", func() {
		campaigns.RecoverStuck(time.Now())
	})
	if err != nil {
		log.Printf("Could not register campaign watchdog: %v", err)
	}

	c.Start()
	log.Printf("Campaign jobs initialized successfully")
	return c
}
