// pkg/cron/lead_purge.go
package cron

import (
	"log"
	"time"

	"leadcollector_backend/internal/service"

	"github.com/robfig/cron/v3"
)

// StartLeadPurge schedules the nightly retention cleanup for unsubscribed
// and bounced leads. Returns nil when purging is disabled.
func StartLeadPurge(leads *service.LeadService, retentionDays int) *cron.Cron {
	if retentionDays <= 0 {
		return nil
	}

	c := cron.New()

	// Nightly at 03:00.
	_, err := c.AddFunc("0 3 * * *", func() {
		deleted, err := leads.PurgeInactive(time.Now())
		if err != nil {
			log.Printf("Lead purge failed: %v", err)
			return
		}
		if deleted > 0 {
			log.Printf("Lead purge removed %d leads", deleted)
		}
	})
	if err != nil {
		log.Printf("Could not register lead purge: %v", err)
		return nil
	}

	c.Start()
	log.Printf("Lead purge initialized successfully (retention %d days)", retentionDays)
	return c
}
