package controller

import (
	"log"

	"leadcollector_backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

// trackingPixel is a 1x1 transparent GIF served on open-tracking hits.
var trackingPixel = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

// TrackingController handles the public open/click endpoints embedded in
// campaign emails. Both always respond successfully; tracking failures are
// logged and never shown to the recipient.
type TrackingController struct {
	campaigns *service.CampaignService
}

func NewTrackingController(campaigns *service.CampaignService) *TrackingController {
	return &TrackingController{campaigns: campaigns}
}

// Open serves the tracking pixel and records the first open.
func (ctl *TrackingController) Open(c *fiber.Ctx) error {
	if id, err := paramID(c, "logId"); err == nil {
		if err := ctl.campaigns.TrackOpen(id); err != nil {
			log.Printf("tracking: open log %d: %v", id, err)
		}
	}

	c.Set("Content-Type", "image/gif")
	c.Set("Cache-Control", "no-store")
	return c.Send(trackingPixel)
}

// Click records the first click and redirects to the original link.
func (ctl *TrackingController) Click(c *fiber.Ctx) error {
	target := c.Query("url")
	if target == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing url"})
	}

	if id, err := paramID(c, "logId"); err == nil {
		if err := ctl.campaigns.TrackClick(id); err != nil {
			log.Printf("tracking: click log %d: %v", id, err)
		}
	}

	return c.Redirect(target, fiber.StatusFound)
}
