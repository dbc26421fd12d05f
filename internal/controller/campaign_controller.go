package controller

import (
	"time"

	"leadcollector_backend/internal/model"
	"leadcollector_backend/internal/repository"
	"leadcollector_backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CampaignController struct {
	campaigns *service.CampaignService
}

func NewCampaignController(campaigns *service.CampaignService) *CampaignController {
	return &CampaignController{campaigns: campaigns}
}

func (ctl *CampaignController) List(c *fiber.Ctx) error {
	filter := repository.CampaignFilter{
		Status: model.CampaignStatus(c.Query("status")),
		Search: c.Query("search"),
	}

	campaigns, err := ctl.campaigns.List(filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"campaigns": campaigns})
}

func (ctl *CampaignController) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	campaign, err := ctl.campaigns.Get(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(campaign)
}

func (ctl *CampaignController) Create(c *fiber.Ctx) error {
	input := new(service.CreateCampaignInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	campaign, err := ctl.campaigns.Create(*input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(campaign)
}

func (ctl *CampaignController) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	input := new(service.UpdateCampaignInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	campaign, err := ctl.campaigns.Update(id, *input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(campaign)
}

func (ctl *CampaignController) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	if err := ctl.campaigns.Delete(id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Campaign deleted"})
}

// Send triggers an immediate send. The delivery loop runs inline; for
// large audiences clients should prefer scheduling.
func (ctl *CampaignController) Send(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	campaign, err := ctl.campaigns.Send(id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":  "Campaign sent",
		"campaign": campaign,
	})
}

type scheduleInput struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

func (ctl *CampaignController) Schedule(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	input := new(scheduleInput)
	if err := c.BodyParser(input); err != nil || input.ScheduledAt.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "A scheduled_at time is required"})
	}
	if input.ScheduledAt.Before(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scheduled_at must be in the future"})
	}

	campaign, err := ctl.campaigns.Schedule(id, input.ScheduledAt)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(campaign)
}

func (ctl *CampaignController) Stats(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	stats, err := ctl.campaigns.Stats(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
