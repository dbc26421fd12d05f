package controller

import (
	"leadcollector_backend/internal/model"
	"leadcollector_backend/internal/repository"
	"leadcollector_backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

// LeadController serves both the public intake surface (submit, confirm,
// unsubscribe) and the authenticated admin CRUD.
type LeadController struct {
	leads *service.LeadService
}

func NewLeadController(leads *service.LeadService) *LeadController {
	return &LeadController{leads: leads}
}

type submitBody struct {
	service.SubmitLeadInput
	// Website is a honeypot field; bots fill it, humans never see it.
	Website string `json:"website"`
}

// Submit is the public form endpoint.
func (ctl *LeadController) Submit(c *fiber.Ctx) error {
	body := new(submitBody)
	if err := c.BodyParser(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	// Honeypot hits get a success response so bots learn nothing.
	if body.Website != "" {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Thank you for subscribing",
		})
	}

	input := body.SubmitLeadInput
	input.IPAddress = c.IP()
	input.UserAgent = c.Get("User-Agent")

	lead, err := ctl.leads.Submit(input)
	if err != nil {
		return respondError(c, err)
	}

	message := "Thank you for subscribing"
	if lead.Status == model.LeadStatusPending {
		message = "Please check your inbox to confirm your subscription"
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": message,
		"status":  lead.Status,
	})
}

// Confirm completes double opt-in from the emailed link.
func (ctl *LeadController) Confirm(c *fiber.Ctx) error {
	lead, err := ctl.leads.Confirm(c.Params("token"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Subscription confirmed",
		"email":   lead.Email,
	})
}

// Unsubscribe opts a lead out from the emailed link.
func (ctl *LeadController) Unsubscribe(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid unsubscribe link",
		})
	}

	if err := ctl.leads.Unsubscribe(id, c.Params("token")); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "You have been unsubscribed",
	})
}

func (ctl *LeadController) List(c *fiber.Ctx) error {
	filter := repository.LeadFilter{
		Status:     model.LeadStatus(c.Query("status")),
		Search:     c.Query("search"),
		GroupID:    uint(c.QueryInt("group_id")),
		CategoryID: uint(c.QueryInt("category_id")),
		Limit:      c.QueryInt("limit", 50),
		Offset:     c.QueryInt("offset", 0),
	}

	leads, total, err := ctl.leads.List(filter)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"leads": leads,
		"total": total,
	})
}

func (ctl *LeadController) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	lead, err := ctl.leads.Get(id)
	if err != nil {
		return respondError(c, err)
	}

	categories, err := ctl.leads.Categories(id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"lead":         lead,
		"category_ids": categories,
	})
}

func (ctl *LeadController) Create(c *fiber.Ctx) error {
	input := new(service.SubmitLeadInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	lead, err := ctl.leads.CreateManual(*input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(lead)
}

func (ctl *LeadController) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	input := new(service.UpdateLeadInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	lead, err := ctl.leads.Update(id, *input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(lead)
}

func (ctl *LeadController) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	if err := ctl.leads.Delete(id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Lead deleted"})
}

type idListBody struct {
	IDs []uint `json:"ids"`
}

func (ctl *LeadController) UpdateCategories(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	body := new(idListBody)
	if err := c.BodyParser(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	if err := ctl.leads.UpdateCategories(id, body.IDs); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Categories updated"})
}

func (ctl *LeadController) UpdateGroups(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	body := new(idListBody)
	if err := c.BodyParser(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	if err := ctl.leads.UpdateGroups(id, body.IDs); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Groups updated"})
}

func (ctl *LeadController) Stats(c *fiber.Ctx) error {
	stats, err := ctl.leads.Stats()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// Export uploads the filtered leads as CSV and returns the download URL.
func (ctl *LeadController) Export(c *fiber.Ctx) error {
	filter := repository.LeadFilter{
		Status:     model.LeadStatus(c.Query("status")),
		GroupID:    uint(c.QueryInt("group_id")),
		CategoryID: uint(c.QueryInt("category_id")),
		Search:     c.Query("search"),
	}

	url, err := ctl.leads.ExportCSV(c.Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}
