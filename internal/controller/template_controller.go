package controller

import (
	"errors"

	"leadcollector_backend/internal/model"
	"leadcollector_backend/internal/repository"
	"leadcollector_backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type templateInput struct {
	CategoryID uint   `json:"category_id"`
	Name       string `json:"name"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	IsActive   *bool  `json:"is_active"`
}

// TemplateController manages per-category notification templates and the
// preview send.
type TemplateController struct {
	templates  repository.TemplateRepositoryInterface
	dispatcher *service.Dispatcher
}

func NewTemplateController(templates repository.TemplateRepositoryInterface, dispatcher *service.Dispatcher) *TemplateController {
	return &TemplateController{templates: templates, dispatcher: dispatcher}
}

func (ctl *TemplateController) List(c *fiber.Ctx) error {
	templates, err := ctl.templates.List()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"templates": templates})
}

func (ctl *TemplateController) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	template, err := ctl.templates.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Template not found"})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(template)
}

func (ctl *TemplateController) Create(c *fiber.Ctx) error {
	input := new(templateInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	if input.CategoryID == 0 || input.Name == "" || input.Subject == "" || input.Body == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "category_id, name, subject and body are required",
		})
	}

	template := model.NotificationTemplate{
		CategoryID: input.CategoryID,
		Name:       input.Name,
		Subject:    input.Subject,
		Body:       input.Body,
		IsActive:   true,
	}
	if input.IsActive != nil {
		template.IsActive = *input.IsActive
	}

	if err := ctl.templates.Save(&template); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(&template)
}

func (ctl *TemplateController) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	template, err := ctl.templates.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Template not found"})
	}
	if err != nil {
		return respondError(c, err)
	}

	input := new(templateInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	if input.CategoryID != 0 {
		template.CategoryID = input.CategoryID
	}
	if input.Name != "" {
		template.Name = input.Name
	}
	if input.Subject != "" {
		template.Subject = input.Subject
	}
	if input.Body != "" {
		template.Body = input.Body
	}
	if input.IsActive != nil {
		template.IsActive = *input.IsActive
	}

	if err := ctl.templates.Save(template); err != nil {
		return respondError(c, err)
	}
	return c.JSON(template)
}

func (ctl *TemplateController) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	if err := ctl.templates.Delete(id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Template deleted"})
}

type testSendInput struct {
	Email string `json:"email"`
}

// TestSend delivers the template with sample content to one address.
func (ctl *TemplateController) TestSend(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	input := new(testSendInput)
	if err := c.BodyParser(input); err != nil || input.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "A recipient email is required"})
	}

	if err := ctl.dispatcher.TestSend(id, input.Email); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Test email sent"})
}
