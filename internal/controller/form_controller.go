package controller

import (
	"errors"

	"leadcollector_backend/internal/model"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// defaultFormFields is the field set seeded into new forms.
var defaultFormFields = datatypes.JSON([]byte(`[
  {"name": "email", "type": "email", "label": "Email", "required": true, "placeholder": "you@example.com"},
  {"name": "first_name", "type": "text", "label": "First name", "required": false, "placeholder": ""}
]`))

type formInput struct {
	Name           string         `json:"name"`
	Title          string         `json:"title"`
	Subtitle       string         `json:"subtitle"`
	Fields         datatypes.JSON `json:"fields"`
	Style          string         `json:"style"`
	DoubleOptin    *bool          `json:"double_optin"`
	RedirectURL    string         `json:"redirect_url"`
	SuccessMessage string         `json:"success_message"`
	IsActive       *bool          `json:"is_active"`
}

// FormController manages signup form definitions. The public Show endpoint
// serves a form to the embedding site; the rest is admin-only.
type FormController struct {
	db *gorm.DB
}

func NewFormController(db *gorm.DB) *FormController {
	return &FormController{db: db}
}

// Show serves an active form definition for public embedding.
func (ctl *FormController) Show(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	var form model.Form
	if err := ctl.db.Where("id = ? AND is_active = ?", id, true).First(&form).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Form not found"})
	}
	return c.JSON(form)
}

func (ctl *FormController) List(c *fiber.Ctx) error {
	var forms []model.Form
	if err := ctl.db.Order("created_at DESC").Find(&forms).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch forms"})
	}
	return c.JSON(fiber.Map{"forms": forms})
}

func (ctl *FormController) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	var form model.Form
	if err := ctl.db.First(&form, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Form not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch form"})
	}
	return c.JSON(form)
}

func (ctl *FormController) Create(c *fiber.Ctx) error {
	input := new(formInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	if input.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Form name is required"})
	}

	form := model.Form{
		Name:           input.Name,
		Title:          input.Title,
		Subtitle:       input.Subtitle,
		Fields:         input.Fields,
		Style:          input.Style,
		RedirectURL:    input.RedirectURL,
		SuccessMessage: input.SuccessMessage,
		IsActive:       true,
	}
	if len(form.Fields) == 0 {
		form.Fields = defaultFormFields
	}
	if form.Style == "" {
		form.Style = model.FormStyleDark
	}
	if input.DoubleOptin != nil {
		form.DoubleOptin = *input.DoubleOptin
	}
	if input.IsActive != nil {
		form.IsActive = *input.IsActive
	}

	if err := ctl.db.Create(&form).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not create form"})
	}
	return c.Status(fiber.StatusCreated).JSON(&form)
}

func (ctl *FormController) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	var form model.Form
	if err := ctl.db.First(&form, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Form not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch form"})
	}

	input := new(formInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	if input.Name != "" {
		form.Name = input.Name
	}
	if input.Title != "" {
		form.Title = input.Title
	}
	if input.Subtitle != "" {
		form.Subtitle = input.Subtitle
	}
	if len(input.Fields) > 0 {
		form.Fields = input.Fields
	}
	if input.Style != "" {
		form.Style = input.Style
	}
	if input.RedirectURL != "" {
		form.RedirectURL = input.RedirectURL
	}
	if input.SuccessMessage != "" {
		form.SuccessMessage = input.SuccessMessage
	}
	if input.DoubleOptin != nil {
		form.DoubleOptin = *input.DoubleOptin
	}
	if input.IsActive != nil {
		form.IsActive = *input.IsActive
	}

	if err := ctl.db.Save(&form).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not update form"})
	}
	return c.JSON(&form)
}

func (ctl *FormController) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	if err := ctl.db.Unscoped().Delete(&model.Form{}, id).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not delete form"})
	}
	return c.JSON(fiber.Map{"message": "Form deleted"})
}
