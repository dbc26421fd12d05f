package controller

import (
	"leadcollector_backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type GroupController struct {
	groups *service.GroupService
}

func NewGroupController(groups *service.GroupService) *GroupController {
	return &GroupController{groups: groups}
}

func (ctl *GroupController) List(c *fiber.Ctx) error {
	groups, err := ctl.groups.List(c.Query("search"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"groups": groups})
}

func (ctl *GroupController) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	group, err := ctl.groups.Get(id)
	if err != nil {
		return respondError(c, err)
	}

	categories, err := ctl.groups.Categories(id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"group":        group,
		"category_ids": categories,
	})
}

func (ctl *GroupController) Create(c *fiber.Ctx) error {
	input := new(service.GroupInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	group, err := ctl.groups.Create(*input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(group)
}

func (ctl *GroupController) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	input := new(service.GroupInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	group, err := ctl.groups.Update(id, *input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(group)
}

func (ctl *GroupController) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	if err := ctl.groups.Delete(id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Group deleted"})
}

func (ctl *GroupController) AssignCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}
	categoryID, err := paramID(c, "categoryId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid category id"})
	}

	if err := ctl.groups.AssignCategory(id, categoryID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Category assigned"})
}

func (ctl *GroupController) RemoveCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}
	categoryID, err := paramID(c, "categoryId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid category id"})
	}

	if err := ctl.groups.RemoveCategory(id, categoryID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Category removed"})
}

func (ctl *GroupController) AddLead(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}
	leadID, err := paramID(c, "leadId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lead id"})
	}

	if err := ctl.groups.AddLead(id, leadID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Lead added to group"})
}

func (ctl *GroupController) RemoveLead(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}
	leadID, err := paramID(c, "leadId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lead id"})
	}

	if err := ctl.groups.RemoveLead(id, leadID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Lead removed from group"})
}

func (ctl *GroupController) Stats(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	stats, err := ctl.groups.Stats(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
