package controller

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"leadcollector_backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type publishEvent struct {
	OldStatus string              `json:"old_status"`
	NewStatus string              `json:"new_status"`
	Item      service.ContentItem `json:"item"`
}

// PublishController receives publish-event webhooks from the content
// platform and hands them to the notification dispatcher. Requests are
// authenticated with an HMAC signature over the raw body.
type PublishController struct {
	dispatcher *service.Dispatcher
	secret     []byte
}

func NewPublishController(dispatcher *service.Dispatcher, secret string) *PublishController {
	return &PublishController{dispatcher: dispatcher, secret: []byte(secret)}
}

func (ctl *PublishController) verify(c *fiber.Ctx) bool {
	signature := c.Get("X-Webhook-Signature")
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, ctl.secret)
	mac.Write(c.Body())
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

func (ctl *PublishController) Handle(c *fiber.Ctx) error {
	if !ctl.verify(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid signature",
		})
	}

	event := new(publishEvent)
	if err := c.BodyParser(event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid payload",
		})
	}

	sent, err := ctl.dispatcher.OnStatusTransition(event.OldStatus, event.NewStatus, event.Item)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Event processed",
		"sent":    sent,
	})
}
