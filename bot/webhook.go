package bot

import (
	"crypto/subtle"
	"encoding/json"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"
)

const (
	webhookPath  = "/webhook"
	secretHeader = "X-Telegram-Bot-Api-Secret-Token"
)

// newWebhookApp serves Telegram webhook deliveries. handle must not block;
// long work is dispatched elsewhere.
func newWebhookApp(secret string, handle func(tgbotapi.Update)) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	app.Post(webhookPath, func(c *fiber.Ctx) error {
		got := c.Get(secretHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid secret token"})
		}
		var update tgbotapi.Update
		if err := json.Unmarshal(c.Body(), &update); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid update"})
		}
		handle(update)
		return c.SendStatus(fiber.StatusOK)
	})

	return app
}
