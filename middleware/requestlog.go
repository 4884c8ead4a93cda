package middleware

import (
	"property-sales/logger"
	"property-sales/utils"

	"github.com/gofiber/fiber/v2"
)

// RequestLogger queues every completed API request onto the async DB logger.
// Bodies are sanitized first so encrypted ids and file payloads never land in
// the log table.
func RequestLogger(asyncLogger *logger.AsyncLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		asyncLogger.Log(utils.CreateSanitizedLogEntry(c))
		return err
	}
}
