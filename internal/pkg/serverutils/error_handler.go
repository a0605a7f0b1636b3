package serverutils

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts panics into a structured 500 so a single
// request can never take the process down.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Recovered from panic: %v", r)
				_ = ctx.Status(fiber.StatusInternalServerError).JSON(Fail("Internal server error"))
			}
		}()
		return ctx.Next()
	}
}
