// Package webapi provides the HTTP surface over the insight service.
// Route packages:
// - user: persona, signals, eligibility and recommendation endpoints
package webapi

import (
	_ "github.com/amirasaad/spendsense/cmd/server/swagger"
	"github.com/amirasaad/spendsense/pkg/app"
	"github.com/amirasaad/spendsense/pkg/persona"
	"github.com/amirasaad/spendsense/webapi/common"
	userweb "github.com/amirasaad/spendsense/webapi/user"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
)

// SetupApp Initialize Fiber with custom configuration
func SetupApp(a *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})
	fiberApp.Get("/swagger/*", swagger.New(swagger.Config{
		TryItOutEnabled:      true,
		PersistAuthorization: true,
	}))

	fiberApp.Use(recover.New())
	if a.Config == nil || a.Config.Env != "test" {
		fiberApp.Use(logger.New())
	}

	// Health check endpoint
	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("SpendSense API is running")
	})

	fiberApp.Get("/api/personas", ListPersonas(a.Catalog))

	userweb.Routes(fiberApp, a.InsightService, a.Deps.Cache, a.Config)
	return fiberApp
}

// ListPersonas returns the persona catalog in priority order, fallback last.
// @Summary List personas
// @Description List every persona in priority order with the fallback last
// @Tags personas
// @Produce json
// @Success 200 {object} common.Response
// @Router /api/personas [get]
func ListPersonas(catalog *persona.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		personas := append(catalog.Personas(), catalog.Fallback())
		out := make([]fiber.Map, 0, len(personas))
		for _, p := range personas {
			out = append(out, fiber.Map{
				"id":          p.ID(),
				"name":        p.Name(),
				"description": p.Description(),
				"priority":    p.Priority(),
			})
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Personas", out)
	}
}
