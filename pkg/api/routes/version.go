package routes

import (
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
)

// Version is stamped at build time with -ldflags "-X .../routes.Version=..."
var Version = "dev"

func APIVersion(c *fiber.Ctx) error {
	response := fiber.Map{
		"name":    "gopass-dashboard",
		"version": Version,
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		response["go"] = info.GoVersion
	}

	return c.JSON(response)
}
