package routes

import (
	"github.com/gofiber/fiber/v3"

	"github.com/onto-hub/onto-hub/internal/registry"
	"github.com/onto-hub/onto-hub/internal/version"
)

// RegisterDiagnosticsRoutes 暴露 /-/ 下的诊断接口：健康检查与缓存清单。
// 这些接口只读本地状态，绝不触发上游请求。
func RegisterDiagnosticsRoutes(app *fiber.App, reg *registry.Registry) {
	if app == nil || reg == nil {
		return
	}

	app.Get("/-/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"version": version.Full(),
		})
	})

	app.Get("/-/ontologies", func(c fiber.Ctx) error {
		entries, err := reg.List()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "list_failed"})
		}
		return c.JSON(fiber.Map{
			"storage_path": reg.Root(),
			"count":        len(entries),
			"entries":      entries,
		})
	})
}
