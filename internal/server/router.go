package server

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/onto-hub/onto-hub/internal/registry"
)

// AppOptions controls how the Fiber application should behave on a specific port.
type AppOptions struct {
	Logger     *logrus.Logger
	Registry   *registry.Registry
	ListenPort int
}

const contextKeyRequestID = "_ontohub_request_id"

// NewApp builds a Fiber application with request-ID middleware and the
// ontology route family mounted.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Registry == nil {
		return nil, errors.New("ontology registry is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestIDMiddleware())

	handler := NewOntologyHandler(opts.Registry, opts.Logger)
	app.Get("/ontologies/:id/:version/:format", handler.Fetch)
	app.Head("/ontologies/:id/:version/:format", handler.Fetch)
	app.Delete("/ontologies/:id/:version/:format", handler.Remove)

	return app, nil
}

// requestIDMiddleware 为每个请求生成 UUID，写入响应头并存入 Locals 供日志使用。
func requestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}
