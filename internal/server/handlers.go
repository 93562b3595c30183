package server

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/onto-hub/onto-hub/internal/logging"
	"github.com/onto-hub/onto-hub/internal/registry"
)

// OntologyHandler 负责 orchestrate “缓存命中 → 回源注册 → 返回文件” 的全流程，
// 对外暴露 Fiber handler，内部复用共享的注册表实例。
type OntologyHandler struct {
	registry *registry.Registry
	logger   *logrus.Logger
}

// NewOntologyHandler constructs the handler shared by all ontology routes.
func NewOntologyHandler(reg *registry.Registry, logger *logrus.Logger) *OntologyHandler {
	return &OntologyHandler{
		registry: reg,
		logger:   logger,
	}
}

// Fetch 处理 GET/HEAD /ontologies/:id/:version/:format：先查本地缓存，
// 未命中则经注册表回源下载，最终把缓存文件发回客户端。
func (h *OntologyHandler) Fetch(c fiber.Ctx) error {
	started := time.Now()
	requestID := RequestID(c)

	ontologyID := c.Params("id")
	selector := registry.ParseVersion(c.Params("version"))
	fileType, err := registry.ParseFileType(c.Params("format"))
	if err != nil {
		return h.renderError(c, "fetch", ontologyID, c.Params("version"), c.Params("format"), requestID, err)
	}

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	path, err := h.registry.Lookup(ctx, ontologyID, selector, fileType)
	cacheHit := err == nil
	if errors.Is(err, registry.ErrNotRegistered) {
		path, err = h.registry.Register(ctx, ontologyID, selector, fileType)
	}
	if err != nil {
		return h.renderError(c, "fetch", ontologyID, selector.String(), string(fileType), requestID, err)
	}

	c.Set("X-Onto-Hub-Cache-Hit", strconv.FormatBool(cacheHit))

	fields := logging.FetchFields(ontologyID, selector.String(), string(fileType), cacheHit)
	fields["action"] = "fetch"
	fields["request_id"] = requestID
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	h.logger.WithFields(fields).Info("ontology served")

	return c.SendFile(path)
}

// Remove 处理 DELETE /ontologies/:id/:version/:format，注销对应的缓存条目。
func (h *OntologyHandler) Remove(c fiber.Ctx) error {
	requestID := RequestID(c)

	ontologyID := c.Params("id")
	selector := registry.ParseVersion(c.Params("version"))
	fileType, err := registry.ParseFileType(c.Params("format"))
	if err != nil {
		return h.renderError(c, "remove", ontologyID, c.Params("version"), c.Params("format"), requestID, err)
	}

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := h.registry.Unregister(ctx, ontologyID, selector, fileType); err != nil {
		return h.renderError(c, "remove", ontologyID, selector.String(), string(fileType), requestID, err)
	}

	fields := logging.FetchFields(ontologyID, selector.String(), string(fileType), false)
	fields["action"] = "remove"
	fields["request_id"] = requestID
	h.logger.WithFields(fields).Info("ontology unregistered")

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *OntologyHandler) renderError(c fiber.Ctx, action, ontologyID, version, format, requestID string, err error) error {
	status, code := classifyError(err)

	fields := logging.FetchFields(ontologyID, version, format, false)
	fields["action"] = action
	fields["request_id"] = requestID
	fields["error"] = code
	h.logger.WithFields(fields).Warn(err.Error())

	return c.Status(status).JSON(fiber.Map{"error": code})
}

// classifyError 把注册表错误分类映射到 HTTP 状态码与稳定的错误码字符串。
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, registry.ErrInvalidIdentifier):
		return fiber.StatusBadRequest, "invalid_identifier"
	case errors.Is(err, registry.ErrUnsupportedFormat):
		return fiber.StatusUnsupportedMediaType, "unsupported_format"
	case errors.Is(err, registry.ErrMetadataUnavailable):
		return fiber.StatusBadGateway, "metadata_unavailable"
	case errors.Is(err, registry.ErrFetchFailed):
		return fiber.StatusBadGateway, "fetch_failed"
	case errors.Is(err, registry.ErrNotRegistered):
		return fiber.StatusNotFound, "not_registered"
	case errors.Is(err, registry.ErrIoFailure):
		return fiber.StatusInternalServerError, "storage_failure"
	default:
		return fiber.StatusInternalServerError, "internal_error"
	}
}
