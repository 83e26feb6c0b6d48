// Package handler holds the gin handlers of the back-office API.
package handler

import (
	"net/http"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// tenantContext returns the tenant resolved by the tenant middleware
func tenantContext(c *gin.Context) shared.TenantContext {
	return middleware.GetTenantContext(c)
}

// parseID parses the named path parameter as a uuid, answering 400 when it
// is malformed
func (h *BaseHandler) parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		h.BadRequest(c, "Invalid "+param+" format")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON binds the request body into req, answering 400 on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleBindingError(c, err)
		return false
	}
	return true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// HandleError converts an error returned by a service into a response.
// Validation, not found and conflict errors are reported with their domain
// code; numbering exhaustion and invariant violations answer a generic
// message and are logged at Error with the request context.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	status, code, message := dto.ErrorFor(err)
	log := logger.L(c.Request.Context())
	fields := []zap.Field{
		zap.String("path", c.FullPath()),
		zap.String("tenant_scope", tenantContext(c).ScopeKey()),
		zap.String("kind", string(shared.KindOf(err))),
		zap.Error(err),
	}
	switch {
	case status >= http.StatusInternalServerError:
		log.Error("request failed", fields...)
	case status == http.StatusConflict:
		log.Warn("request conflicted", fields...)
	default:
		log.Debug("request rejected", fields...)
	}

	_ = c.Error(err)
	h.Error(c, status, code, message)
}
