package payroll

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go-payroll/internal/shared/apperror"
	"go-payroll/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Handler struct {
	svc             Service
	rdb             *redis.Client
	defaultBulkMode string
	logger          *zap.Logger
}

func NewHandler(svc Service, rdb *redis.Client, defaultBulkMode string, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("payroll.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payroll.handler")
	}

	return &Handler{
		svc:             svc,
		rdb:             rdb,
		defaultBulkMode: defaultBulkMode,
		logger:          l,
	}
}

func (h *Handler) Generate(c *gin.Context) {
	var req GeneratePayrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpErr := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, err.Error())
		return
	}

	res, err := h.svc.Generate(c.Request.Context(), req)
	if err != nil {
		h.releaseIdempotencyLock(c)
		h.writeServiceError(c, err)
		return
	}

	h.cacheIdempotentResponse(c, res)
	response.Success(c, http.StatusCreated, res, nil)
}

func (h *Handler) RunBulk(c *gin.Context) {
	// An empty body is fine, the configured default mode applies.
	var req RunBulkRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpErr := apperror.ToHTTP(apperror.MapValidationError(err))
			response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, err.Error())
			return
		}
	}

	mode := req.Mode
	if mode == "" {
		mode = h.defaultBulkMode
	}

	result, err := h.svc.RunBulk(c.Request.Context(), mode)
	if err != nil {
		h.releaseIdempotencyLock(c)

		var batchErr *BatchError
		if errors.As(err, &batchErr) {
			response.Error(c, http.StatusUnprocessableEntity, apperror.CodeBatchFailed,
				"bulk payroll generation rolled back", batchErr.Failures)
			return
		}

		h.writeServiceError(c, err)
		return
	}

	h.cacheIdempotentResponse(c, result)
	response.Success(c, http.StatusOK, result, nil)
}

func (h *Handler) GetAll(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	res, total, err := h.svc.GetAll(c.Request.Context(), limit, (page-1)*limit)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	meta := response.NewPaginationMeta(total, page, limit)
	response.Success(c, http.StatusOK, res, &meta)
}

func (h *Handler) GetByID(c *gin.Context) {
	res, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, nil)
}

func (h *Handler) GetByEmployeeID(c *gin.Context) {
	res, err := h.svc.GetByEmployeeID(c.Request.Context(), c.Param("employeeId"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, nil)
}

func (h *Handler) GetByEmployeeCode(c *gin.Context) {
	res, err := h.svc.GetByEmployeeCode(c.Request.Context(), c.Param("employeeCode"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, nil)
}

func (h *Handler) GetByStatus(c *gin.Context) {
	res, err := h.svc.GetByStatus(c.Request.Context(), c.Param("status"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, nil)
}

func (h *Handler) GetByEmployeeCodeAndStatus(c *gin.Context) {
	res, err := h.svc.GetByEmployeeCodeAndStatus(c.Request.Context(), c.Param("employeeCode"), c.Param("status"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, nil)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	res, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), c.Param("status"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, nil)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true}, nil)
}

func (h *Handler) DeleteByEmployeeCode(c *gin.Context) {
	deleted, err := h.svc.DeleteByEmployeeCode(c.Request.Context(), c.Param("employeeCode"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": deleted}, nil)
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	var batchErr *BatchError
	if errors.As(err, &batchErr) {
		response.Error(c, http.StatusUnprocessableEntity, apperror.CodeBatchFailed,
			"bulk payroll generation rolled back", batchErr.Failures)
		return
	}

	httpErr := apperror.ToHTTP(err)
	if httpErr.Status >= http.StatusInternalServerError {
		h.logger.Error("payroll request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// cacheIdempotentResponse stores the success payload so the middleware can
// replay it, then releases the in-flight lock.
func (h *Handler) cacheIdempotentResponse(c *gin.Context, data any) {
	cacheKey := c.GetString("idempotency_cache_key")
	if cacheKey == "" || h.rdb == nil {
		return
	}

	if payload, err := json.Marshal(data); err == nil {
		h.rdb.Set(c.Request.Context(), cacheKey, payload, 24*time.Hour)
	}
	h.releaseIdempotencyLock(c)
}

func (h *Handler) releaseIdempotencyLock(c *gin.Context) {
	lockKey := c.GetString("idempotency_lock_key")
	if lockKey == "" || h.rdb == nil {
		return
	}
	h.rdb.Del(c.Request.Context(), lockKey)
}
