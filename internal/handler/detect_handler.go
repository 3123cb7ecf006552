package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sonaguard/sonaguard/internal/metrics"
	"github.com/sonaguard/sonaguard/internal/model"
	"github.com/sonaguard/sonaguard/internal/pkg/errcode"
	"github.com/sonaguard/sonaguard/internal/pkg/response"
	"github.com/sonaguard/sonaguard/internal/service"
)

type DetectHandler struct {
	service *service.DetectService
}

func NewDetectHandler(service *service.DetectService) *DetectHandler {
	return &DetectHandler{service: service}
}

func (h *DetectHandler) Detect(c *gin.Context) {
	start := time.Now()

	var req model.DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.ErrorsTotal.WithLabelValues("validation").Inc()
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "malformed request body")
		return
	}

	res, err := h.service.Detect(c.Request.Context(), &req, getCredential(c), getRequestID(c))
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("error", "").Inc()
		handleError(c, err)
		return
	}

	metrics.RequestsTotal.WithLabelValues("success", res.Classification).Inc()
	metrics.RequestLatency.Observe(time.Since(start).Seconds())
	response.Success(c, res)
}
