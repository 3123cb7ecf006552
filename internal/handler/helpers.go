package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/sonaguard/sonaguard/internal/metrics"
	"github.com/sonaguard/sonaguard/internal/middleware"
	"github.com/sonaguard/sonaguard/internal/pkg/errcode"
	appErr "github.com/sonaguard/sonaguard/internal/pkg/errors"
	"github.com/sonaguard/sonaguard/internal/pkg/response"
)

func getRequestID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextRequestIDKey)
	requestID, _ := value.(string)
	return requestID
}

func getCredential(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextCredentialKey)
	credential, _ := value.(string)
	return credential
}

// handleError is the single boundary translating internal failure kinds
// into externally stable statuses. Unclassified errors become a generic
// 500 with no internal detail leaked; the detail goes to the log, keyed by
// request id.
func handleError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, appErr.ErrInvalid):
		metrics.ErrorsTotal.WithLabelValues("validation").Inc()
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, err.Error())
	case errors.Is(err, appErr.ErrUnauthorized):
		metrics.ErrorsTotal.WithLabelValues("unauthorized").Inc()
		response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, "invalid or missing API key")
	case errors.Is(err, appErr.ErrTimeout):
		metrics.ErrorsTotal.WithLabelValues("timeout").Inc()
		response.Error(c, http.StatusRequestTimeout, errcode.ErrTimeout, "request processing timeout")
	case errors.Is(err, appErr.ErrPayloadTooLarge):
		metrics.ErrorsTotal.WithLabelValues("payload_too_large").Inc()
		response.Error(c, http.StatusRequestEntityTooLarge, errcode.ErrPayloadTooLarge, err.Error())
	case errors.Is(err, appErr.ErrDecode), errors.Is(err, appErr.ErrDuration):
		metrics.ErrorsTotal.WithLabelValues("unprocessable_audio").Inc()
		response.Error(c, http.StatusUnprocessableEntity, errcode.ErrUnprocessableAudio, err.Error())
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, http.StatusTooManyRequests, errcode.ErrTooMany, "rate limit exceeded, please try again later")
	case errors.Is(err, appErr.ErrBackendNotReady):
		metrics.ErrorsTotal.WithLabelValues("backend_not_ready").Inc()
		response.Error(c, http.StatusServiceUnavailable, errcode.ErrBackendNotReady, "analysis backend is still loading")
	default:
		logutil.GetLogger(c.Request.Context()).Error("unhandled error",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		metrics.ErrorsTotal.WithLabelValues("internal").Inc()
		response.Error(c, http.StatusInternalServerError, errcode.ErrInternal, "internal server error")
	}
}
