package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/sonaguard/sonaguard/internal/pkg/errcode"
	"github.com/sonaguard/sonaguard/internal/pkg/response"
)

const (
	ContextCredentialKey = "credential"
	HeaderAPIKey         = "x-api-key"
)

// APIKeyAuth checks the x-api-key header against the configured key set
// and stows the credential for the admission controller downstream.
func APIKeyAuth(keys []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			allowed[k] = struct{}{}
		}
	}
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderAPIKey)
		if key == "" {
			response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, "missing API key")
			c.Abort()
			return
		}
		if _, ok := allowed[key]; !ok {
			logutil.GetLogger(c.Request.Context()).Warn("rejected unknown API key",
				zap.String("path", c.Request.URL.Path))
			response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, "invalid API key")
			c.Abort()
			return
		}
		c.Set(ContextCredentialKey, key)
		c.Next()
	}
}
