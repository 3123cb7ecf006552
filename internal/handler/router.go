package handler

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/sonaguard/sonaguard/internal/metrics"
	"github.com/sonaguard/sonaguard/internal/middleware"
)

type RouterDeps struct {
	Detect        *DetectHandler
	Health        *HealthHandler
	APIKeys       []string
	CORSAllowlist []string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.CORS(deps.CORSAllowlist))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	engine.GET("/", deps.Health.Root)
	engine.GET("/health/live", deps.Health.Live)
	engine.GET("/health/ready", deps.Health.Ready)
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	authGroup := engine.Group("")
	authGroup.Use(middleware.APIKeyAuth(deps.APIKeys))
	authGroup.POST("/detect-voice", deps.Detect.Detect)
	// Some clients post to the root; accept it for compatibility.
	authGroup.POST("/", deps.Detect.Detect)

	return engine
}
