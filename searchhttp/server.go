package searchhttp

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Logger logrus.FieldLogger
	// Metrics, when set, instruments every route and serves GET /metrics.
	Metrics *Metrics
}

// NewEngine returns a gin engine with recovery, request id, access log and, optionally,
// metrics middleware installed. Resources are added with Register.
func NewEngine(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	e := gin.New()
	e.Use(gin.Recovery(), RequestID(), AccessLog(opts.Logger))
	if opts.Metrics != nil {
		e.Use(opts.Metrics.Middleware())
		e.GET("/metrics", opts.Metrics.Handler())
	}
	return e
}
