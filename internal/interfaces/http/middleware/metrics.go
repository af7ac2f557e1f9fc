// Package middleware 提供 HTTP 中间件
package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"seo-writer-api/pkg/metrics"
)

// Metrics Prometheus 指标采集中间件
// 探活与指标路由不计数；SSE 响应的耗时记入单独的直方图，避免拉高普通请求的分位数
func Metrics() gin.HandlerFunc {
	skip := make(map[string]bool, len(DefaultSkipPaths))
	for _, p := range DefaultSkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		if size := c.Request.ContentLength; size > 0 {
			metrics.HTTPRequestSize.WithLabelValues(method, route).Observe(float64(size))
		}

		c.Next()

		elapsed := time.Since(start).Seconds()
		metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		if isEventStream(c) {
			metrics.HTTPStreamDuration.WithLabelValues(route).Observe(elapsed)
		} else {
			metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed)
		}
		if size := c.Writer.Size(); size > 0 {
			metrics.HTTPResponseSize.WithLabelValues(method, route).Observe(float64(size))
		}
	}
}

func isEventStream(c *gin.Context) bool {
	return strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "text/event-stream")
}
