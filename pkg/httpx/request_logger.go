package httpx

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/whoknows/weather/internal/ports"
)

// StatusHeader — заголовок, в который обработчики погоды пишут итоговый статус (fresh, stale, ...).
const StatusHeader = "X-Weather-Status"

// RequestLogger — middleware для логирования HTTP-запросов.
// request_id/trace_id/span_id добавляет сам логгер из контекста запроса.
func RequestLogger(log ports.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// служебные маршруты не логируем
		switch c.FullPath() {
		case "/metrics", "/ping":
			return
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		status := c.Writer.Status()
		weather := c.Writer.Header().Get(StatusHeader)
		if weather == "" {
			weather = "-"
		}

		logf := log.Infof
		if status >= 500 {
			logf = log.Warnf
		}
		logf(
			c.Request.Context(),
			"request method=%s path=%s city=%q status=%d weather=%s ip=%s duration=%s size=%d",
			c.Request.Method,
			path,
			c.Query("city"),
			status,
			weather,
			c.ClientIP(),
			time.Since(start),
			c.Writer.Size(),
		)
	}
}
