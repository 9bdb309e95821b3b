package marketdata

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
)

// RateLimitMiddleware caps /status requests per remote address, adapted
// from the teacher's internal/api/middleware/security.go SecurityMiddleware.RateLimiter.
type RateLimitMiddleware struct {
	limiter *limiter.Limiter
	logger  *zap.Logger
	metrics *Metrics
}

func NewRateLimitMiddleware(requestsPerMinute int64, logger *zap.Logger, metrics *Metrics) *RateLimitMiddleware {
	rate := limiter.Rate{Period: time.Minute, Limit: requestsPerMinute}
	return &RateLimitMiddleware{limiter: limiter.New(memory.NewStore(), rate), logger: logger, metrics: metrics}
}

func (m *RateLimitMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		ctx, err := m.limiter.Get(c.Request.Context(), ip)
		if err != nil {
			m.logger.Error("rate limiter lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(ctx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(ctx.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(ctx.Reset, 10))

		if ctx.Reached {
			m.metrics.RateLimited.Inc()
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}
