package security

import (
	"math"
	"net/http"
	"peer_quiz_backend/internal/config"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, Accept, Origin, X-Requested-With, X-Request-ID"
)

// CORS 白名单来源回显 Origin 并允许 Credentials；配置 "*" 时放行全部来源但不带 Credentials
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	wildcard := false
	originSet := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			wildcard = true
			continue
		}
		originSet[o] = true
	}
	maxAge := strconv.Itoa(cfg.MaxAgeSeconds)

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		allowed := false
		switch {
		case origin == "":
		case originSet[origin]:
			allowed = true
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
		case wildcard:
			allowed = true
			h.Set("Access-Control-Allow-Origin", "*")
		}
		if allowed {
			h.Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")
		}

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}

		// 预检请求
		if origin != "" && !allowed {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		if cfg.MaxAgeSeconds > 0 {
			h.Set("Access-Control-Max-Age", maxAge)
		}
		c.AbortWithStatus(http.StatusNoContent)
	}
}

// Secure 中间件
func Secure() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 防止MIME嗅探
		c.Header("X-Content-Type-Options", "nosniff")
		// 防止点击劫持
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// KeyFunc 决定限流的维度
type KeyFunc func(c *gin.Context) string

func ClientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

// ParamKey 按 IP + 路由 + 路径参数限流，同一个人反复提交同一份测验会被单独计数
func ParamKey(param string) KeyFunc {
	return func(c *gin.Context) string {
		return c.ClientIP() + "|" + c.FullPath() + "|" + c.Param(param)
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter 令牌桶，每个 key 一个；长时间不活跃的 key 在 Allow 时顺带清理
type Limiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	every     rate.Limit
	burst     int
	expiry    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewLimiter window 内最多 maxRequests 次，允许一次性用完
func NewLimiter(maxRequests int, window time.Duration) *Limiter {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	expiry := window * 3
	if expiry < time.Minute {
		expiry = time.Minute
	}
	return &Limiter{
		visitors: make(map[string]*visitor),
		every:    rate.Every(window / time.Duration(maxRequests)),
		burst:    maxRequests,
		expiry:   expiry,
		now:      time.Now,
	}
}

// Allow 拒绝时返回需要等待的时间
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	now := l.now()
	if now.Sub(l.lastSweep) > l.expiry {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.expiry {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.every, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.mu.Unlock()

	r := v.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, l.expiry
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (l *Limiter) Middleware(key KeyFunc) gin.HandlerFunc {
	limit := strconv.Itoa(l.burst)
	return func(c *gin.Context) {
		c.Header("X-RateLimit-Limit", limit)
		ok, wait := l.Allow(key(c))
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"code": http.StatusTooManyRequests, "message": "too many requests"})
			return
		}
		c.Next()
	}
}

// RateLimiter 全局按 IP 限流
func RateLimiter(cfg config.RateLimitConfig) gin.HandlerFunc {
	return NewLimiter(cfg.MaxRequests, cfg.Window()).Middleware(ClientIPKey)
}

// SubmitLimiter 限制同一 IP 对同一映射每分钟的提交次数，perMinute <= 0 时不限
func SubmitLimiter(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return NewLimiter(perMinute, time.Minute).Middleware(ParamKey("mapId"))
}
