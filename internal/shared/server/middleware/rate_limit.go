package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"docassist-web/internal/shared/metrics"
	"docassist-web/internal/shared/server/respond"
)

// Rate limit groups for the endpoints that reach the analysis backend.
const (
	RateGroupChat     = "CHAT"
	RateGroupAnalyze  = "ANALYZE"
	RateGroupGenerate = "GENERATE"
)

// RateLimitRule is a token bucket refilled at Rate tokens per second. Message
// is shown to the user when the bucket is empty.
type RateLimitRule struct {
	Rate    float64
	Burst   int
	Message string
}

// DefaultRules apply when RateLimitConfig.Rules is nil. Analysis and document
// generation are slow backend calls, so they get a much lower rate than chat.
var DefaultRules = map[string]RateLimitRule{
	RateGroupChat:     {Rate: 1, Burst: 5, Message: "Слишком много сообщений. Подождите немного."},
	RateGroupAnalyze:  {Rate: 0.2, Burst: 2, Message: "Анализ уже запускался недавно. Повторите позже."},
	RateGroupGenerate: {Rate: 0.2, Burst: 3, Message: "Слишком много запросов на создание документа. Повторите позже."},
}

// DefaultRoutes map the document detail endpoints to their groups. Used when
// RateLimitConfig.GroupFor is nil.
var DefaultRoutes = map[string]string{
	"POST /documents/:id/chat":                          RateGroupChat,
	"POST /documents/:id/analyze":                       RateGroupAnalyze,
	"POST /documents/:id/recommendations/:rid/generate": RateGroupGenerate,
}

const defaultRateLimitMessage = "Слишком много запросов. Повторите позже."

// RateLimitConfig selects a group per request. Requests whose group has no
// rule pass through.
type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	Limiter      *RateLimiter
}

type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	now     func() time.Time
}

type rateBucket struct {
	tokens float64
	last   time.Time
}

func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		buckets: make(map[string]*rateBucket),
		now:     now,
	}
}

// GroupByRoute maps "METHOD route" pairs to rate limit groups.
func GroupByRoute(routes map[string]string) func(*gin.Context) string {
	return func(c *gin.Context) string {
		return routes[c.Request.Method+" "+c.FullPath()]
	}
}

// RateLimit buckets requests per user (or client IP for anonymous callers)
// and group. Rejections use the standard error envelope with code
// "rate_limited" and a Retry-After header.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter(nil)
	}
	if cfg.Rules == nil {
		cfg.Rules = DefaultRules
	}
	if cfg.GroupFor == nil {
		cfg.GroupFor = GroupByRoute(DefaultRoutes)
	}
	return func(c *gin.Context) {
		group := strings.TrimSpace(cfg.GroupFor(c))
		if group == "" {
			group = cfg.DefaultGroup
		}
		rule, ok := cfg.Rules[group]
		if !ok {
			c.Next()
			return
		}
		principal := strings.TrimSpace(UserIDFromContext(c))
		if principal == "" {
			principal = strings.TrimSpace(c.ClientIP())
		}
		allowed, retryAfter := cfg.Limiter.Allow(principal+"|"+group, rule)
		if allowed {
			c.Next()
			return
		}
		metrics.IncRateLimited()
		rejectRateLimited(c, group, rule, retryAfter)
	}
}

func rejectRateLimited(c *gin.Context, group string, rule RateLimitRule, retryAfter time.Duration) {
	retryAfterMs := int(retryAfter / time.Millisecond)
	if retryAfterMs <= 0 {
		retryAfterMs = 1000
	}
	c.Header("Retry-After", strconv.Itoa(int(math.Ceil(float64(retryAfterMs)/1000.0))))
	msg := rule.Message
	if msg == "" {
		msg = defaultRateLimitMessage
	}
	respond.Error(c, http.StatusTooManyRequests, "rate_limited", msg, gin.H{
		"group":        group,
		"retryAfterMs": retryAfterMs,
	})
}

// Allow takes one token from the bucket for key. When empty it reports how
// long until the next token.
func (l *RateLimiter) Allow(key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil {
		return true, 0
	}
	if rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	bucket, ok := l.buckets[key]
	if !ok {
		bucket = &rateBucket{
			tokens: float64(rule.Burst),
			last:   now,
		}
		l.buckets[key] = bucket
	}
	elapsed := now.Sub(bucket.last).Seconds()
	if elapsed > 0 {
		bucket.tokens = math.Min(float64(rule.Burst), bucket.tokens+elapsed*rule.Rate)
		bucket.last = now
	}
	if bucket.tokens >= 1 {
		bucket.tokens -= 1
		return true, 0
	}
	waitSec := (1 - bucket.tokens) / rule.Rate
	return false, time.Duration(math.Ceil(waitSec*1000.0)) * time.Millisecond
}
