package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/anoixa/event-gallery/api/common"
)

// clientLimiter 单个客户端的令牌桶及其最近访问时间
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter 按客户端 IP 维护独立令牌桶的限流器
type IPRateLimiter struct {
	rps        float64
	burst      int
	expireTime time.Duration

	mu      sync.Mutex
	clients map[string]*clientLimiter
	stop    chan struct{}
}

// NewIPRateLimiter 创建按 IP 限流的限流器并启动后台清理
func NewIPRateLimiter(rps float64, burst int, expireTime time.Duration) *IPRateLimiter {
	rl := &IPRateLimiter{
		rps:        rps,
		burst:      burst,
		expireTime: expireTime,
		clients:    make(map[string]*clientLimiter),
		stop:       make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Allow 判断指定 IP 的一次请求是否放行
func (rl *IPRateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	client, ok := rl.clients[ip]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(rl.rps), rl.burst)}
		rl.clients[ip] = client
	}
	client.lastSeen = time.Now()
	rl.mu.Unlock()

	return client.limiter.Allow()
}

// Middleware 返回 gin 中间件，超限请求返回 429
func (rl *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(clientIP(c)) {
			common.RespondErrorAbort(c, http.StatusTooManyRequests, "Too many requests")
			return
		}
		c.Next()
	}
}

// StopCleanup 停止后台清理 goroutine
func (rl *IPRateLimiter) StopCleanup() {
	close(rl.stop)
}

// cleanupLoop 周期性剔除超过 expireTime 未活动的客户端
func (rl *IPRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			rl.mu.Lock()
			for ip, client := range rl.clients {
				if now.Sub(client.lastSeen) > rl.expireTime {
					delete(rl.clients, ip)
				}
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

// clientIP 解析客户端真实 IP，优先取代理头
func clientIP(c *gin.Context) string {
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		parts := strings.Split(ip, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}
	return c.ClientIP()
}
