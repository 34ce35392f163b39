package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Baaaki/procurehub/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	bannedIPsKey     = "banned_ips"
	counterPrefix    = "ratelimit:"
	blockKeyPrefix   = "ratelimit:block:"
	lockoutKeyPrefix = "ratelimit:lockouts:"

	// lockouts older than this no longer count towards a ban
	lockoutMemory = 24 * time.Hour

	msgIPBanned        = "Your IP address has been banned"
	msgTooManyRequests = "Too many requests. Please try again later."
)

type RateLimiterConfig struct {
	MaxRequests int           // requests allowed per window
	Window      time.Duration // counting window
	BlockTime   time.Duration // lockout after the budget is spent; 0 waits out the window
	BanAfter    int           // lockouts within a day that ban the IP; 0 never bans
}

// RateLimiter throttles clients by IP with fixed-window counters in Redis.
// It guards the credential endpoints against brute force.
type RateLimiter struct {
	redis  *redis.Client
	config RateLimiterConfig
}

func NewRateLimiter(redisClient *redis.Client, config RateLimiterConfig) *RateLimiter {
	return &RateLimiter{redis: redisClient, config: config}
}

// Middleware rejects banned IPs with 403 and throttled IPs with 429. An IP
// that is locked out BanAfter times in a day gets banned. Redis errors let
// the request through.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ip := c.ClientIP()

		if banned, _ := rl.IsIPBanned(ctx, ip); banned {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorBody(http.StatusForbidden, msgIPBanned))
			return
		}

		allowed, retryAfter, err := rl.CheckLimit(ctx, ip)
		if err != nil {
			logger.Log.Warn("Rate limit check failed", zap.String("client_ip", ip), zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			seconds := int(retryAfter.Seconds())
			c.Header("Retry-After", strconv.Itoa(seconds))
			body := ErrorBody(http.StatusTooManyRequests, msgTooManyRequests)
			body["retryAfter"] = seconds
			c.AbortWithStatusJSON(http.StatusTooManyRequests, body)
			return
		}

		c.Next()
	}
}

// CheckLimit counts one request from ip. When it is refused the second
// value says how long the client should wait.
func (rl *RateLimiter) CheckLimit(ctx context.Context, ip string) (bool, time.Duration, error) {
	blocked, err := rl.redis.TTL(ctx, blockKeyPrefix+ip).Result()
	if err != nil {
		return false, 0, err
	}
	if blocked > 0 {
		return false, blocked, nil
	}

	key := counterPrefix + ip
	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := rl.redis.Expire(ctx, key, rl.config.Window).Err(); err != nil {
			return false, 0, err
		}
	}

	if count <= int64(rl.config.MaxRequests) {
		return true, 0, nil
	}

	if rl.config.BlockTime > 0 {
		if err := rl.redis.Set(ctx, blockKeyPrefix+ip, 1, rl.config.BlockTime).Err(); err != nil {
			return false, 0, err
		}
		if err := rl.recordLockout(ctx, ip); err != nil {
			return false, 0, err
		}
		return false, rl.config.BlockTime, nil
	}

	// only the first refusal in a window starts a lockout
	if count == int64(rl.config.MaxRequests)+1 {
		if err := rl.recordLockout(ctx, ip); err != nil {
			return false, 0, err
		}
	}

	remaining, err := rl.redis.TTL(ctx, key).Result()
	if err != nil || remaining <= 0 {
		remaining = rl.config.Window
	}
	return false, remaining, nil
}

// recordLockout counts a lockout for ip and bans it once BanAfter lockouts
// pile up within lockoutMemory.
func (rl *RateLimiter) recordLockout(ctx context.Context, ip string) error {
	if rl.config.BanAfter <= 0 {
		return nil
	}

	key := lockoutKeyPrefix + ip
	lockouts, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if lockouts == 1 {
		if err := rl.redis.Expire(ctx, key, lockoutMemory).Err(); err != nil {
			return err
		}
	}
	if lockouts < int64(rl.config.BanAfter) {
		return nil
	}

	if err := rl.BanIP(ctx, ip); err != nil {
		return err
	}
	logger.Log.Warn("IP banned after repeated lockouts",
		zap.String("client_ip", ip),
		zap.Int64("lockouts", lockouts),
	)
	return rl.redis.Del(ctx, key).Err()
}

func (rl *RateLimiter) IsIPBanned(ctx context.Context, ip string) (bool, error) {
	return rl.redis.SIsMember(ctx, bannedIPsKey, ip).Result()
}

func (rl *RateLimiter) BanIP(ctx context.Context, ip string) error {
	return rl.redis.SAdd(ctx, bannedIPsKey, ip).Err()
}

func (rl *RateLimiter) UnbanIP(ctx context.Context, ip string) error {
	return rl.redis.SRem(ctx, bannedIPsKey, ip).Err()
}
