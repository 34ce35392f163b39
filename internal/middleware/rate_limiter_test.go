package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const signinPath = "/api/auth/signin"

func newTestRateLimiter(tb testing.TB, config RateLimiterConfig) (*RateLimiter, *miniredis.Miniredis) {
	mr := miniredis.RunT(tb)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tb.Cleanup(func() { _ = client.Close() })
	return NewRateLimiter(client, config), mr
}

func signinRouter(rl *RateLimiter) *gin.Engine {
	router := gin.New()
	router.POST(signinPath, rl.Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

type RateLimiterTestSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	rl     *RateLimiter
	router *gin.Engine
	ctx    context.Context
}

func (s *RateLimiterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.rl, s.mr = newTestRateLimiter(s.T(), RateLimiterConfig{MaxRequests: 3, Window: time.Minute})
	s.router = signinRouter(s.rl)
	s.ctx = context.Background()
}

func (s *RateLimiterTestSuite) signin(ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, signinPath, nil)
	req.RemoteAddr = ip + ":40000"
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RateLimiterTestSuite) TestBudgetThenThrottle() {
	// Arrange
	ip := "203.0.113.10"

	// Act
	for i := 0; i < 3; i++ {
		s.Equal(http.StatusOK, s.signin(ip).Code, "attempt %d", i+1)
	}
	w := s.signin(ip)

	// Assert
	s.Equal(http.StatusTooManyRequests, w.Code)
	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	s.Require().NoError(err)
	s.Greater(retryAfter, 0)
	s.LessOrEqual(retryAfter, 60)

	var body map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal(false, body["success"])
	s.Equal(msgTooManyRequests, body["message"])
	s.Equal(float64(http.StatusTooManyRequests), body["statusCode"])
	s.Equal(float64(retryAfter), body["retryAfter"])
}

func (s *RateLimiterTestSuite) TestClientsAreCountedSeparately() {
	for i := 0; i < 3; i++ {
		s.Equal(http.StatusOK, s.signin("203.0.113.10").Code)
	}
	s.Equal(http.StatusTooManyRequests, s.signin("203.0.113.10").Code)

	for i := 0; i < 3; i++ {
		s.Equal(http.StatusOK, s.signin("203.0.113.11").Code, "second client attempt %d", i+1)
	}
}

func (s *RateLimiterTestSuite) TestWindowResets() {
	ip := "203.0.113.12"
	for i := 0; i < 4; i++ {
		_, _, err := s.rl.CheckLimit(s.ctx, ip)
		s.Require().NoError(err)
	}
	allowed, _, err := s.rl.CheckLimit(s.ctx, ip)
	s.Require().NoError(err)
	s.False(allowed)

	s.mr.FastForward(61 * time.Second)

	allowed, _, err = s.rl.CheckLimit(s.ctx, ip)
	s.Require().NoError(err)
	s.True(allowed)
}

func (s *RateLimiterTestSuite) TestBanLifecycle() {
	ip := "198.51.100.7"

	banned, err := s.rl.IsIPBanned(s.ctx, ip)
	s.Require().NoError(err)
	s.False(banned)

	s.Require().NoError(s.rl.BanIP(s.ctx, ip))
	w := s.signin(ip)
	s.Equal(http.StatusForbidden, w.Code)
	s.Contains(w.Body.String(), msgIPBanned)

	// a ban does not consume the request budget
	s.Require().NoError(s.rl.UnbanIP(s.ctx, ip))
	for i := 0; i < 3; i++ {
		s.Equal(http.StatusOK, s.signin(ip).Code)
	}
}

func (s *RateLimiterTestSuite) TestSequentialBurst() {
	var ok, throttled int
	for i := 0; i < 10; i++ {
		switch s.signin("192.0.2.1").Code {
		case http.StatusOK:
			ok++
		case http.StatusTooManyRequests:
			throttled++
		}
	}

	s.Equal(3, ok)
	s.Equal(7, throttled)

	banned, err := s.rl.IsIPBanned(s.ctx, "192.0.2.1")
	s.Require().NoError(err)
	s.False(banned, "bans are off unless BanAfter is set")
}

func TestRateLimiterTestSuite(t *testing.T) {
	suite.Run(t, new(RateLimiterTestSuite))
}

func TestRateLimiter_BlockOutlastsWindow(t *testing.T) {
	rl, mr := newTestRateLimiter(t, RateLimiterConfig{MaxRequests: 1, Window: time.Second, BlockTime: time.Minute})
	ctx := context.Background()
	ip := "10.0.0.7"

	allowed, _, err := rl.CheckLimit(ctx, ip)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, retryAfter, err := rl.CheckLimit(ctx, ip)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, retryAfter)

	// the counting window is over but the block is not
	mr.FastForward(2 * time.Second)
	allowed, _, err = rl.CheckLimit(ctx, ip)
	require.NoError(t, err)
	assert.False(t, allowed)

	mr.FastForward(time.Minute)
	allowed, _, err = rl.CheckLimit(ctx, ip)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiter_BansAfterRepeatedBlocks(t *testing.T) {
	// Arrange
	gin.SetMode(gin.TestMode)
	rl, mr := newTestRateLimiter(t, RateLimiterConfig{
		MaxRequests: 1,
		Window:      time.Minute,
		BlockTime:   10 * time.Second,
		BanAfter:    2,
	})
	router := signinRouter(rl)
	ip := "198.51.100.20"
	signin := func() int {
		req := httptest.NewRequest(http.MethodPost, signinPath, nil)
		req.RemoteAddr = ip + ":40000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	// Act
	first := signin()
	firstBlock := signin()
	mr.FastForward(11 * time.Second)
	secondBlock := signin()
	afterBan := signin()

	// Assert
	assert.Equal(t, http.StatusOK, first)
	assert.Equal(t, http.StatusTooManyRequests, firstBlock)
	assert.Equal(t, http.StatusTooManyRequests, secondBlock)
	assert.Equal(t, http.StatusForbidden, afterBan)

	banned, err := rl.IsIPBanned(context.Background(), ip)
	require.NoError(t, err)
	assert.True(t, banned)
	assert.False(t, mr.Exists(lockoutKeyPrefix+ip), "lockout history is reset once the ban is issued")

	// the ban outlives every block and window
	mr.FastForward(time.Hour)
	assert.Equal(t, http.StatusForbidden, signin())
}

func TestRateLimiter_BanCountsWindowLockoutsOnce(t *testing.T) {
	rl, mr := newTestRateLimiter(t, RateLimiterConfig{MaxRequests: 1, Window: time.Second, BanAfter: 2})
	ctx := context.Background()
	ip := "198.51.100.21"

	// one window with many refusals is a single lockout
	for i := 0; i < 5; i++ {
		_, _, err := rl.CheckLimit(ctx, ip)
		require.NoError(t, err)
	}
	banned, err := rl.IsIPBanned(ctx, ip)
	require.NoError(t, err)
	assert.False(t, banned)
	assert.Equal(t, "1", mustGet(t, mr, lockoutKeyPrefix+ip))

	mr.FastForward(2 * time.Second)
	for i := 0; i < 2; i++ {
		_, _, err := rl.CheckLimit(ctx, ip)
		require.NoError(t, err)
	}

	banned, err = rl.IsIPBanned(ctx, ip)
	require.NoError(t, err)
	assert.True(t, banned)
}

func TestRateLimiter_LockoutsAreForgotten(t *testing.T) {
	rl, mr := newTestRateLimiter(t, RateLimiterConfig{MaxRequests: 1, Window: time.Second, BanAfter: 2})
	ctx := context.Background()
	ip := "198.51.100.22"

	for i := 0; i < 2; i++ {
		_, _, err := rl.CheckLimit(ctx, ip)
		require.NoError(t, err)
	}
	mr.FastForward(lockoutMemory + time.Second)
	for i := 0; i < 2; i++ {
		_, _, err := rl.CheckLimit(ctx, ip)
		require.NoError(t, err)
	}

	banned, err := rl.IsIPBanned(ctx, ip)
	require.NoError(t, err)
	assert.False(t, banned)
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl, mr := newTestRateLimiter(t, RateLimiterConfig{MaxRequests: 1, Window: time.Minute})
	router := signinRouter(rl)
	mr.Close()

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, signinPath, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func BenchmarkRateLimiter_CheckLimit(b *testing.B) {
	rl, _ := newTestRateLimiter(b, RateLimiterConfig{MaxRequests: 1 << 30, Window: time.Minute})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = rl.CheckLimit(ctx, "192.0.2.1")
	}
}
