package ratelimit

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginRateLimiter_Allow(t *testing.T) {
	t.Run("allows up to max attempts", func(t *testing.T) {
		rl := NewLoginRateLimiter(3, time.Minute)

		assert.True(t, rl.Allow("1.2.3.4"))
		assert.True(t, rl.Allow("1.2.3.4"))
		assert.True(t, rl.Allow("1.2.3.4"))
		assert.False(t, rl.Allow("1.2.3.4"))
	})

	t.Run("ips are tracked independently", func(t *testing.T) {
		rl := NewLoginRateLimiter(1, time.Minute)

		assert.True(t, rl.Allow("1.1.1.1"))
		assert.False(t, rl.Allow("1.1.1.1"))
		assert.True(t, rl.Allow("2.2.2.2"))
	})

	t.Run("window expiry resets the counter", func(t *testing.T) {
		rl := NewLoginRateLimiter(1, 20*time.Millisecond)

		assert.True(t, rl.Allow("1.2.3.4"))
		assert.False(t, rl.Allow("1.2.3.4"))

		time.Sleep(30 * time.Millisecond)
		assert.True(t, rl.Allow("1.2.3.4"))
	})

	t.Run("reset clears the bucket", func(t *testing.T) {
		rl := NewLoginRateLimiter(1, time.Minute)

		assert.True(t, rl.Allow("1.2.3.4"))
		assert.False(t, rl.Allow("1.2.3.4"))

		rl.Reset("1.2.3.4")
		assert.True(t, rl.Allow("1.2.3.4"))
	})
}

func TestLoginRateLimiter_RetryAfterSeconds(t *testing.T) {
	rl := NewLoginRateLimiter(1, time.Minute)

	assert.Zero(t, rl.RetryAfterSeconds("unknown"))

	rl.Allow("1.2.3.4")
	rl.Allow("1.2.3.4")

	retry := rl.RetryAfterSeconds("1.2.3.4")
	assert.Greater(t, retry, 0)
	assert.LessOrEqual(t, retry, 61)
}

func TestExtractIP(t *testing.T) {
	newRequest := func() *http.Request {
		req, err := http.NewRequest(http.MethodPost, "/api/auth/login", nil)
		require.NoError(t, err)
		req.RemoteAddr = "10.0.0.1:54321"
		return req
	}

	t.Run("x-forwarded-for wins and takes first entry", func(t *testing.T) {
		req := newRequest()
		req.Header.Set("X-Forwarded-For", "203.0.113.7,10.0.0.2")
		assert.Equal(t, "203.0.113.7", ExtractIP(req))
	})

	t.Run("x-real-ip as fallback", func(t *testing.T) {
		req := newRequest()
		req.Header.Set("X-Real-IP", "203.0.113.9")
		assert.Equal(t, "203.0.113.9", ExtractIP(req))
	})

	t.Run("remote addr without port", func(t *testing.T) {
		req := newRequest()
		assert.Equal(t, "10.0.0.1", ExtractIP(req))
	})
}

func TestFormatRetryMessage(t *testing.T) {
	assert.Equal(t, "45 second(s)", FormatRetryMessage(45))
	assert.Equal(t, "2 minute(s)", FormatRetryMessage(120))
	assert.Equal(t, "1 minute(s)", FormatRetryMessage(90))
}
