package http

import "golang.org/x/time/rate"

type rateLimiter struct {
	limiter *rate.Limiter
}

// newRateLimiter returns nil when perSecond is not positive, which allows everything.
func newRateLimiter(perSecond float64, burst int) *rateLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (r *rateLimiter) allow() bool {
	if r == nil {
		return true
	}
	return r.limiter.Allow()
}
