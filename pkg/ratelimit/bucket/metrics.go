package bucket

import (
	"github.com/vnykmshr/tickloop/pkg/metrics"
)

// MetricsLimiter wraps a Limiter with Prometheus metrics collection.
type MetricsLimiter struct {
	limiter  Limiter
	clock    Clock
	name     string
	registry *metrics.Registry
}

// NewWithMetrics creates a limiter from config whose decisions are counted
// under name. A nil registry returns the plain limiter.
func NewWithMetrics(config Config, name string, registry *metrics.Registry) (Limiter, error) {
	base, err := NewWithConfigSafe(config)
	if err != nil {
		return nil, err
	}
	if registry == nil {
		return base, nil
	}
	return &MetricsLimiter{
		limiter:  base,
		clock:    config.Clock,
		name:     name,
		registry: registry,
	}, nil
}

func (ml *MetricsLimiter) Allow() bool {
	return ml.AllowN(1)
}

func (ml *MetricsLimiter) AllowN(n int) bool {
	allowed := ml.limiter.AllowN(n)
	ml.observe(n, allowed)
	return allowed
}

func (ml *MetricsLimiter) Reserve() *Reservation {
	return ml.ReserveN(1)
}

func (ml *MetricsLimiter) ReserveN(n int) *Reservation {
	r := ml.limiter.ReserveN(n)
	ml.observe(n, r.OK())
	if r.OK() {
		delay := r.DelayFrom(ml.clock.Now())
		ml.registry.RateLimitDelay.WithLabelValues(ml.name).Observe(delay.Seconds())
	}
	return r
}

func (ml *MetricsLimiter) observe(n int, allowed bool) {
	ml.registry.RateLimitRequests.WithLabelValues(ml.name).Add(float64(n))
	if allowed {
		ml.registry.RateLimitAllowed.WithLabelValues(ml.name).Add(float64(n))
	} else {
		ml.registry.RateLimitDenied.WithLabelValues(ml.name).Add(float64(n))
	}
	ml.registry.RateLimitTokens.WithLabelValues(ml.name).Set(ml.limiter.Tokens())
}

func (ml *MetricsLimiter) SetLimit(limit Limit) {
	ml.limiter.SetLimit(limit)
}

func (ml *MetricsLimiter) SetBurst(burst int) {
	ml.limiter.SetBurst(burst)
}

func (ml *MetricsLimiter) Limit() Limit {
	return ml.limiter.Limit()
}

func (ml *MetricsLimiter) Burst() int {
	return ml.limiter.Burst()
}

// Tokens returns the tokens available now and updates the gauge.
func (ml *MetricsLimiter) Tokens() float64 {
	tokens := ml.limiter.Tokens()
	ml.registry.RateLimitTokens.WithLabelValues(ml.name).Set(tokens)
	return tokens
}
