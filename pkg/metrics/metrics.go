package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	subsystem          = "scheduler"
	ratelimitSubsystem = "ratelimit"
)

// Registry holds all metric instances for tickloop components.
type Registry struct {
	TasksScheduled *prometheus.CounterVec
	TasksExecuted  *prometheus.CounterVec
	TasksFailed    *prometheus.CounterVec
	TasksCanceled  *prometheus.CounterVec
	DeferredRun    *prometheus.CounterVec

	PendingTasks  *prometheus.GaugeVec
	VirtualTime   *prometheus.GaugeVec
	DeferredDepth *prometheus.GaugeVec

	DrainBatchSize *prometheus.HistogramVec

	RateLimitRequests *prometheus.CounterVec
	RateLimitAllowed  *prometheus.CounterVec
	RateLimitDenied   *prometheus.CounterVec
	RateLimitTokens   *prometheus.GaugeVec
	RateLimitDelay    *prometheus.HistogramVec
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer
// and the default namespace.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return NewRegistryWithConfig(Config{Registry: reg, Namespace: DefaultNamespace})
}

// NewRegistryWithConfig creates a registry from cfg. A nil cfg.Registry means
// prometheus.DefaultRegisterer.
func NewRegistryWithConfig(cfg Config) *Registry {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if len(cfg.Labels) > 0 {
		reg = prometheus.WrapRegistererWith(cfg.Labels, reg)
	}
	ns := cfg.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}

	factory := promauto.With(reg)
	labels := []string{"scheduler_name"}
	limiterLabels := []string{"limiter_name"}

	return &Registry{
		TasksScheduled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: subsystem,
				Name:      "tasks_scheduled_total",
				Help:      "Total number of timer tasks scheduled",
			},
			labels,
		),

		TasksExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: subsystem,
				Name:      "tasks_executed_total",
				Help:      "Total number of timer tasks executed",
			},
			labels,
		),

		TasksFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: subsystem,
				Name:      "tasks_failed_total",
				Help:      "Total number of actions that returned an error or panicked",
			},
			labels,
		),

		TasksCanceled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: subsystem,
				Name:      "tasks_canceled_total",
				Help:      "Total number of pending tasks canceled",
			},
			labels,
		),

		DeferredRun: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: subsystem,
				Name:      "deferred_executed_total",
				Help:      "Total number of deferred actions executed",
			},
			labels,
		),

		PendingTasks: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: subsystem,
				Name:      "pending_tasks",
				Help:      "Number of timer tasks waiting in the queue",
			},
			labels,
		),

		VirtualTime: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: subsystem,
				Name:      "virtual_time",
				Help:      "Current value of the virtual clock in ticks",
			},
			labels,
		),

		DeferredDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: subsystem,
				Name:      "deferred_queue_depth",
				Help:      "Number of deferred actions waiting to run",
			},
			labels,
		),

		DrainBatchSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: subsystem,
				Name:      "drain_batch_size",
				Help:      "Number of timer tasks popped per drain pass",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
			labels,
		),

		RateLimitRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: ratelimitSubsystem,
				Name:      "requests_total",
				Help:      "Total number of tokens requested",
			},
			limiterLabels,
		),

		RateLimitAllowed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: ratelimitSubsystem,
				Name:      "allowed_total",
				Help:      "Total number of tokens granted, now or by reservation",
			},
			limiterLabels,
		),

		RateLimitDenied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: ratelimitSubsystem,
				Name:      "denied_total",
				Help:      "Total number of tokens refused",
			},
			limiterLabels,
		),

		RateLimitTokens: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: ratelimitSubsystem,
				Name:      "tokens",
				Help:      "Tokens available after the last request",
			},
			limiterLabels,
		),

		RateLimitDelay: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: ratelimitSubsystem,
				Name:      "reservation_delay_seconds",
				Help:      "Clock time between a reservation and its time to act",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			limiterLabels,
		),
	}
}

// Observer is a view of a Registry bound to one scheduler name.
type Observer struct {
	name string
	reg  *Registry
}

// For returns an Observer that labels every sample with name.
// A nil Registry yields an Observer whose methods do nothing.
func (r *Registry) For(name string) *Observer {
	return &Observer{name: name, reg: r}
}

func (o *Observer) Scheduled() {
	if o == nil || o.reg == nil {
		return
	}
	o.reg.TasksScheduled.WithLabelValues(o.name).Inc()
}

func (o *Observer) Executed(failed bool) {
	if o == nil || o.reg == nil {
		return
	}
	o.reg.TasksExecuted.WithLabelValues(o.name).Inc()
	if failed {
		o.reg.TasksFailed.WithLabelValues(o.name).Inc()
	}
}

func (o *Observer) DeferredExecuted(failed bool) {
	if o == nil || o.reg == nil {
		return
	}
	o.reg.DeferredRun.WithLabelValues(o.name).Inc()
	if failed {
		o.reg.TasksFailed.WithLabelValues(o.name).Inc()
	}
}

func (o *Observer) Canceled() {
	if o == nil || o.reg == nil {
		return
	}
	o.reg.TasksCanceled.WithLabelValues(o.name).Inc()
}

// State publishes the gauges in one call.
func (o *Observer) State(now int64, pending, deferred int) {
	if o == nil || o.reg == nil {
		return
	}
	o.reg.VirtualTime.WithLabelValues(o.name).Set(float64(now))
	o.reg.PendingTasks.WithLabelValues(o.name).Set(float64(pending))
	o.reg.DeferredDepth.WithLabelValues(o.name).Set(float64(deferred))
}

func (o *Observer) Batch(size int) {
	if o == nil || o.reg == nil {
		return
	}
	o.reg.DrainBatchSize.WithLabelValues(o.name).Observe(float64(size))
}
