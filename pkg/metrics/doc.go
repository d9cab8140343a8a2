// Package metrics provides Prometheus instrumentation for tickloop schedulers
// and rate limiters.
//
// # Overview
//
// A Registry owns one set of collectors; each scheduler reports through an
// Observer bound to its name, so several schedulers can share a registry.
//
//	registry := metrics.NewRegistry(prometheus.NewRegistry())
//	s := scheduler.NewWithConfig(scheduler.Config{
//		Name:    "exercises",
//		Metrics: registry,
//	})
//
// # Available Metrics
//
//   - tickloop_scheduler_tasks_scheduled_total: timer tasks scheduled
//   - tickloop_scheduler_tasks_executed_total: timer tasks executed
//   - tickloop_scheduler_tasks_failed_total: actions that returned an error or panicked
//   - tickloop_scheduler_tasks_canceled_total: pending tasks canceled
//   - tickloop_scheduler_deferred_executed_total: deferred actions executed
//   - tickloop_scheduler_pending_tasks: timer tasks waiting in the queue
//   - tickloop_scheduler_virtual_time: current virtual clock value
//   - tickloop_scheduler_deferred_queue_depth: deferred actions waiting
//   - tickloop_scheduler_drain_batch_size: timer tasks popped per drain pass
//
// Every scheduler metric carries the scheduler_name label.
//
// Token bucket limiters wrapped by bucket.NewWithMetrics report under the
// limiter_name label:
//
//   - tickloop_ratelimit_requests_total: tokens requested
//   - tickloop_ratelimit_allowed_total: tokens granted, now or by reservation
//   - tickloop_ratelimit_denied_total: tokens refused
//   - tickloop_ratelimit_tokens: tokens available after the last request
//   - tickloop_ratelimit_reservation_delay_seconds: clock time until a reservation is due
//
// # Configuration
//
//	config := metrics.Config{
//		Enabled:   true,
//		Registry:  prometheus.NewRegistry(),
//		Namespace: "myapp",                             // overrides "tickloop"
//		Labels:    prometheus.Labels{"version": "1.0"}, // constant labels
//	}
//	registry := config.Build() // nil when disabled
//
// A nil *Registry and a nil *Observer are both valid and record nothing.
package metrics
