package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	RegisterRequestsTotal  metric.Int64Counter
	LoginRequestsTotal     metric.Int64Counter
	MessagesPostedTotal    metric.Int64Counter
	FollowActionsTotal     metric.Int64Counter
	TimelineRequestsTotal  metric.Int64Counter
	DbQueryDurationSeconds metric.Float64Histogram
	DbQueryErrorsTotal     metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments once, using the
// globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("minitwit")
		var err error
		m := &AppMetrics{}

		mustCounter := func(name, desc, unit string) metric.Int64Counter {
			c, cerr := meter.Int64Counter(name,
				metric.WithDescription(desc),
				metric.WithUnit(unit),
			)
			if cerr != nil {
				log.Fatalf("Metrics: Failed to create %s: %v", name, cerr)
			}
			return c
		}

		m.RegisterRequestsTotal = mustCounter("register_requests_total",
			"Total number of register requests completed", "{request}")
		m.LoginRequestsTotal = mustCounter("login_requests_total",
			"Total number of login requests completed", "{request}")
		m.MessagesPostedTotal = mustCounter("messages_posted_total",
			"Total number of messages posted", "{message}")
		m.FollowActionsTotal = mustCounter("follow_actions_total",
			"Total number of follow and unfollow actions", "{action}")
		m.TimelineRequestsTotal = mustCounter("timeline_requests_total",
			"Total number of timeline reads", "{request}")
		m.DbQueryErrorsTotal = mustCounter("db_query_errors_total",
			"Total number of database query errors", "{error}")

		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
