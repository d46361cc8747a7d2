package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MQ 消费延迟（毫秒）
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)

	// 数据库查询延迟（秒）
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "table"},
	)

	// 慢查询计数
	DBSlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_total",
			Help: "Total number of queries slower than the configured threshold",
		},
		[]string{"statement"},
	)

	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 周期实例生成计数
	InstanceGenerationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recurring_instance_generated_total",
			Help: "Total number of recurring instances requested",
		},
		[]string{"kind", "result"}, // kind: goal, todo; result: requested, ended, duplicate, failed
	)

	// 一次扫描耗时（秒）
	SweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recurrence_sweep_duration_seconds",
			Help:    "Duration of one recurrence sweep in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"kind"},
	)

	// 仪表盘计算耗时（秒）
	DashboardComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dashboard_compute_duration_seconds",
			Help:    "Time spent loading logs and computing a dashboard",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	// 仪表盘中因非有限值被跳过的目标
	DashboardSkippedGoals = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_skipped_goals_total",
			Help: "Goals left out of a rollup because they were completed, overdue or non-finite",
		},
	)
)

// RecordMQConsumeLatency 记录 MQ 消费延迟
func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

// RecordDBQueryDuration 记录数据库查询延迟
func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// IncrementSlowQuery 记录一次慢查询
func IncrementSlowQuery(statement string, duration time.Duration) {
	DBSlowQueryCount.WithLabelValues(statement).Inc()
	DBQueryDuration.WithLabelValues("slow", "").Observe(duration.Seconds())
}

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementInstanceGeneration 增加实例生成计数
func IncrementInstanceGeneration(kind, result string) {
	InstanceGenerationCount.WithLabelValues(kind, result).Inc()
}

// RecordSweepDuration 记录扫描耗时
func RecordSweepDuration(kind string, duration time.Duration) {
	SweepDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordDashboardCompute 记录仪表盘计算耗时
func RecordDashboardCompute(duration time.Duration, skipped int) {
	DashboardComputeDuration.Observe(duration.Seconds())
	DashboardSkippedGoals.Add(float64(skipped))
}
