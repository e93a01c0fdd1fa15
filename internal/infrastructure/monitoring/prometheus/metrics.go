package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds all application metrics. A nil *AppMetrics is valid and
// records nothing, so callers never need to guard.
type AppMetrics struct {
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	AuthAttemptsTotal CounterVec

	PatentOperationsTotal CounterVec
	PatentSearchDuration  HistogramVec
	ReportsGeneratedTotal CounterVec
	ReportDuration        HistogramVec

	DocumentUploadBytes HistogramVec

	LLMRequestsTotal   CounterVec
	LLMRequestDuration HistogramVec

	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec

	EventsPublishedTotal CounterVec

	SubscriptionsExpiredTotal CounterVec
	HealthCheckStatus         GaugeVec
}

var (
	DefaultHTTPDurationBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultLLMDurationBuckets    = []float64{.05, .1, .5, 1, 2, 5, 10, 30, 60, 120}
	DefaultReportDurationBuckets = []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120}
	DefaultSizeBuckets           = []float64{1 << 10, 1 << 14, 1 << 17, 1 << 20, 1 << 22, 1 << 24}
)

// NewAppMetrics registers every metric on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	m.AuthAttemptsTotal = collector.RegisterCounter("auth_attempts_total", "Authentication attempts", "operation", "result")

	m.PatentOperationsTotal = collector.RegisterCounter("patent_operations_total", "Patent write operations", "operation")
	m.PatentSearchDuration = collector.RegisterHistogram("patent_search_duration_seconds", "Patent search duration", DefaultHTTPDurationBuckets)
	m.ReportsGeneratedTotal = collector.RegisterCounter("reports_generated_total", "Search reports generated", "status")
	m.ReportDuration = collector.RegisterHistogram("report_duration_seconds", "Search report generation duration", DefaultReportDurationBuckets)

	m.DocumentUploadBytes = collector.RegisterHistogram("document_upload_bytes", "Uploaded document sizes", DefaultSizeBuckets, "driver")

	m.LLMRequestsTotal = collector.RegisterCounter("llm_requests_total", "AI provider requests", "provider", "operation", "status")
	m.LLMRequestDuration = collector.RegisterHistogram("llm_request_duration_seconds", "AI provider request duration", DefaultLLMDurationBuckets, "provider", "operation")

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")

	m.EventsPublishedTotal = collector.RegisterCounter("events_published_total", "Domain events published", "event_type", "status")

	m.SubscriptionsExpiredTotal = collector.RegisterCounter("subscriptions_expired_total", "Subscriptions rolled by the expiry sweep", "outcome")
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")

	return m
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func (m *AppMetrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// TrackActiveRequest increments the in-flight gauge for method and returns
// the matching decrement.
func (m *AppMetrics) TrackActiveRequest(method string) func() {
	if m == nil {
		return func() {}
	}
	g := m.HTTPActiveRequests.WithLabelValues(method)
	g.Inc()
	return g.Dec
}

func (m *AppMetrics) RecordAuthAttempt(operation string, success bool) {
	if m == nil {
		return
	}
	m.AuthAttemptsTotal.WithLabelValues(operation, statusLabel(success)).Inc()
}

func (m *AppMetrics) RecordPatentOperation(operation string) {
	if m == nil {
		return
	}
	m.PatentOperationsTotal.WithLabelValues(operation).Inc()
}

func (m *AppMetrics) RecordSearch(duration time.Duration) {
	if m == nil {
		return
	}
	m.PatentSearchDuration.WithLabelValues().Observe(duration.Seconds())
}

func (m *AppMetrics) RecordReport(success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.ReportsGeneratedTotal.WithLabelValues(statusLabel(success)).Inc()
	m.ReportDuration.WithLabelValues().Observe(duration.Seconds())
}

func (m *AppMetrics) RecordUpload(driver string, size int64) {
	if m == nil {
		return
	}
	m.DocumentUploadBytes.WithLabelValues(driver).Observe(float64(size))
}

func (m *AppMetrics) RecordLLMCall(provider, operation string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(provider, operation, statusLabel(success)).Inc()
	m.LLMRequestDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

func (m *AppMetrics) RecordCacheAccess(cache string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func (m *AppMetrics) RecordEvent(eventType string, success bool) {
	if m == nil {
		return
	}
	m.EventsPublishedTotal.WithLabelValues(eventType, statusLabel(success)).Inc()
}

func (m *AppMetrics) RecordExpiry(outcome string) {
	if m == nil {
		return
	}
	m.SubscriptionsExpiredTotal.WithLabelValues(outcome).Inc()
}

func (m *AppMetrics) SetHealth(component string, up bool) {
	if m == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}
