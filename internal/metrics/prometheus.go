package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "studentdesk"

// PrometheusRecorder exports metrics through a Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	studentsCreated     prometheus.Counter
	studentCreateFailed prometheus.Counter
	studentsUpdated     prometheus.Counter
	studentUpdateFailed prometheus.Counter
	studentCache        *prometheus.CounterVec
	formsRejected       *prometheus.CounterVec
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// NewPrometheus creates a recorder backed by its own registry, which also
// carries the Go runtime and process collectors.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()

	p := &PrometheusRecorder{
		registry: reg,
		studentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "students_created_total",
			Help:      "Students created successfully.",
		}),
		studentCreateFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "student_create_failures_total",
			Help:      "Student creations that failed.",
		}),
		studentsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "students_updated_total",
			Help:      "Students updated successfully.",
		}),
		studentUpdateFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "student_update_failures_total",
			Help:      "Student updates that failed.",
		}),
		studentCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "student_cache_lookups_total",
			Help:      "Student cache lookups by result.",
		}, []string{"result"}),
		formsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "form_rejections_total",
			Help:      "Form submissions rejected by validation.",
		}, []string{"form"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.studentsCreated,
		p.studentCreateFailed,
		p.studentsUpdated,
		p.studentUpdateFailed,
		p.studentCache,
		p.formsRejected,
		p.httpRequests,
		p.httpDuration,
	)

	return p
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusRecorder) IncStudentCreated() { p.studentsCreated.Inc() }
func (p *PrometheusRecorder) IncStudentCreateFailed() { p.studentCreateFailed.Inc() }
func (p *PrometheusRecorder) IncStudentUpdated() { p.studentsUpdated.Inc() }
func (p *PrometheusRecorder) IncStudentUpdateFailed() { p.studentUpdateFailed.Inc() }
func (p *PrometheusRecorder) IncStudentCacheHit() { p.studentCache.WithLabelValues("hit").Inc() }
func (p *PrometheusRecorder) IncStudentCacheMiss() { p.studentCache.WithLabelValues("miss").Inc() }

func (p *PrometheusRecorder) IncFormRejected(form string) {
	p.formsRejected.WithLabelValues(form).Inc()
}

// ObserveHTTPRequest records a request. route should be the matched route
// pattern, not the raw path, to keep label cardinality bounded.
func (p *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
