// Package metrics публикует метрики прогонов копирования в Prometheus Pushgateway.
//
// Процесс sqlcp живет ровно один прогон, поэтому метрики не выставляются на
// HTTP-эндпоинт для опроса, а отправляются в Pushgateway после завершения.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/ruslano69/sqlcp/pkg/pipeline"
)

// DefaultJob - имя группы "job" в Pushgateway по умолчанию
const DefaultJob = "sqlcp"

// Pusher собирает метрики прогона в собственный реестр и отправляет их в Pushgateway
type Pusher struct {
	gatewayURL string // например http://pushgateway:9091
	jobName    string
	reg        *prometheus.Registry

	runs     *prometheus.CounterVec // sqlcp_runs_total{mode,status}
	duration *prometheus.SummaryVec // sqlcp_run_duration_seconds{mode,status}
	rows     *prometheus.CounterVec // sqlcp_rows_total{kind}
	batches  prometheus.Counter     // sqlcp_batches_total
	bytes    prometheus.Counter     // sqlcp_output_bytes_total
	failures prometheus.Counter     // sqlcp_writer_failures_total
	lastRun  prometheus.Gauge       // sqlcp_last_run_timestamp_seconds
}

// NewPusher создает Pusher.
// jobName: группа "job" в Pushgateway (пусто - DefaultJob).
// gatewayURL: базовый URL Pushgateway.
func NewPusher(jobName, gatewayURL string) (*Pusher, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("metrics: gateway URL is required")
	}
	if jobName == "" {
		jobName = DefaultJob
	}

	p := &Pusher{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sqlcp_runs_total",
			Help: "Copy runs partitioned by mode and status.",
		}, []string{"mode", "status"}),
		duration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       "sqlcp_run_duration_seconds",
			Help:       "Copy run duration in seconds, partitioned by mode and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"mode", "status"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sqlcp_rows_total",
			Help: "Rows per kind (read, written).",
		}, []string{"kind"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sqlcp_batches_total",
			Help: "Batches inserted and committed by writers.",
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sqlcp_output_bytes_total",
			Help: "Bytes written to the destination file.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sqlcp_writer_failures_total",
			Help: "Writers that finished with an error.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sqlcp_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}

	collectors := map[string]prometheus.Collector{
		"runs":     p.runs,
		"duration": p.duration,
		"rows":     p.rows,
		"batches":  p.batches,
		"bytes":    p.bytes,
		"failures": p.failures,
		"last run": p.lastRun,
	}
	for name, c := range collectors {
		if err := p.reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register %s: %w", name, err)
		}
	}

	return p, nil
}

// Record переносит сводку прогона в метрики
func (p *Pusher) Record(sum *pipeline.Summary) {
	status := "success"
	if !sum.Success() {
		status = "failed"
	}

	p.runs.WithLabelValues(sum.Mode, status).Inc()
	p.duration.WithLabelValues(sum.Mode, status).Observe(sum.ExecTime.Seconds())
	p.rows.WithLabelValues("read").Add(float64(sum.RowsRead()))
	p.rows.WithLabelValues("written").Add(float64(sum.RowsWritten()))
	p.batches.Add(float64(sum.Batches()))
	p.bytes.Add(float64(sum.BytesWritten()))
	p.failures.Add(float64(len(sum.Failures)))
	if !sum.Finished.IsZero() {
		p.lastRun.Set(float64(sum.Finished.Unix()))
	}
}

// Push отправляет текущий реестр в Pushgateway
func (p *Pusher) Push() error {
	return push.New(p.gatewayURL, p.jobName).
		Gatherer(p.reg).
		Push()
}

// Registry возвращает реестр метрик
func (p *Pusher) Registry() *prometheus.Registry {
	return p.reg
}
