package stats

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "interview"

const (
	ActiveConnections = "active_connections"
	ActiveRooms       = "active_rooms"
	AuditFailures     = "audit_failures"
	AuditDropped      = "audit_dropped"
)

type StatsProvider interface {
	Incr(name string)
	Decr(name string)
	RegisterMetric(name string)
	Run()
}

type StatsUpdater struct {
	registry   *prometheus.Registry
	gauges     map[string]prometheus.Gauge
	updateChan chan *metricsUpdateReq
	done       chan struct{}
	stopOnce   sync.Once
	http       *httpMetrics
}

type metricsUpdateReq struct {
	name  string
	value float64
}

// NewStatsUpdater creates a new stats updater instance and mounts the
// Prometheus scrape endpoint on mux.
func NewStatsUpdater(mux *http.ServeMux) *StatsUpdater {
	su := &StatsUpdater{
		registry:   prometheus.NewRegistry(),
		gauges:     make(map[string]prometheus.Gauge),
		updateChan: make(chan *metricsUpdateReq, 512),
		done:       make(chan struct{}),
	}
	su.initializeMetrics()
	mux.Handle("GET /metrics", su.Handler())

	return su
}

func (su *StatsUpdater) initializeMetrics() {
	startTime := time.Now()
	su.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_milliseconds",
			Help:      "Milliseconds since the server started",
		}, func() float64 {
			return float64(time.Since(startTime).Milliseconds())
		}),
	)
	su.http = newHTTPMetrics(su.registry)
}

// Handler serves the metrics held by this updater's registry.
func (su *StatsUpdater) Handler() http.Handler {
	return promhttp.HandlerFor(su.registry, promhttp.HandlerOpts{Registry: su.registry})
}

func (su *StatsUpdater) updateMetrics() {
	for {
		select {
		case req := <-su.updateChan:
			metric, ok := su.gauges[req.name]
			if !ok {
				panic("metric not found: " + req.name)
			}

			metric.Add(req.value)
		case <-su.done:
			return
		}
	}
}

func (su *StatsUpdater) Incr(name string) {
	su.update(&metricsUpdateReq{name: name, value: 1})
}

func (su *StatsUpdater) Decr(name string) {
	su.update(&metricsUpdateReq{name: name, value: -1})
}

// update drops the request once the updater has stopped.
func (su *StatsUpdater) update(req *metricsUpdateReq) {
	select {
	case <-su.done:
		return
	default:
	}

	select {
	case su.updateChan <- req:
	case <-su.done:
	}
}

// RegisterMetric must be called before Run.
func (su *StatsUpdater) RegisterMetric(name string) {
	if _, ok := su.gauges[name]; ok {
		return
	}

	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
	})
	su.registry.MustRegister(g)
	su.gauges[name] = g
}

func (su *StatsUpdater) Run() {
	go su.updateMetrics()
}

func (su *StatsUpdater) Stop() {
	su.stopOnce.Do(func() { close(su.done) })
}
