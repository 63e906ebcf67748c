package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	UpstreamRequests *prometheus.CounterVec   // service, outcome=ok|error
	UpstreamDuration *prometheus.HistogramVec // service

	Boards           prometheus.Counter
	BoardFailures    *prometheus.CounterVec // kind label: stop_not_found|api|upstream|decode
	ArrivalsIncluded prometheus.Counter
	ArrivalsDropped  prometheus.Counter

	LoadedRows  *prometheus.CounterVec // table
	SkippedRefs *prometheus.CounterVec // table

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
	PublishDuration prometheus.Histogram

	BatchSize prometheus.Gauge
}

func NewCollector(batchSize int) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mystops_upstream_requests_total",
			Help: "TriMet API requests by service and outcome.",
		}, []string{"service", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mystops_upstream_request_duration_seconds",
			Help:    "Duration of TriMet API requests.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"service"}),
		Boards: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mystops_boards_total",
			Help: "Arrival boards computed.",
		}),
		BoardFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mystops_board_failures_total",
			Help: "Arrival board requests that failed.",
		}, []string{"kind"}),
		ArrivalsIncluded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mystops_arrivals_included_total",
			Help: "Arrivals included in computed boards.",
		}),
		ArrivalsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mystops_arrivals_dropped_total",
			Help: "Arrivals dropped because no status could be derived.",
		}),
		LoadedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mystops_db_rows_loaded_total",
			Help: "Rows upserted into the database.",
		}, []string{"table"}),
		SkippedRefs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mystops_db_references_skipped_total",
			Help: "Rows skipped because a referenced row was missing.",
		}, []string{"table"}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mystops_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mystops_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mystops_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mystops_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		BatchSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mystops_db_batch_size",
			Help: "Rows per INSERT statement.",
		}),
	}

	reg.MustRegister(
		c.UpstreamRequests, c.UpstreamDuration,
		c.Boards, c.BoardFailures, c.ArrivalsIncluded, c.ArrivalsDropped,
		c.LoadedRows, c.SkippedRefs,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected, c.PublishDuration,
		c.BatchSize,
	)

	c.BatchSize.Set(float64(batchSize))

	return c
}

func (c *Collector) UpstreamObserve(service string, ok bool, d time.Duration) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	c.UpstreamRequests.WithLabelValues(service, outcome).Inc()
	c.UpstreamDuration.WithLabelValues(service).Observe(d.Seconds())
}

func (c *Collector) BoardComputed(included, dropped int) {
	c.Boards.Inc()
	c.ArrivalsIncluded.Add(float64(included))
	c.ArrivalsDropped.Add(float64(dropped))
}

func (c *Collector) BoardFailed(kind string) { c.BoardFailures.WithLabelValues(kind).Inc() }

func (c *Collector) RowsLoaded(table string, n int) {
	c.LoadedRows.WithLabelValues(table).Add(float64(n))
}

func (c *Collector) ReferencesSkipped(table string, n int) {
	c.SkippedRefs.WithLabelValues(table).Add(float64(n))
}

func (c *Collector) NATSPublishedInc()              { c.NATSPublished.Inc() }
func (c *Collector) NATSPublishErrInc()             { c.NATSPublishErrs.Inc() }
func (c *Collector) PublishObserve(d time.Duration) { c.PublishDuration.Observe(d.Seconds()) }

func (c *Collector) NATSSetConnected(connected bool) {
	if connected {
		c.NATSConnected.Set(1)
	} else {
		c.NATSConnected.Set(0)
	}
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}
