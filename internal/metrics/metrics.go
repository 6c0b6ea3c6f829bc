package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for scrape runs. A nil *Metrics records nothing.
type Metrics struct {
	Registry        *prometheus.Registry
	PagesFetched    *prometheus.CounterVec
	OffersExtracted *prometheus.CounterVec
	NewOffers       *prometheus.CounterVec
	StoredOffers    *prometheus.GaugeVec
	CrawlStops      *prometheus.CounterVec
	Runs            *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	Notifications   *prometheus.CounterVec
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_pages_fetched_total",
			Help: "Result pages rendered by the crawler.",
		},
		[]string{"portal"},
	)
	extracted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_offers_extracted_total",
			Help: "Offers extracted from rendered pages.",
		},
		[]string{"portal"},
	)
	novel := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_new_offers_total",
			Help: "Offers not present in the store before the run.",
		},
		[]string{"portal"},
	)
	stored := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jobs_stored_offers",
			Help: "Offers in the store after the last successful run.",
		},
		[]string{"portal"},
	)
	stops := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_crawl_stops_total",
			Help: "Crawl terminations by reason.",
		},
		[]string{"portal", "reason"},
	)
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_runs_total",
			Help: "Scrape runs by outcome.",
		},
		[]string{"portal", "outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobs_run_duration_seconds",
			Help:    "Wall time of a scrape run.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"portal"},
	)
	notifications := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_notifications_total",
			Help: "Notification attempts by outcome.",
		},
		[]string{"portal", "outcome"},
	)

	registry.MustRegister(pages, extracted, novel, stored, stops, runs, duration, notifications)

	return &Metrics{
		Registry:        registry,
		PagesFetched:    pages,
		OffersExtracted: extracted,
		NewOffers:       novel,
		StoredOffers:    stored,
		CrawlStops:      stops,
		Runs:            runs,
		RunDuration:     duration,
		Notifications:   notifications,
	}
}

// PageFetched records one rendered page and the offers it yielded.
func (m *Metrics) PageFetched(portal string, offers int) {
	if m == nil {
		return
	}
	m.PagesFetched.WithLabelValues(portal).Inc()
	m.OffersExtracted.WithLabelValues(portal).Add(float64(offers))
}

// CrawlStopped records why a crawl ended.
func (m *Metrics) CrawlStopped(portal, reason string) {
	if m == nil {
		return
	}
	m.CrawlStops.WithLabelValues(portal, reason).Inc()
}

// RunFinished records the outcome of a run. Store sizes are only updated on success.
func (m *Metrics) RunFinished(portal string, d time.Duration, err error, stored, novel int) {
	if m == nil {
		return
	}
	m.RunDuration.WithLabelValues(portal).Observe(d.Seconds())
	if err != nil {
		m.Runs.WithLabelValues(portal, "failure").Inc()
		return
	}
	m.Runs.WithLabelValues(portal, "success").Inc()
	m.StoredOffers.WithLabelValues(portal).Set(float64(stored))
	m.NewOffers.WithLabelValues(portal).Add(float64(novel))
}

// Notified records a notification attempt.
func (m *Metrics) Notified(portal string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.Notifications.WithLabelValues(portal, outcome).Inc()
}
