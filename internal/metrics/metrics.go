package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfstitch",
			Name:      "jobs_total",
			Help:      "Stitch jobs by result (success, error)",
		},
		[]string{"result"},
	)

	stitchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pdfstitch",
			Name:      "stitch_duration_seconds",
			Help:      "Duration of whole stitch jobs",
			Buckets:   prometheus.DefBuckets,
		},
	)

	inputsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfstitch",
			Name:      "inputs_total",
			Help:      "Inputs consumed by kind (document, image)",
		},
		[]string{"kind"},
	)

	inputsPerJob = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pdfstitch",
			Name:      "inputs_per_job",
			Help:      "Number of inputs per stitch job",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		},
	)

	pagesOutput = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pdfstitch",
			Name:      "pages_output_total",
			Help:      "Pages written to assembled documents",
		},
	)

	jobsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pdfstitch",
			Name:      "jobs_in_flight",
			Help:      "Stitch jobs currently running",
		},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(jobsTotal, stitchDuration, inputsTotal, inputsPerJob, pagesOutput, jobsInFlight)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

// ObserveJob records one finished job.
func ObserveJob(result string, inputs int, dur time.Duration) {
	jobsTotal.WithLabelValues(result).Inc()
	inputsPerJob.Observe(float64(inputs))
	stitchDuration.Observe(dur.Seconds())
}

func IncInput(kind string) { inputsTotal.WithLabelValues(kind).Inc() }

func AddPagesOutput(n int) { pagesOutput.Add(float64(n)) }

func JobStarted()  { jobsInFlight.Inc() }
func JobFinished() { jobsInFlight.Dec() }
