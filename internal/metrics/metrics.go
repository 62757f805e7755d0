package metrics

import (
    "net/http"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    pagesExported = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "miroexport",
            Name:      "pages_exported_total",
            Help:      "Total pages exported by result (ok, degraded, failed) and format",
        },
        []string{"result", "format"},
    )

    encodeAttempts = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "miroexport",
            Name:      "encode_attempts_total",
            Help:      "Total encode attempts by encoder and outcome (fit, over, error)",
        },
        []string{"encoder", "outcome"},
    )

    dpiProbes = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "miroexport",
            Name:      "dpi_probes_total",
            Help:      "Total DPI binary-search probe renders",
        },
    )

    renderDuration = prometheus.NewHistogram(
        prometheus.HistogramOpts{
            Namespace: "miroexport",
            Name:      "render_duration_seconds",
            Help:      "Duration of single page raster renders",
            Buckets:   prometheus.DefBuckets,
        },
    )

    pageDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "miroexport",
            Name:      "page_export_duration_seconds",
            Help:      "End-to-end duration of a page export by path (vector, raster)",
            Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
        },
        []string{"path"},
    )

    bytesWritten = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "miroexport",
            Name:      "bytes_written_total",
            Help:      "Total artifact bytes written to disk",
        },
    )
)

// Init registers collectors.
func Init() {
    prometheus.MustRegister(pagesExported, encodeAttempts, dpiProbes, renderDuration, pageDuration, bytesWritten)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func IncPageExported(result, format string) { pagesExported.WithLabelValues(result, format).Inc() }

func IncEncodeAttempt(encoder, outcome string) { encodeAttempts.WithLabelValues(encoder, outcome).Inc() }

func IncDpiProbe() { dpiProbes.Inc() }

func ObserveRender(dur time.Duration) { renderDuration.Observe(dur.Seconds()) }

func ObservePage(path string, dur time.Duration) {
    pageDuration.WithLabelValues(path).Observe(dur.Seconds())
}

func AddBytesWritten(n int) { bytesWritten.Add(float64(n)) }
