// Package metrics counts crypto and share operations on a private Prometheus
// registry. A CLI run has no scrape endpoint, so the registry is written to a
// node_exporter textfile instead.
package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Encryption modes.
const (
	ModeKey      = "key"
	ModePassword = "password"
)

// Decryption results.
const (
	ResultSuccess     = "success"
	ResultAuthFailure = "auth_failure"
	ResultMalformed   = "malformed"
)

// Registry holds all metrics for the application.
type Registry struct {
	EncryptionsTotal *prometheus.CounterVec
	DecryptionsTotal *prometheus.CounterVec
	KDFDuration      prometheus.Histogram
	UploadsTotal     *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with all metrics initialized.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		EncryptionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sealshare_encryptions_total",
				Help: "Total number of snippets encrypted",
			},
			[]string{"mode"},
		),
		DecryptionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sealshare_decryptions_total",
				Help: "Total number of decryption attempts by outcome",
			},
			[]string{"mode", "result"},
		),
		KDFDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sealshare_kdf_duration_seconds",
				Help:    "Time spent deriving keys from passwords",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),
		UploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sealshare_uploads_total",
				Help: "Total number of snippet uploads by outcome",
			},
			[]string{"result"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sealshare_request_duration_seconds",
				Help:    "Snippet store request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		registry: reg,
	}
}

// GetPrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// RecordEncryption counts one encryption.
func (r *Registry) RecordEncryption(mode string) {
	r.EncryptionsTotal.WithLabelValues(mode).Inc()
}

// RecordDecryption counts one decryption attempt.
func (r *Registry) RecordDecryption(mode, result string) {
	r.DecryptionsTotal.WithLabelValues(mode, result).Inc()
}

// ObserveKDF records a key derivation.
func (r *Registry) ObserveKDF(d time.Duration) {
	r.KDFDuration.Observe(d.Seconds())
}

// RecordUpload counts an upload.
func (r *Registry) RecordUpload(success bool) {
	result := ResultSuccess
	if !success {
		result = "error"
	}
	r.UploadsTotal.WithLabelValues(result).Inc()
}

// ObserveRequest records the latency of a snippet store call.
func (r *Registry) ObserveRequest(operation string, d time.Duration) {
	r.RequestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// WriteTextfile writes the registry in the text exposition format.
func (r *Registry) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
