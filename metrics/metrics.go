// Package metrics exposes the Prometheus collectors of the key custody service
// and the HTTP server that serves them.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ruteri/liveness-gated-kms/common"
)

var (
	registry = prometheus.NewRegistry()

	unlockTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: common.PackageName,
		Name:      "unlock_total",
		Help:      "Granted unlock windows by entropy status.",
	}, []string{"status"})

	encryptTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: common.PackageName,
		Name:      "encrypt_total",
		Help:      "Successful encrypt operations.",
	})

	decryptTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: common.PackageName,
		Name:      "decrypt_total",
		Help:      "Decrypt attempts by result.",
	}, []string{"result"})

	entropyFallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: common.PackageName,
		Name:      "entropy_fallback_total",
		Help:      "Entropy samples produced by the fallback generator, by reason.",
	}, []string{"reason"})

	owners = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: common.PackageName,
		Name:      "owners",
		Help:      "Owners holding a master key.",
	})

	persistFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: common.PackageName,
		Name:      "persist_failures_total",
		Help:      "Failed state document writes.",
	})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		unlockTotal,
		encryptTotal,
		decryptTotal,
		entropyFallbackTotal,
		owners,
		persistFailuresTotal,
	)
}

// Decrypt results.
const (
	DecryptOK     = "ok"
	DecryptLocked = "locked"
	DecryptFailed = "failed"
)

func RecordUnlock(status string) { unlockTotal.WithLabelValues(status).Inc() }

func RecordEncrypt() { encryptTotal.Inc() }

func RecordDecrypt(result string) { decryptTotal.WithLabelValues(result).Inc() }

func RecordEntropyFallback(reason string) { entropyFallbackTotal.WithLabelValues(reason).Inc() }

func SetOwners(n int) { owners.Set(float64(n)) }

func RecordPersistFailure() { persistFailuresTotal.Inc() }

// Gatherer returns the registry holding all service collectors.
func Gatherer() prometheus.Gatherer { return registry }

// MetricsServer serves /metrics on its own listener.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server listening on addr.
func New(addr string) (*MetricsServer, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	return &MetricsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
