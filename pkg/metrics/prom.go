package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	// StoreOperations counts every record-store call by operation and
	// outcome (ok, not_found, duplicate, error).
	StoreOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_store_operations_total",
			Help: "Total number of record store operations",
		},
		[]string{"operation", "outcome"},
	)

	// DuplicateHits counts inserts that landed on an already-present
	// unique key: tally bumps for links and questions, rejected user emails.
	DuplicateHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_store_duplicate_hits_total",
			Help: "Total number of inserts that hit an existing unique key",
		},
		[]string{"collection"},
	)

	// CollectionDocuments tracks the current document count per collection,
	// refreshed periodically by the stats loop.
	CollectionDocuments = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chatbot_store_collection_documents",
			Help: "Current number of documents per collection",
		},
		[]string{"collection"},
	)
)

func init() {
	prometheus.MustRegister(StoreOperations)
	prometheus.MustRegister(DuplicateHits)
	prometheus.MustRegister(CollectionDocuments)
}

// MustServe exposes Prometheus metrics on the given address (e.g., ":8080").
// It launches the http.Server in its own goroutine and fatal-logs on startup
// failure. The returned server lets the caller shut down gracefully.
func MustServe(addr string, log *zap.SugaredLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		log.Infow("metrics endpoint listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("metrics server failed", "err", err)
		}
	}()

	return srv
}

// ObserveStoreOperation increments the operation counter.
func ObserveStoreOperation(operation, outcome string) {
	StoreOperations.WithLabelValues(operation, outcome).Inc()
}

// IncDuplicateHit increments the duplicate-hit counter for a collection.
func IncDuplicateHit(collection string) {
	DuplicateHits.WithLabelValues(collection).Inc()
}

// SetCollectionDocuments updates the document-count gauge for a collection.
func SetCollectionDocuments(collection string, count int64) {
	CollectionDocuments.WithLabelValues(collection).Set(float64(count))
}
