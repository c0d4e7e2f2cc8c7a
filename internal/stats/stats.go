package stats

import (
	"context"
	"time"

	"go.uber.org/zap"

	"chatbot_store/internal/storage"
	"chatbot_store/pkg/metrics"
)

// Refresher periodically reads per-collection document counts from the
// record store and publishes them as Prometheus gauges. It wraps a
// time.Ticker and stops when the parent context is cancelled; one refresh
// runs immediately on start so the gauges are never blank.
type Refresher struct {
	store    storage.RecordStore
	interval time.Duration
	log      *zap.SugaredLogger
}

// New constructs a Refresher. If interval is below 1s it is clamped to 1s
// to avoid busy-loops.
func New(store storage.RecordStore, interval time.Duration, logger *zap.SugaredLogger) *Refresher {
	if interval < time.Second {
		interval = time.Second
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Refresher{
		store:    store,
		interval: interval,
		log:      logger,
	}
}

// Run executes the refresh loop. It blocks until the context is done; safe
// to call in its own goroutine.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Infow("stats refresher started", "interval", r.interval.String())
	r.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			r.log.Info("stats refresher stopped")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

// refresh performs one collection-count pass. Errors are logged, never
// propagated; a failed pass leaves the previous gauge values in place.
func (r *Refresher) refresh(ctx context.Context) {
	st, err := r.store.Stats(ctx)
	if err != nil {
		r.log.Errorw("stats refresh failed", "err", err)
		return
	}

	metrics.SetCollectionDocuments(storage.CollectionUsers, st.Users)
	metrics.SetCollectionDocuments(storage.CollectionLinks, st.Links)
	metrics.SetCollectionDocuments(storage.CollectionQuestions, st.Questions)
	metrics.SetCollectionDocuments(storage.CollectionChatLog, st.ChatLogs)
	metrics.SetCollectionDocuments(storage.CollectionChatHistory, st.Histories)

	r.log.Debugw("stats refreshed",
		"users", st.Users,
		"links", st.Links,
		"questions", st.Questions,
		"chat_logs", st.ChatLogs,
		"histories", st.Histories,
	)
}
