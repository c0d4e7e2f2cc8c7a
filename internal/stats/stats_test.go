package stats

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbot_store/internal/storage"
	"chatbot_store/pkg/metrics"
)

func TestRefreshUpdatesGauges(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemory()
	defer st.Close(ctx)

	require.NoError(t, st.InsertUser(ctx, "Foo", "foo@bar.com"))
	require.NoError(t, st.InsertLink(ctx, "http://x.test"))
	require.NoError(t, st.InsertLink(ctx, "http://y.test"))

	r := New(st, time.Minute, nil)
	r.refresh(ctx)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		metrics.CollectionDocuments.WithLabelValues(storage.CollectionUsers)))
	assert.Equal(t, 2.0, testutil.ToFloat64(
		metrics.CollectionDocuments.WithLabelValues(storage.CollectionLinks)))
	assert.Equal(t, 0.0, testutil.ToFloat64(
		metrics.CollectionDocuments.WithLabelValues(storage.CollectionQuestions)))
}

func TestRunStopsOnCancel(t *testing.T) {
	st := storage.NewMemory()
	defer st.Close(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	r := New(st, time.Second, nil)

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("refresher did not stop on context cancellation")
	}
}

func TestNewClampsInterval(t *testing.T) {
	r := New(storage.NewMemory(), 10*time.Millisecond, nil)
	assert.Equal(t, time.Second, r.interval)
}
