package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/devrev/graphmesh/internal/config"
	graphErrors "github.com/devrev/graphmesh/internal/errors"
	"github.com/devrev/graphmesh/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

type recordingQueue struct {
	mu       sync.Mutex
	payloads []string
}

func (q *recordingQueue) Enqueue(payload string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.payloads = append(q.payloads, payload)
}

type fakeFetcher struct {
	batches []kgo.Fetches
	closed  bool
}

func (f *fakeFetcher) PollRecords(ctx context.Context, max int) kgo.Fetches {
	if len(f.batches) == 0 {
		return nil
	}
	next := f.batches[0]
	f.batches = f.batches[1:]
	return next
}

func (f *fakeFetcher) Close() {
	f.closed = true
}

func fetchOf(values ...string) kgo.Fetches {
	records := make([]*kgo.Record, len(values))
	for i, v := range values {
		records[i] = &kgo.Record{Topic: "graph-edges", Value: []byte(v), Offset: int64(i)}
	}
	return kgo.Fetches{{
		Topics: []kgo.FetchTopic{{
			Topic:      "graph-edges",
			Partitions: []kgo.FetchPartition{{Partition: 0, Records: records}},
		}},
	}}
}

func TestRegistry_DefaultHandlers(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"enqueue", "print"}, r.Names())

	q := &recordingQueue{}
	h, err := r.Build("enqueue", Deps{Queue: q})
	require.NoError(t, err)
	h.Handle([]byte(`{"from":"a","to":"b"}`))
	assert.Equal(t, []string{`{"from":"a","to":"b"}`}, q.payloads)

	h, err = r.Build("print", Deps{Logger: zap.NewNop()})
	require.NoError(t, err)
	h.Handle([]byte("hello"))
}

func TestRegistry_Errors(t *testing.T) {
	r := DefaultRegistry()

	_, err := r.Build("missing", Deps{})
	require.Error(t, err)
	assert.Equal(t, graphErrors.ErrCodeMisconfigured, graphErrors.GetCode(err))

	_, err = r.Build("enqueue", Deps{})
	assert.Error(t, err)

	err = r.Register("print", newPrintHandler)
	assert.Error(t, err)
}

func TestSource_PollHandsRecordsInOrder(t *testing.T) {
	q := &recordingQueue{}
	fetcher := &fakeFetcher{batches: []kgo.Fetches{fetchOf("one", "two", "three")}}
	m := metrics.NewMetrics("orchestrator", "test", prometheus.NewRegistry())

	h, err := DefaultRegistry().Build("enqueue", Deps{Queue: q})
	require.NoError(t, err)
	src := NewSource(fetcher, h, SourceOptions{PollInterval: 7 * time.Millisecond}, m, zap.NewNop())

	src.Poll(context.Background())
	assert.Equal(t, []string{"one", "two", "three"}, q.payloads)
	assert.Equal(t, time.Duration(0), src.NextPollInterval())
	assert.Equal(t, 3.0, testutil.ToFloat64(m.IngestPayloads.WithLabelValues("received")))

	src.Poll(context.Background())
	assert.Equal(t, 7*time.Millisecond, src.NextPollInterval())

	src.Stop()
	assert.True(t, fetcher.closed)
}

func TestSource_PollSkipsFetchErrors(t *testing.T) {
	q := &recordingQueue{}
	fetcher := &fakeFetcher{batches: []kgo.Fetches{
		kgo.NewErrFetch(context.DeadlineExceeded),
		kgo.NewErrFetch(errors.New("broker gone")),
	}}
	src := NewSource(fetcher, HandlerFunc(func(p []byte) { q.Enqueue(string(p)) }), SourceOptions{}, nil, zap.NewNop())

	src.Poll(context.Background())
	src.Poll(context.Background())
	assert.Empty(t, q.payloads)
}

func TestNewKafkaSource_RequiresBrokersAndTopic(t *testing.T) {
	h := HandlerFunc(func([]byte) {})

	_, err := NewKafkaSource(config.IngestionConfig{Topic: "t"}, h, nil, zap.NewNop())
	require.Error(t, err)
	assert.Equal(t, graphErrors.ErrCodeMisconfigured, graphErrors.GetCode(err))

	_, err = NewKafkaSource(config.IngestionConfig{Brokers: []string{"localhost:9092"}}, h, nil, zap.NewNop())
	require.Error(t, err)
}
