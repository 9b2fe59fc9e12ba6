package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu      sync.Mutex
	topics  []string
	batches [][]AggregatedLogEntry
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ []byte, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.batches = append(p.batches, value.([]AggregatedLogEntry))
	return p.err
}

func (p *recordingPublisher) total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.batches {
		n += len(b)
	}
	return n
}

func TestNewWithWriter_LevelAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn")

	l.Info("dropped")
	l.Warn("kept", String("symbol", "AAPL"), Float64("price", 1.5), Duration("took", 1500*time.Millisecond),
		Bool("model", true), Int64("bars", 151), Any("thresholds", map[string]float64{"buy": 0.55}))

	out := buf.String()
	assert.NotContains(t, out, "dropped")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "AAPL", entry["symbol"])
	assert.Equal(t, 1.5, entry["price"])
	assert.Equal(t, 1500.0, entry["took"])
	assert.Equal(t, true, entry["model"])
	assert.Equal(t, 151.0, entry["bars"])
	assert.Equal(t, map[string]interface{}{"buy": 0.55}, entry["thresholds"])
}

func TestWith_AddsContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "debug").With(String("component", "yahoo"))
	l.Debug("fetch")
	assert.Contains(t, buf.String(), `"component":"yahoo"`)
}

func TestNew_RejectsBadLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	l := NewNop()
	l.Error("nothing", Error(errors.New("x")))
}

func TestCollector_DeduplicatesAndFlushes(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewLogCollector(CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 100,
		Topic:          "logs",
		Publisher:      pub,
	})
	defer c.Close()

	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info")
	l.SetCollector(c)

	for i := 0; i < 3; i++ {
		l.Error("fetch failed", String("symbol", "AAPL"))
	}
	l.Error("fetch failed", String("symbol", "MSFT"))
	l.Warn("not collected")

	assert.Equal(t, 2, c.Len())
	c.Flush()
	assert.Equal(t, 0, c.Len())

	require.Len(t, pub.batches, 1)
	assert.Equal(t, "logs", pub.topics[0])
	counts := map[interface{}]int{}
	for _, e := range pub.batches[0] {
		counts[e.Fields["symbol"]] = e.Count
		assert.Contains(t, e.Caller, "logger_test.go")
	}
	assert.Equal(t, map[interface{}]int{"AAPL": 3, "MSFT": 1}, counts)
}

func TestCollector_ThresholdAndClose(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	c := NewLogCollector(CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Publisher: pub})

	c.AddLog("error", "a", nil, "x.go:1")
	c.AddLog("error", "b", nil, "x.go:2")
	c.AddLog("error", "c", nil, "x.go:3")
	c.Close()
	c.Close()

	assert.Equal(t, 3, pub.total())
	assert.Equal(t, 0, c.Len())
}

func TestTrimCaller(t *testing.T) {
	assert.Equal(t, "internal/usecase/predict.go", trimCaller("/src/StockSignal/internal/usecase/predict.go"))
	assert.Equal(t, "/other/file.go", trimCaller("/other/file.go"))
}
