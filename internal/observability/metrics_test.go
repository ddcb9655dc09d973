package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordValidation(t *testing.T) {
	m := NewMetricsWith("test", prometheus.NewRegistry())

	m.RecordValidation("success", 1.5, 4, 3, 2)
	m.RecordValidation("error", 0.2, 9, 9, 9)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationRuns.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationRuns.WithLabelValues("error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ResetsDetected.WithLabelValues("strategy")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ResetsDetected.WithLabelValues("merged")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DuplicatesDropped))
}

func TestRecordPageAndCache(t *testing.T) {
	m := NewMetricsWith("test", prometheus.NewRegistry())

	m.RecordPage(100)
	m.RecordPage(7)
	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)
	m.RecordCacheLookup(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PagesFetched))
	assert.Equal(t, 107.0, testutil.ToFloat64(m.TradesFetched))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrderCacheHits.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OrderCacheHits.WithLabelValues("miss")))
}

func TestRecordDBQuery(t *testing.T) {
	m := NewMetricsWith("test", prometheus.NewRegistry())

	m.RecordDBQuery("postgres", "insert", 0.01, nil)
	m.RecordDBQuery("postgres", "insert", 0.02, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBQueryErrors.WithLabelValues("postgres", "insert")))
}
