package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	if out.Counter != nil {
		return out.Counter.GetValue()
	}
	return out.Gauge.GetValue()
}

func TestRecordQuotaDecision(t *testing.T) {
	denied := quotaDecisions.WithLabelValues("quota", "denied")
	before := value(t, denied)

	RecordQuotaDecision("quota", false)

	assert.Equal(t, before+1, value(t, denied))
}

func TestObserveStoreOp_CountsErrors(t *testing.T) {
	op := "test_op"
	ObserveStoreOp(op, time.Now(), nil)
	ObserveStoreOp(op, time.Now(), errors.New("boom"))

	assert.Equal(t, float64(2), value(t, storeOpTotal.WithLabelValues(op)))
	assert.Equal(t, float64(1), value(t, storeOpErrors.WithLabelValues(op)))
}

func TestSetDBUp(t *testing.T) {
	SetDBUp(true)
	assert.Equal(t, float64(1), value(t, dbUp))
	SetDBUp(false)
	assert.Equal(t, float64(0), value(t, dbUp))
}
