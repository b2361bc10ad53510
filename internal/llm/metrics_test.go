package llm

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusObserver_CountsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := NewPrometheusObserver(reg)
	require.NoError(t, err)

	obs.OnCallComplete(LLMCallEvent{Task: TaskVisual, Success: true, LatencyMs: 1200})
	obs.OnCallComplete(LLMCallEvent{Task: TaskVisual, Success: false, ErrorCode: "TIMEOUT"})
	obs.OnCallComplete(LLMCallEvent{Task: TaskStructure, Success: true})

	assert.Equal(t, 1.0, testutil.ToFloat64(obs.calls.WithLabelValues("visual", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.calls.WithLabelValues("visual", "TIMEOUT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.calls.WithLabelValues("structure", "ok")))

	_, err = NewPrometheusObserver(reg)
	assert.Error(t, err, "double registration must fail")
}
