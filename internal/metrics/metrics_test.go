package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNew_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := New(reg)
	second := New(reg)

	first.UsernameChecks.WithLabelValues("available").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(second.UsernameChecks.WithLabelValues("available")))
}
