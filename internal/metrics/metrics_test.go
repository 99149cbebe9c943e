package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveWrite(t *testing.T) {
	m := New()

	m.ObserveWrite("add", OutcomeOK)
	m.ObserveWrite("add", OutcomeOK)
	m.ObserveWrite("update", OutcomeNotFound)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StudentWrites.WithLabelValues("add", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StudentWrites.WithLabelValues("update", OutcomeNotFound)))
	assert.Zero(t, testutil.ToFloat64(m.StudentWrites.WithLabelValues("delete", OutcomeOK)))
}

func TestObserveWrite_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveWrite("add", OutcomeOK) })
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveWrite("add", OutcomeOK)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.StudentWrites.WithLabelValues("add", OutcomeOK)))
	assert.Zero(t, testutil.ToFloat64(b.StudentWrites.WithLabelValues("add", OutcomeOK)))
}
