package model

import (
	"testing"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LongOnlyRejectsNegativeWeight(t *testing.T) {
	_, err := New("growth", map[string]float64{"AAPL": 0.6, "GOOG": -0.4}, true)
	require.Error(t, err)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "GOOG")
}

func TestNew_ShortWeightsAllowedWithoutEnforcement(t *testing.T) {
	m, err := New("long-short", map[string]float64{"AAPL": 1.4, "GOOG": -0.4}, false)
	require.NoError(t, err)

	weight, ok := m.GetTarget("GOOG")
	assert.True(t, ok)
	assert.Equal(t, -0.4, weight)
}

func TestMutators(t *testing.T) {
	m, err := New("core", map[string]float64{"AAPL": 0.5}, true)
	require.NoError(t, err)

	require.NoError(t, m.AddTarget("GOOG", 0.5))
	assert.Error(t, m.AddTarget("GOOG", 0.2), "duplicate add must fail")

	require.NoError(t, m.UpdateTarget("GOOG", 0.3))
	assert.Error(t, m.UpdateTarget("MSFT", 0.1), "updating a missing target must fail")
	assert.Error(t, m.UpdateTarget("GOOG", -0.1), "long-only update must reject negative weight")

	// Failed mutation leaves the model unchanged
	weight, _ := m.GetTarget("GOOG")
	assert.Equal(t, 0.3, weight)

	require.NoError(t, m.RemoveTarget("GOOG"))
	assert.Error(t, m.RemoveTarget("GOOG"))
	_, ok := m.GetTarget("GOOG")
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	m, err := New("scaled", map[string]float64{"AAPL": 2, "GOOG": 2}, true)
	require.NoError(t, err)

	normalized := m.Normalize()
	assert.Equal(t, map[string]float64{"AAPL": 0.5, "GOOG": 0.5}, normalized)

	// Normalize is pure: raw targets untouched
	raw, _ := m.GetTarget("AAPL")
	assert.Equal(t, 2.0, raw)
}

func TestNormalize_ZeroSumReturnsRawTargets(t *testing.T) {
	m, err := New("degenerate", map[string]float64{"AAPL": 1, "GOOG": -1}, false)
	require.NoError(t, err)

	normalized := m.Normalize()
	assert.Equal(t, map[string]float64{"AAPL": 1.0, "GOOG": -1.0}, normalized)
}
