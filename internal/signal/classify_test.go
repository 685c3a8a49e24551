package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyKnownQualities(t *testing.T) {
	tests := []struct {
		raw   string
		label string
		rank  int
	}{
		{QualityExcellent, "Excellent", 5},
		{QualityGood, "Good", 4},
		{QualityFair, "Fair", 3},
		{QualityPoor, "Poor", 2},
		{QualityDisconnected, "Disconnected", 1},
		{QualityError, "Error", 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			s := Classify(tt.raw)
			assert.Equal(t, tt.label, s.Label)
			assert.Equal(t, tt.rank, s.Rank)
			assert.NotEmpty(t, s.Color)
		})
	}
}

func TestClassifyUnknownIsDisconnectedNotError(t *testing.T) {
	for _, raw := range []string{"", "garbage", "EXCELLENT", "connexion"} {
		s := Classify(raw)
		assert.Equal(t, "Disconnected", s.Label, "raw=%q", raw)
		assert.Equal(t, 1, s.Rank)
	}
}

func TestConnected(t *testing.T) {
	assert.True(t, Connected(QualityExcellent))
	assert.True(t, Connected(QualityPoor))
	assert.False(t, Connected(QualityDisconnected))
	assert.False(t, Connected(QualityError))
	assert.False(t, Connected(""))
	assert.False(t, Connected("anything"))
}
