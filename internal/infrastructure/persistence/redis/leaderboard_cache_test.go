package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompositeScore_HigherScoreWins(t *testing.T) {
	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	// A marginally higher score achieved later must still outrank a lower
	// score achieved earlier.
	assert.Greater(t, compositeScore(82.51, late), compositeScore(82.50, early))
}

func TestCompositeScore_TieGoesToEarlierAchiever(t *testing.T) {
	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Second)

	assert.Greater(t, compositeScore(90, early), compositeScore(90, late))
}

func TestCompositeScore_QuantizesFloatNoise(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// Sub-cent differences collapse to the same score component.
	assert.Equal(t, compositeScore(90.0000001, at), compositeScore(90, at))
}
