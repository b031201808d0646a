package banpolicy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		count     int
		banned    bool
		remaining int
	}{
		{0, false, 3},
		{1, false, 2},
		{2, false, 1},
		{3, true, 0},
		{7, true, 0},
	}
	for _, tt := range tests {
		d := Evaluate(tt.count)
		assert.Equal(t, tt.banned, d.Banned, "count=%d", tt.count)
		assert.Equal(t, !tt.banned, d.CanReapplyAllowed, "count=%d", tt.count)
		assert.Equal(t, tt.remaining, Remaining(tt.count), "count=%d", tt.count)
	}
}

func TestEvaluate_Monotone(t *testing.T) {
	wasBanned := false
	for count := 0; count <= 10; count++ {
		d := Evaluate(count)
		if wasBanned {
			assert.True(t, d.Banned, "ban must never lift as count grows (count=%d)", count)
		}
		wasBanned = d.Banned
	}
}
