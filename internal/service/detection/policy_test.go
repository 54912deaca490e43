package detection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voicegate/fraud-manager-backend/internal/domain/fraud"
)

func TestBlockingPolicy_Apply(t *testing.T) {
	week := fraud.Window{Name: "week", Days: 7}

	tests := []struct {
		name          string
		threshold     int
		result        WindowResult
		wantTriggered bool
		wantReason    string
	}{
		{
			name:          "below threshold does not trigger",
			threshold:     3,
			result:        WindowResult{Window: week, DistinctIDs: []string{"A", "B"}},
			wantTriggered: false,
		},
		{
			name:          "exactly at threshold triggers",
			threshold:     3,
			result:        WindowResult{Window: week, DistinctIDs: []string{"A", "B", "C"}},
			wantTriggered: true,
			wantReason:    "Automatic block (rule: week period)",
		},
		{
			name:          "above threshold triggers",
			threshold:     3,
			result:        WindowResult{Window: fraud.Window{Name: "day", Days: 1}, DistinctIDs: []string{"A", "B", "C", "D"}},
			wantTriggered: true,
			wantReason:    "Automatic block (rule: day period)",
		},
		{
			name:          "errored window never triggers",
			threshold:     1,
			result:        WindowResult{Window: week, Err: errors.New("read failed")},
			wantTriggered: false,
		},
		{
			name:          "empty window does not trigger",
			threshold:     1,
			result:        WindowResult{Window: week},
			wantTriggered: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := NewBlockingPolicy(tt.threshold)

			decision, triggered := policy.Apply(tt.result)

			assert.Equal(t, tt.wantTriggered, triggered)
			if tt.wantTriggered {
				assert.True(t, decision.Blocked)
				assert.Equal(t, tt.wantReason, decision.Reason)
				assert.Equal(t, tt.result.Window, decision.Window)
			} else {
				assert.False(t, decision.Blocked)
			}
		})
	}
}
