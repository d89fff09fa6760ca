package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanState_Transitions(t *testing.T) {
	tests := []struct {
		from, to PlanState
		ok       bool
	}{
		{StateIdle, StateSearching, true},
		{StateIdle, StateCommitted, false},
		{StateSearching, StateSlotsFound, true},
		{StateSearching, StateNoSlotsFound, true},
		{StateSearching, StateCancelled, false},
		{StateSlotsFound, StateCommitted, true},
		{StateSlotsFound, StateSearching, true},
		{StateNoSlotsFound, StateCommitted, false},
		{StateNoSlotsFound, StateCancelled, true},
		{StateCommitted, StateSearching, false},
		{StateCancelled, StateSearching, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			got, err := tt.from.Transition(tt.to)
			if !tt.ok {
				require.Error(t, err)
				assert.Equal(t, tt.from, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, got)
		})
	}
}

func TestPlanState_Terminal(t *testing.T) {
	assert.True(t, StateCommitted.Terminal())
	assert.True(t, StateCancelled.Terminal())
	assert.False(t, StateSlotsFound.Terminal())
	assert.False(t, StateIdle.Terminal())
}
