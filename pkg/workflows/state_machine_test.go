package workflows

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newOrderMachine() *StateMachine {
	return NewStateMachine(map[string][]string{
		"draft":     {"submitted", "cancelled"},
		"submitted": {"accepted", "cancelled"},
		"accepted":  {},
		"cancelled": {},
	})
}

func TestCanTransition(t *testing.T) {
	sm := newOrderMachine()

	assert.True(t, sm.CanTransition("draft", "submitted"))
	assert.True(t, sm.CanTransition("submitted", "cancelled"))
	assert.False(t, sm.CanTransition("draft", "accepted"))
	assert.False(t, sm.CanTransition("accepted", "draft"))
	assert.False(t, sm.CanTransition("unknown", "draft"))
}

func TestGetAllowedTransitions(t *testing.T) {
	sm := newOrderMachine()

	assert.ElementsMatch(t, []string{"submitted", "cancelled"}, sm.GetAllowedTransitions("draft"))
	assert.Empty(t, sm.GetAllowedTransitions("accepted"))
	assert.Empty(t, sm.GetAllowedTransitions("unknown"))
}

func TestIsTerminal(t *testing.T) {
	sm := newOrderMachine()

	assert.True(t, sm.IsTerminal("accepted"))
	assert.True(t, sm.IsTerminal("cancelled"))
	assert.True(t, sm.IsTerminal("unknown"))
	assert.False(t, sm.IsTerminal("draft"))
}
