package escrow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusEscrowCreated, false},
		{StatusPending, StatusCompleted, false},
		{StatusApproved, StatusEscrowCreated, true},
		{StatusApproved, StatusPending, false},
		{StatusEscrowCreated, StatusPaid, true},
		{StatusEscrowCreated, StatusCompleted, true},
		{StatusEscrowCreated, StatusApproved, false},
		{StatusPaid, StatusCompleted, true},
		{StatusPaid, StatusEscrowCreated, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to))
		})
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, IsTerminal(StatusCompleted))
	assert.True(t, IsTerminal(StatusCancelled))
	assert.False(t, IsTerminal(StatusPending))
	assert.False(t, IsTerminal(StatusEscrowCreated))
}

func TestNewRequestID(t *testing.T) {
	first := NewRequestID()
	second := NewRequestID()
	assert.True(t, strings.HasPrefix(first, "PR-"))
	assert.NotEqual(t, first, second)
}
