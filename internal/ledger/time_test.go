package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRippleTimeEpoch(t *testing.T) {
	epoch := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, int64(0), RippleTime(epoch))
	assert.Equal(t, int64(60), RippleTime(epoch.Add(time.Minute)))
}

func TestRippleTimeRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	assert.True(t, now.Equal(FromRippleTime(RippleTime(now))))
}

func TestCancelAfterWindow(t *testing.T) {
	before := RippleTime(time.Now())
	got := CancelAfter(time.Hour)
	after := RippleTime(time.Now())

	assert.GreaterOrEqual(t, got, before+3600)
	assert.LessOrEqual(t, got, after+3600)
}
