package ledger

import "time"

// rippleEpoch is the Unix timestamp of 2000-01-01T00:00:00Z, the zero point
// for all on-ledger time fields.
const rippleEpoch = 946684800

// RippleTime converts a wall-clock time to seconds since the Ripple epoch
func RippleTime(t time.Time) int64 {
	return t.Unix() - rippleEpoch
}

// FromRippleTime converts seconds since the Ripple epoch back to wall-clock time
func FromRippleTime(secs int64) time.Time {
	return time.Unix(secs+rippleEpoch, 0).UTC()
}

// CancelAfter returns the escrow expiry for a window starting now,
// in Ripple-epoch seconds
func CancelAfter(window time.Duration) int64 {
	return RippleTime(time.Now().Add(window))
}
