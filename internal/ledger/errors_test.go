package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyResult(t *testing.T) {
	tests := []struct {
		code string
		want FailureKind
	}{
		{"tecUNFUNDED", FailureInsufficientFunds},
		{"tecUNFUNDED_PAYMENT", FailureInsufficientFunds},
		{"tecUNFUNDED_ESCROW", FailureInsufficientFunds},
		{"tecNO_LINE", FailureNotAuthorized},
		{"tecNO_AUTH", FailureNotAuthorized},
		{"tecNO_PERMISSION", FailureNotAuthorized},
		{"tecINSUF_RESERVE_LINE", FailureReserve},
		{"tecINSUFFICIENT_RESERVE", FailureReserve},
		{"tecNO_DST", FailureNoDestination},
		{"tecNO_DST_INSUF_XRP", FailureNoDestination},
		{"tecEXPIRED", FailureExpired},
		{"tecCRYPTOCONDITION_ERROR", FailureBadCondition},
		{"tecKILLED", FailureUnknown},
		{"temMALFORMED", FailureUnknown},
		{"", FailureUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyResult(tt.code))
		})
	}
}

func TestSubmitErrorKeepsRawCode(t *testing.T) {
	err := NewSubmitError("tecNO_DST")
	assert.Equal(t, FailureNoDestination, err.Kind)
	assert.Equal(t, "tecNO_DST", err.ResultCode)
	assert.Contains(t, err.Error(), "tecNO_DST")
}

func TestSubmitErrorUnknownCode(t *testing.T) {
	err := NewSubmitError("tecINTERNAL")
	assert.Equal(t, FailureUnknown, err.Kind)
	assert.Contains(t, err.Error(), "tecINTERNAL")
}
