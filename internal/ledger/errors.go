package ledger

import (
	"fmt"
	"strings"
)

// FailureKind classifies engine result codes into a closed set the UI can
// render without string-matching raw node output.
type FailureKind string

const (
	FailureInsufficientFunds FailureKind = "insufficient_funds"
	FailureNotAuthorized     FailureKind = "not_authorized"
	FailureReserve           FailureKind = "insufficient_reserve"
	FailureNoDestination     FailureKind = "no_destination"
	FailureExpired           FailureKind = "expired"
	FailureBadCondition      FailureKind = "bad_condition"
	FailureUnknown           FailureKind = "unknown"
)

var failureMessages = map[FailureKind]string{
	FailureInsufficientFunds: "the account does not hold enough XRP to fund this transaction",
	FailureNotAuthorized:     "the account is missing a trust line or is not authorized for this token",
	FailureReserve:           "the account balance would drop below the ledger reserve",
	FailureNoDestination:     "the destination account does not exist on the ledger",
	FailureExpired:           "the transaction or escrow window has expired",
	FailureBadCondition:      "the crypto-condition or fulfillment did not match",
}

var failuresByCode = map[string]FailureKind{
	"tecUNFUNDED":              FailureInsufficientFunds,
	"tecUNFUNDED_PAYMENT":      FailureInsufficientFunds,
	"tecUNFUNDED_ESCROW":       FailureInsufficientFunds,
	"tecNO_LINE":               FailureNotAuthorized,
	"tecNO_AUTH":               FailureNotAuthorized,
	"tecNO_PERMISSION":         FailureNotAuthorized,
	"tecINSUF_RESERVE_LINE":    FailureReserve,
	"tecINSUFFICIENT_RESERVE":  FailureReserve,
	"tecNO_DST":                FailureNoDestination,
	"tecNO_DST_INSUF_XRP":      FailureNoDestination,
	"tecEXPIRED":               FailureExpired,
	"tecCRYPTOCONDITION_ERROR": FailureBadCondition,
}

// SubmitError carries the raw engine result alongside its classification
type SubmitError struct {
	Kind       FailureKind
	ResultCode string
}

func (e *SubmitError) Error() string {
	if msg, ok := failureMessages[e.Kind]; ok {
		return fmt.Sprintf("%s (%s)", msg, e.ResultCode)
	}
	return fmt.Sprintf("transaction failed: %s", e.ResultCode)
}

// ClassifyResult maps an engine result code to a FailureKind. Unknown codes
// stay FailureUnknown; the raw code is preserved on the SubmitError.
func ClassifyResult(code string) FailureKind {
	if kind, ok := failuresByCode[code]; ok {
		return kind
	}
	// Some codes carry suffixes (tecUNFUNDED_AMM etc); fall back on prefix.
	for known, kind := range failuresByCode {
		if strings.HasPrefix(code, known) {
			return kind
		}
	}
	return FailureUnknown
}

// NewSubmitError builds a classified error from an engine result code
func NewSubmitError(code string) *SubmitError {
	return &SubmitError{Kind: ClassifyResult(code), ResultCode: code}
}
