package ledger

import (
	"math/big"
	"strconv"
)

// Transaction field names follow the ledger's canonical JSON casing.

// AccountSet updates issuer account flags and domain
type AccountSet struct {
	TransactionType string `json:"TransactionType"`
	Account         string `json:"Account"`
	Domain          string `json:"Domain,omitempty"`
	SetFlag         uint32 `json:"SetFlag,omitempty"`
}

// TrustSet creates or updates a trust line
type TrustSet struct {
	TransactionType string      `json:"TransactionType"`
	Account         string      `json:"Account"`
	LimitAmount     TokenAmount `json:"LimitAmount"`
}

// TokenAmount is an issued-currency amount
type TokenAmount struct {
	Currency string `json:"currency"`
	Issuer   string `json:"issuer"`
	Value    string `json:"value"`
}

// Payment moves XRP (drops string) or an issued token
type Payment struct {
	TransactionType string      `json:"TransactionType"`
	Account         string      `json:"Account"`
	Destination     string      `json:"Destination"`
	Amount          interface{} `json:"Amount"`
}

// MPTokenIssuanceCreate creates a multi-purpose token issuance
type MPTokenIssuanceCreate struct {
	TransactionType string `json:"TransactionType"`
	Account         string `json:"Account"`
	AssetScale      uint8  `json:"AssetScale,omitempty"`
	MaximumAmount   string `json:"MaximumAmount,omitempty"`
	MPTokenMetadata string `json:"MPTokenMetadata,omitempty"`
	Flags           uint32 `json:"Flags,omitempty"`
}

// MPTokenAuthorize opts a holder in to an issuance
type MPTokenAuthorize struct {
	TransactionType   string `json:"TransactionType"`
	Account           string `json:"Account"`
	MPTokenIssuanceID string `json:"MPTokenIssuanceID"`
}

// EscrowCreate locks XRP behind a crypto-condition until finished or expired
type EscrowCreate struct {
	TransactionType string `json:"TransactionType"`
	Account         string `json:"Account"`
	Destination     string `json:"Destination"`
	Amount          string `json:"Amount"`
	Condition       string `json:"Condition,omitempty"`
	CancelAfter     int64  `json:"CancelAfter,omitempty"`
	FinishAfter     int64  `json:"FinishAfter,omitempty"`
}

// EscrowFinish releases an escrow by disclosing the fulfillment
type EscrowFinish struct {
	TransactionType string `json:"TransactionType"`
	Account         string `json:"Account"`
	Owner           string `json:"Owner"`
	OfferSequence   uint32 `json:"OfferSequence"`
	Condition       string `json:"Condition,omitempty"`
	Fulfillment     string `json:"Fulfillment,omitempty"`
}

// XRPToDrops converts an XRP amount to its drops string (1 XRP = 1e6 drops)
func XRPToDrops(xrp float64) string {
	drops := new(big.Float).Mul(big.NewFloat(xrp), big.NewFloat(1_000_000))
	v, _ := drops.Int64()
	return strconv.FormatInt(v, 10)
}

// NewXRPEscrow builds the escrow the buyer funds: XRP held for the issuer
// until the condition is fulfilled or the window lapses
func NewXRPEscrow(buyerAddress, issuerAddress string, amountXRP float64, condition string, cancelAfter int64) EscrowCreate {
	return EscrowCreate{
		TransactionType: "EscrowCreate",
		Account:         buyerAddress,
		Destination:     issuerAddress,
		Amount:          XRPToDrops(amountXRP),
		Condition:       condition,
		CancelAfter:     cancelAfter,
	}
}

// NewEscrowFinish builds the finishing transaction the issuer submits
func NewEscrowFinish(account, owner string, offerSequence uint32, condition, fulfillment string) EscrowFinish {
	return EscrowFinish{
		TransactionType: "EscrowFinish",
		Account:         account,
		Owner:           owner,
		OfferSequence:   offerSequence,
		Condition:       condition,
		Fulfillment:     fulfillment,
	}
}
