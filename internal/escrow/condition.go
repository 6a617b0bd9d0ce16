package escrow

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// PREIMAGE-SHA-256 DER framing. The fulfillment embeds the 32-byte preimage,
// the condition embeds its SHA-256 hash plus the preimage-length suffix.
var (
	fulfillmentPrefix = []byte{0xA0, 0x22, 0x80, 0x20}
	conditionPrefix   = []byte{0xA0, 0x25, 0x80, 0x20}
	conditionSuffix   = []byte{0x81, 0x01, 0x20}
)

// ConditionPair is a hash commitment and its disclosing fulfillment
type ConditionPair struct {
	Condition   string
	Fulfillment string
}

// GenerateCondition produces a fresh PREIMAGE-SHA-256 pair. The condition is
// safe to publish; the fulfillment must stay with the issuer until finish time.
func GenerateCondition() (ConditionPair, error) {
	preimage := make([]byte, 32)
	if _, err := rand.Read(preimage); err != nil {
		return ConditionPair{}, fmt.Errorf("failed to generate preimage: %w", err)
	}
	return pairFromPreimage(preimage), nil
}

func pairFromPreimage(preimage []byte) ConditionPair {
	fulfillment := append(append([]byte{}, fulfillmentPrefix...), preimage...)

	hash := sha256.Sum256(preimage)
	condition := append(append([]byte{}, conditionPrefix...), hash[:]...)
	condition = append(condition, conditionSuffix...)

	return ConditionPair{
		Condition:   strings.ToUpper(hex.EncodeToString(condition)),
		Fulfillment: strings.ToUpper(hex.EncodeToString(fulfillment)),
	}
}

// VerifyPair checks that the fulfillment's embedded preimage hashes to the
// commitment inside the condition
func VerifyPair(pair ConditionPair) error {
	fulfillment, err := hex.DecodeString(pair.Fulfillment)
	if err != nil {
		return fmt.Errorf("fulfillment is not hex: %w", err)
	}
	condition, err := hex.DecodeString(pair.Condition)
	if err != nil {
		return fmt.Errorf("condition is not hex: %w", err)
	}
	if len(fulfillment) != len(fulfillmentPrefix)+32 {
		return errors.New("fulfillment has wrong length")
	}
	if len(condition) != len(conditionPrefix)+32+len(conditionSuffix) {
		return errors.New("condition has wrong length")
	}

	preimage := fulfillment[len(fulfillmentPrefix):]
	hash := sha256.Sum256(preimage)
	expected := condition[len(conditionPrefix) : len(conditionPrefix)+32]
	for i := range hash {
		if hash[i] != expected[i] {
			return errors.New("fulfillment does not match condition")
		}
	}
	return nil
}
