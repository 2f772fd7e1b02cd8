package entities

import (
	"math/big"
)

// RequestID is the opaque handle returned by the randomness provider
type RequestID string

// ExtraArgs are provider-specific request options
type ExtraArgs struct {
	NativePayment bool `json:"native_payment"`
}

// RandomnessRequest is the outbound request sent to the randomness provider
type RandomnessRequest struct {
	Coordinator          string    `json:"coordinator,omitempty"`
	KeyHash              string    `json:"key_hash"`
	SubscriptionID       string    `json:"subscription_id"`
	RequestConfirmations uint16    `json:"request_confirmations"`
	CallbackGasLimit     uint32    `json:"callback_gas_limit"`
	NumWords             uint32    `json:"num_words"`
	ExtraArgs            ExtraArgs `json:"extra_args"`
}

// SelectWinnerIndex maps a random word onto [0, entrantCount) with a plain
// modulo. The result carries a small modulo bias whenever entrantCount does
// not divide 2^256; the bias is accepted.
func SelectWinnerIndex(randomWord *big.Int, entrantCount int64) int64 {
	if entrantCount <= 0 {
		panic("SelectWinnerIndex called with no entrants")
	}
	// Mod returns the Euclidean modulus, so the result is never negative.
	idx := new(big.Int).Mod(randomWord, big.NewInt(entrantCount))
	return idx.Int64()
}
