package entities

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// RandomWordsPerRequest is the number of random words requested per draw
	RandomWordsPerRequest uint32 = 1

	// DefaultRequestConfirmations is the confirmation count used when none is configured
	DefaultRequestConfirmations uint16 = 3
)

// RaffleConfigParams carries the construction-time settings of a raffle
type RaffleConfigParams struct {
	EntranceFee          int64
	Interval             time.Duration
	HoldingAccount       string
	Coordinator          string
	KeyHash              string
	SubscriptionID       string
	RequestConfirmations uint16
	CallbackGasLimit     uint32
	NativePayment        bool
}

// RaffleConfig is the immutable raffle configuration. It is built once by
// NewRaffleConfig and only exposes read accessors.
type RaffleConfig struct {
	entranceFee          int64
	interval             time.Duration
	holdingAccount       string
	coordinator          string
	keyHash              string
	subscriptionID       string
	requestConfirmations uint16
	callbackGasLimit     uint32
	nativePayment        bool
}

// NewRaffleConfig validates params and freezes them into a RaffleConfig
func NewRaffleConfig(params RaffleConfigParams) (RaffleConfig, error) {
	if params.EntranceFee < 0 {
		return RaffleConfig{}, fmt.Errorf("entrance fee must not be negative, got %d", params.EntranceFee)
	}
	if params.Interval <= 0 {
		return RaffleConfig{}, fmt.Errorf("interval must be positive, got %s", params.Interval)
	}
	if strings.TrimSpace(params.HoldingAccount) == "" {
		return RaffleConfig{}, errors.New("holding account is required")
	}
	if strings.TrimSpace(params.KeyHash) == "" {
		return RaffleConfig{}, errors.New("key hash is required")
	}
	if strings.TrimSpace(params.SubscriptionID) == "" {
		return RaffleConfig{}, errors.New("subscription ID is required")
	}
	if params.CallbackGasLimit == 0 {
		return RaffleConfig{}, errors.New("callback gas limit must be positive")
	}

	confirmations := params.RequestConfirmations
	if confirmations == 0 {
		confirmations = DefaultRequestConfirmations
	}

	return RaffleConfig{
		entranceFee:          params.EntranceFee,
		interval:             params.Interval,
		holdingAccount:       params.HoldingAccount,
		coordinator:          params.Coordinator,
		keyHash:              params.KeyHash,
		subscriptionID:       params.SubscriptionID,
		requestConfirmations: confirmations,
		callbackGasLimit:     params.CallbackGasLimit,
		nativePayment:        params.NativePayment,
	}, nil
}

func (c RaffleConfig) EntranceFee() int64           { return c.entranceFee }
func (c RaffleConfig) Interval() time.Duration      { return c.interval }
func (c RaffleConfig) HoldingAccount() string       { return c.holdingAccount }
func (c RaffleConfig) Coordinator() string          { return c.coordinator }
func (c RaffleConfig) KeyHash() string              { return c.keyHash }
func (c RaffleConfig) SubscriptionID() string       { return c.subscriptionID }
func (c RaffleConfig) RequestConfirmations() uint16 { return c.requestConfirmations }
func (c RaffleConfig) CallbackGasLimit() uint32     { return c.callbackGasLimit }
func (c RaffleConfig) NativePayment() bool          { return c.nativePayment }

// RandomnessRequest builds the outbound request for one draw
func (c RaffleConfig) RandomnessRequest() RandomnessRequest {
	return RandomnessRequest{
		Coordinator:          c.coordinator,
		KeyHash:              c.keyHash,
		SubscriptionID:       c.subscriptionID,
		RequestConfirmations: c.requestConfirmations,
		CallbackGasLimit:     c.callbackGasLimit,
		NumWords:             RandomWordsPerRequest,
		ExtraArgs: ExtraArgs{
			NativePayment: c.nativePayment,
		},
	}
}
