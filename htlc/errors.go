package htlc

import "errors"

// remote contract failure taxonomy, shared by both chains
var (
	ErrContractNotFound            = errors.New("htlc: contract not found")
	ErrInvalidAmount               = errors.New("htlc: invalid amount")
	ErrInvalidTimelock             = errors.New("htlc: invalid timelock")
	ErrInsufficientBalance         = errors.New("htlc: insufficient balance")
	ErrInvalidPreimage             = errors.New("htlc: invalid preimage")
	ErrTimelockExpired             = errors.New("htlc: timelock expired")
	ErrTimelockNotExpired          = errors.New("htlc: timelock not expired")
	ErrUnauthorized                = errors.New("htlc: unauthorized")
	ErrAlreadyWithdrawn            = errors.New("htlc: already withdrawn")
	ErrAlreadyRefunded             = errors.New("htlc: already refunded")
	ErrPartialFillsNotAllowed      = errors.New("htlc: partial fills not allowed")
	ErrBelowMinimumFill            = errors.New("htlc: below minimum fill amount")
	ErrInsufficientRemainingAmount = errors.New("htlc: insufficient remaining amount")
)
