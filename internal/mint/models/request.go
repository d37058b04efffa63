package models

import (
	"time"

	id "curio/pkg/domain"
)

// PendingRequest links a payer to a creation request awaiting an external
// random value. It is consumed the moment the value arrives and an asset is
// minted; a consumed request can never mint again.
type PendingRequest struct {
	Token     id.RequestToken
	Payer     id.AccountID
	Payment   uint64
	CreatedAt time.Time
	Fulfilled bool
}

// Params is the operator-adjustable global minting state.
type Params struct {
	MintingCost uint64
	MaxSupply   uint64
}
