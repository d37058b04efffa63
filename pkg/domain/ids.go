// Package domain holds the typed identities shared by every registry
// component. Constructing them through the Parse functions at trust
// boundaries enforces the validation invariants; direct casting bypasses it.
package domain

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	dErrors "curio/pkg/domain-errors"
)

// AccountID identifies a holder of assets or funds. It is an opaque,
// non-empty external identity (a wallet address, a user id). The registry
// itself holds assets under the Escrow identity while they are under auction.
type AccountID string

// Escrow is the registry's own holder identity. An asset held by Escrow is
// in custody of the registry and cannot be listed, transferred, or re-auctioned
// by its previous holder.
const Escrow AccountID = "@registry"

// Nobody is the zero AccountID. It is never a legal holder or transfer target.
const Nobody AccountID = ""

func (a AccountID) IsZero() bool { return a == Nobody }

func (a AccountID) String() string { return string(a) }

// ParseAccountID constructs an AccountID from external input.
// Invariant: non-empty, no surrounding whitespace, and not the escrow identity
// (external callers can never act as the registry).
func ParseAccountID(s string) (AccountID, error) {
	if s == "" {
		return Nobody, dErrors.New(dErrors.CodeInvalidInput, "account id cannot be empty")
	}
	if strings.TrimSpace(s) != s {
		return Nobody, dErrors.New(dErrors.CodeInvalidInput, "account id cannot contain surrounding whitespace")
	}
	if AccountID(s) == Escrow {
		return Nobody, dErrors.New(dErrors.CodeInvalidInput, "account id is reserved")
	}
	return AccountID(s), nil
}

// AssetID identifies a minted asset. IDs are sequential and assigned
// monotonically starting at 1; zero is never a valid asset.
type AssetID uint64

func (a AssetID) IsZero() bool { return a == 0 }

func (a AssetID) String() string { return strconv.FormatUint(uint64(a), 10) }

// ParseAssetID constructs an AssetID from external input such as a URL path
// segment.
func ParseAssetID(s string) (AssetID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "asset id must be a positive integer")
	}
	if n == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "asset id cannot be zero")
	}
	return AssetID(n), nil
}

// RequestToken identifies a pending creation request awaiting randomness.
// Tokens are single-use: fulfilling one consumes it forever.
type RequestToken uuid.UUID

// NewRequestToken allocates a fresh creation request token.
func NewRequestToken() RequestToken { return RequestToken(uuid.New()) }

func (t RequestToken) IsNil() bool { return uuid.UUID(t) == uuid.Nil }

func (t RequestToken) String() string { return uuid.UUID(t).String() }

// ParseRequestToken constructs a RequestToken from external input.
func ParseRequestToken(s string) (RequestToken, error) {
	if s == "" {
		return RequestToken{}, dErrors.New(dErrors.CodeInvalidInput, "request token cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return RequestToken{}, dErrors.New(dErrors.CodeInvalidInput, "request token must be a valid UUID")
	}
	if u == uuid.Nil {
		return RequestToken{}, dErrors.New(dErrors.CodeInvalidInput, "request token cannot be the nil UUID")
	}
	return RequestToken(u), nil
}
