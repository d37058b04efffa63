package models

import (
	"time"

	id "curio/pkg/domain"
)

// Asset is a uniquely identified, singly-owned item tracked by the registry.
// The identifier is sequential and assigned at mint time; the attribute
// payload is derived once from the creation randomness and never mutated.
type Asset struct {
	ID         id.AssetID
	Holder     id.AccountID
	Attributes Attributes
	MintedAt   time.Time
}

// Attributes is the immutable payload derived from the creation randomness.
// The mapping from randomness to attributes is deterministic; beyond that the
// shape is presentation material, not safety-critical.
type Attributes struct {
	// Seed is the hex-encoded derivation digest. It alone is enough for a
	// renderer to reproduce the full visual.
	Seed string `json:"seed"`
	// Edition is a 1-based variant index within the collection.
	Edition uint8 `json:"edition"`
	// Hue is the primary color angle in degrees [0,360).
	Hue uint16 `json:"hue"`
	// Luminous marks the rare glowing variant.
	Luminous bool `json:"luminous"`
}
