package service

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/google/uuid"

	"curio/internal/registry/models"
	id "curio/pkg/domain"
)

// editions is the number of distinct visual variants in the collection.
const editions = 12

// luminousOdds gives roughly a 1-in-16 chance of the glowing variant.
const luminousOdds = 16

// deriveAttributes maps the oracle's random word to the asset's immutable
// attribute payload. The mapping is a pure function of (token, word): the
// same inputs always derive the same attributes, and the token in the digest
// ties the outcome to exactly one creation request.
func deriveAttributes(token id.RequestToken, word uint64) models.Attributes {
	h := sha256.New()
	raw := uuid.UUID(token)
	h.Write(raw[:])

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], word)
	h.Write(buf[:])

	digest := h.Sum(nil)
	return models.Attributes{
		Seed:     hex.EncodeToString(digest),
		Edition:  1 + digest[0]%editions,
		Hue:      binary.BigEndian.Uint16(digest[1:3]) % 360,
		Luminous: digest[3]%luminousOdds == 0,
	}
}
