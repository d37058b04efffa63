package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "curio/pkg/domain-errors"
)

// TestParseAccountID_Invariants validates the parsing invariant:
// account IDs are non-empty, trimmed, and never the reserved escrow identity.
func TestParseAccountID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAccountID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects surrounding whitespace", func(t *testing.T) {
		_, err := ParseAccountID(" alice ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects the escrow identity", func(t *testing.T) {
		_, err := ParseAccountID(string(Escrow))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts an opaque identity", func(t *testing.T) {
		id, err := ParseAccountID("0xAbC123")
		require.NoError(t, err)
		assert.Equal(t, AccountID("0xAbC123"), id)
		assert.False(t, id.IsZero())
	})
}

func TestParseAssetID(t *testing.T) {
	t.Run("rejects zero", func(t *testing.T) {
		_, err := ParseAssetID("0")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ParseAssetID("first")
		require.Error(t, err)
	})

	t.Run("rejects negatives", func(t *testing.T) {
		_, err := ParseAssetID("-1")
		require.Error(t, err)
	})

	t.Run("accepts positive integers", func(t *testing.T) {
		id, err := ParseAssetID("42")
		require.NoError(t, err)
		assert.Equal(t, AssetID(42), id)
	})
}

func TestParseRequestToken(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseRequestToken("")
		require.Error(t, err)
	})

	t.Run("rejects the nil UUID", func(t *testing.T) {
		_, err := ParseRequestToken(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("round-trips a fresh token", func(t *testing.T) {
		tok := NewRequestToken()
		parsed, err := ParseRequestToken(tok.String())
		require.NoError(t, err)
		assert.Equal(t, tok, parsed)
		assert.False(t, parsed.IsNil())
	})
}

// FuzzParseAccountID checks that parsing never panics and that accepted
// values round-trip unchanged.
func FuzzParseAccountID(f *testing.F) {
	f.Add("")
	f.Add("alice")
	f.Add(" padded ")
	f.Add(string(Escrow))
	f.Add("'; DROP TABLE assets;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseAccountID(input)
		if err != nil {
			return
		}
		roundTrip, err2 := ParseAccountID(id.String())
		if err2 != nil {
			t.Errorf("accepted account id failed round-trip: %v", err2)
		}
		if roundTrip != id {
			t.Error("round-trip changed account id value")
		}
	})
}
